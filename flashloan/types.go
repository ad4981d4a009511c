package flashloan

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/michaelpento.lv/arbbot/dex"
	"github.com/michaelpento.lv/arbbot/types"
	"github.com/michaelpento.lv/arbbot/utils/math"
)

// Borrowing fee rate charged by the lending pool, in basis points
const (
	FeeBps         = 9
	feeDenominator = 10000
)

// ExecutionParams are the arguments of the settlement contract's
// executeFlashLoan call
type ExecutionParams struct {
	Token   common.Address  // Token to borrow
	Amount  *big.Int        // Amount to borrow
	RouterA common.Address  // Router of the outbound swap
	RouterB common.Address  // Router of the return swap
	PathA   types.TokenPath // Outbound swap path
	PathB   types.TokenPath // Return swap path
}

// NewExecutionParams builds the settlement arguments for borrowing amount
// and swapping it through source then destination
func NewExecutionParams(source, destination dex.Exchange, amount *big.Int, outbound, ret types.TokenPath) ExecutionParams {
	return ExecutionParams{
		Token:   outbound.First(),
		Amount:  amount,
		RouterA: source.RouterAddress(),
		RouterB: destination.RouterAddress(),
		PathA:   outbound,
		PathB:   ret,
	}
}

// Validate checks that the loan can be repaid in the borrowed token
func (p ExecutionParams) Validate() error {
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return fmt.Errorf("invalid loan amount")
	}
	if err := p.PathA.Validate(); err != nil {
		return fmt.Errorf("invalid outbound path: %w", err)
	}
	if err := p.PathB.Validate(); err != nil {
		return fmt.Errorf("invalid return path: %w", err)
	}
	if p.PathA.First() != p.Token {
		return fmt.Errorf("outbound path must start with borrowed token %s", p.Token.Hex())
	}
	if p.PathB.Last() != p.Token {
		return fmt.Errorf("return path must end with borrowed token %s", p.Token.Hex())
	}
	if p.PathA.Last() != p.PathB.First() {
		return fmt.Errorf("return path must start with %s", p.PathA.Last().Hex())
	}
	return nil
}

// BorrowingFee returns the lending pool fee for borrowing amount
func BorrowingFee(amount *big.Int) *big.Int {
	return math.MulDiv(amount, FeeBps, feeDenominator)
}
