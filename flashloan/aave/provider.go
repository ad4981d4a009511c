package aave

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbbot/flashloan"
)

// PolygonLendingPool is the Aave V2 lending pool on Polygon
var PolygonLendingPool = common.HexToAddress("0x8dFf5E27EA6b7AC08EbFdf9eB090F32ee9a30fcf")

// Aave V2 lending pool ABI, view methods only
const lendingPoolABI = `[
	{
		"inputs": [],
		"name": "FLASHLOAN_PREMIUM_TOTAL",
		"outputs": [
			{
				"internalType": "uint256",
				"name": "",
				"type": "uint256"
			}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// Pool reads flash loan terms from an Aave lending pool
type Pool struct {
	caller  ethereum.ContractCaller
	address common.Address
	logger  *zap.Logger
	abi     abi.ABI
}

// NewPool creates a handle on the lending pool at address
func NewPool(caller ethereum.ContractCaller, address common.Address, logger *zap.Logger) (*Pool, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if address == (common.Address{}) {
		address = PolygonLendingPool
	}

	parsedABI, err := abi.JSON(strings.NewReader(lendingPoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	return &Pool{
		caller:  caller,
		address: address,
		logger:  logger,
		abi:     parsedABI,
	}, nil
}

// Premium returns the flash loan premium in basis points
func (p *Pool) Premium(ctx context.Context) (uint64, error) {
	callData, err := p.abi.Pack("FLASHLOAN_PREMIUM_TOTAL")
	if err != nil {
		return 0, fmt.Errorf("failed to pack FLASHLOAN_PREMIUM_TOTAL: %w", err)
	}

	result, err := p.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &p.address,
		Data: callData,
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get flash loan premium: %w", err)
	}

	values, err := p.abi.Unpack("FLASHLOAN_PREMIUM_TOTAL", result)
	if err != nil {
		return 0, fmt.Errorf("failed to unpack flash loan premium: %w", err)
	}
	premium, ok := values[0].(*big.Int)
	if !ok || !premium.IsUint64() {
		return 0, fmt.Errorf("unexpected flash loan premium %v", values[0])
	}

	return premium.Uint64(), nil
}

// CheckPremium compares the on-chain premium with the rate used to price
// borrowing fees and reports whether they agree. A mismatch is logged but
// not fatal.
func (p *Pool) CheckPremium(ctx context.Context) bool {
	premium, err := p.Premium(ctx)
	if err != nil {
		p.logger.Warn("Could not verify flash loan premium",
			zap.String("pool", p.address.Hex()),
			zap.Error(err))
		return false
	}

	if premium != flashloan.FeeBps {
		p.logger.Warn("Flash loan premium differs from configured borrowing fee",
			zap.String("pool", p.address.Hex()),
			zap.Uint64("premium_bps", premium),
			zap.Uint64("fee_bps", flashloan.FeeBps))
		return false
	}

	p.logger.Debug("Flash loan premium verified", zap.Uint64("premium_bps", premium))
	return true
}
