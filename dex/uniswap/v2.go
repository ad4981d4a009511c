package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/arbbot/types"
)

// ErrNoLiquidity is returned when the router cannot price a path.
var ErrNoLiquidity = errors.New("path cannot be priced")

// Router ABI, reduced to the quoting entry point
const routerABIJson = `[{
	"inputs": [
		{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
		{"internalType": "address[]", "name": "path", "type": "address[]"}
	],
	"name": "getAmountsOut",
	"outputs": [
		{"internalType": "uint256[]", "name": "amounts", "type": "uint256[]"}
	],
	"stateMutability": "view",
	"type": "function"
}]`

// RouterV2 prices swaps through a Uniswap V2 compatible router contract
type RouterV2 struct {
	name      string
	address   common.Address
	caller    ethereum.ContractCaller
	limiter   *rate.Limiter
	routerABI abi.ABI
}

// NewRouterV2 creates a quote source for the router at address. limiter may
// be nil to disable RPC throttling.
func NewRouterV2(name string, address common.Address, caller ethereum.ContractCaller, limiter *rate.Limiter) (*RouterV2, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller cannot be nil")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("router address for %s must be specified", name)
	}

	parsedABI, err := abi.JSON(strings.NewReader(routerABIJson))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	return &RouterV2{
		name:      name,
		address:   address,
		caller:    caller,
		limiter:   limiter,
		routerABI: parsedABI,
	}, nil
}

// Name returns the exchange name
func (r *RouterV2) Name() string {
	return r.name
}

// RouterAddress returns the router contract address
func (r *RouterV2) RouterAddress() common.Address {
	return r.address
}

// GetAmountsOut simulates a swap of amountIn along path with an eth_call
func (r *RouterV2) GetAmountsOut(ctx context.Context, amountIn *big.Int, path types.TokenPath) ([]*big.Int, error) {
	if err := path.Validate(); err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount in must be positive", ErrNoLiquidity)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	data, err := r.routerABI.Pack("getAmountsOut", amountIn, []common.Address(path))
	if err != nil {
		return nil, fmt.Errorf("failed to pack getAmountsOut: %w", err)
	}

	out, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &r.address, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call getAmountsOut on %s: %w", r.name, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty response from %s", ErrNoLiquidity, r.name)
	}

	values, err := r.routerABI.Unpack("getAmountsOut", out)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack getAmountsOut: %w", err)
	}
	amounts, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("failed to parse amounts from %s", r.name)
	}

	return amounts, nil
}
