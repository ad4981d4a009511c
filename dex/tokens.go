package dex

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

const erc20MetadataABIJson = `[
	{"constant": true, "inputs": [], "name": "decimals", "outputs": [{"name": "", "type": "uint8"}], "stateMutability": "view", "type": "function"},
	{"constant": true, "inputs": [], "name": "symbol", "outputs": [{"name": "", "type": "string"}], "stateMutability": "view", "type": "function"}
]`

// TokenInfo holds ERC20 metadata used to render amounts
type TokenInfo struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
}

// TokenRegistry resolves ERC20 metadata and caches it. Token metadata is
// immutable on chain, so entries never expire.
type TokenRegistry struct {
	caller ethereum.ContractCaller
	cache  *lru.Cache
	abi    abi.ABI
}

// NewTokenRegistry creates a registry holding at most size tokens
func NewTokenRegistry(caller ethereum.ContractCaller, size int) (*TokenRegistry, error) {
	if caller == nil {
		return nil, fmt.Errorf("contract caller cannot be nil")
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cache: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20MetadataABIJson))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &TokenRegistry{
		caller: caller,
		cache:  cache,
		abi:    parsedABI,
	}, nil
}

// Lookup returns the metadata of token, reading it from chain on first use
func (r *TokenRegistry) Lookup(ctx context.Context, token common.Address) (*TokenInfo, error) {
	if cached, ok := r.cache.Get(token); ok {
		return cached.(*TokenInfo), nil
	}

	var decimals uint8
	if err := r.call(ctx, token, "decimals", &decimals); err != nil {
		return nil, err
	}
	var symbol string
	if err := r.call(ctx, token, "symbol", &symbol); err != nil {
		return nil, err
	}

	info := &TokenInfo{Address: token, Symbol: symbol, Decimals: decimals}
	r.cache.Add(token, info)
	return info, nil
}

func (r *TokenRegistry) call(ctx context.Context, token common.Address, method string, out interface{}) error {
	data, err := r.abi.Pack(method)
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", method, err)
	}

	result, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return fmt.Errorf("failed to call %s on %s: %w", method, token.Hex(), err)
	}

	values, err := r.abi.Unpack(method, result)
	if err != nil {
		return fmt.Errorf("failed to unpack %s: %w", method, err)
	}

	switch dst := out.(type) {
	case *uint8:
		v, ok := values[0].(uint8)
		if !ok {
			return fmt.Errorf("failed to parse %s", method)
		}
		*dst = v
	case *string:
		v, ok := values[0].(string)
		if !ok {
			return fmt.Errorf("failed to parse %s", method)
		}
		*dst = v
	}
	return nil
}
