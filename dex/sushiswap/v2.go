package sushiswap

import (
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/arbbot/dex/uniswap"
)

// Name is the venue name used in logs and configuration
const Name = "SushiSwap"

// Router addresses
var (
	PolygonRouter = common.HexToAddress("0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506")
	MainnetRouter = common.HexToAddress("0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F")
)

// NewV2 creates a SushiSwap quote source. Sushiswap routers are Uniswap V2
// forks, so quoting goes through the same router implementation.
func NewV2(router common.Address, caller ethereum.ContractCaller, limiter *rate.Limiter) (*uniswap.RouterV2, error) {
	if router == (common.Address{}) {
		router = PolygonRouter
	}
	return uniswap.NewRouterV2(Name, router, caller, limiter)
}
