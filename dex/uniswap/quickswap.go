package uniswap

import (
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"
)

// QuickSwapName is the venue name used in logs and configuration
const QuickSwapName = "QuickSwap"

// Contract addresses
var (
	QuickSwapRouter = common.HexToAddress("0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff")
	MainnetRouter   = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
)

// NewQuickSwap creates a QuickSwap quote source on Polygon
func NewQuickSwap(router common.Address, caller ethereum.ContractCaller, limiter *rate.Limiter) (*RouterV2, error) {
	if router == (common.Address{}) {
		router = QuickSwapRouter
	}
	return NewRouterV2(QuickSwapName, router, caller, limiter)
}
