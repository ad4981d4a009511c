package dex

import (
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/arbbot/dex/sushiswap"
	"github.com/michaelpento.lv/arbbot/dex/uniswap"
)

// NewVenue builds the quote source for a configured venue. Known venue names
// fall back to their Polygon router when router is the zero address; any
// other name is treated as a generic V2 router.
func NewVenue(name string, router common.Address, caller ethereum.ContractCaller, limiter *rate.Limiter) (Exchange, error) {
	switch strings.ToLower(name) {
	case strings.ToLower(uniswap.QuickSwapName):
		return uniswap.NewQuickSwap(router, caller, limiter)
	case strings.ToLower(sushiswap.Name):
		return sushiswap.NewV2(router, caller, limiter)
	default:
		return uniswap.NewRouterV2(name, router, caller, limiter)
	}
}
