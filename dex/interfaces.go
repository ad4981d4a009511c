package dex

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/michaelpento.lv/arbbot/types"
)

// Exchange represents a decentralized exchange able to price a swap path
type Exchange interface {
	// Name returns the exchange name
	Name() string

	// RouterAddress returns the router contract the settlement contract swaps through
	RouterAddress() common.Address

	// GetAmountsOut returns the amount obtained at each position of path when
	// swapping amountIn. It must not modify chain state.
	GetAmountsOut(ctx context.Context, amountIn *big.Int, path types.TokenPath) ([]*big.Int, error)
}

// Quote prices path on exchange and validates the result.
func Quote(ctx context.Context, exchange Exchange, amountIn *big.Int, path types.TokenPath) (*types.Quote, error) {
	amounts, err := exchange.GetAmountsOut(ctx, amountIn, path)
	if err != nil {
		return nil, err
	}
	return types.NewQuote(exchange.Name(), path, amounts)
}

// RouteID returns a short stable identifier for a source/destination
// ordering and its paths. It is used as a log field and metric label.
func RouteID(source, destination Exchange, outbound, ret types.TokenPath) string {
	h := xxhash.New()
	_, _ = h.Write(source.RouterAddress().Bytes())
	_, _ = h.Write(destination.RouterAddress().Bytes())
	for _, path := range []types.TokenPath{outbound, ret} {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(path)))
		_, _ = h.Write(n[:])
		for _, token := range path {
			_, _ = h.Write(token.Bytes())
		}
	}
	return fmt.Sprintf("%s->%s#%08x", source.Name(), destination.Name(), h.Sum64()&0xffffffff)
}
