package gas

import (
	"context"
	"fmt"
	"math/big"

	"github.com/michaelpento.lv/arbbot/dex"
	"github.com/michaelpento.lv/arbbot/types"
	"github.com/michaelpento.lv/arbbot/utils/math"
)

// nativeUnit is one native token (18 decimals) in wei
var nativeUnit = math.Pow10(18)

// Converter expresses a network fee paid in wei in units of the borrowed
// token, so it can be subtracted from the gross profit.
type Converter interface {
	ToToken(ctx context.Context, wei *big.Int) (*big.Int, error)
}

// FixedRate converts with a configured price of one native token
type FixedRate struct {
	price *big.Int
}

// NewFixedRate creates a converter where one native token is worth price
// (in raw borrowed-token units)
func NewFixedRate(price *big.Int) (*FixedRate, error) {
	if price == nil || price.Sign() < 0 {
		return nil, fmt.Errorf("native token price must be non-negative")
	}
	return &FixedRate{price: new(big.Int).Set(price)}, nil
}

// ToToken converts wei into borrowed-token units, rounding up so the fee is
// never underestimated
func (f *FixedRate) ToToken(_ context.Context, wei *big.Int) (*big.Int, error) {
	return mulDivCeil(wei, f.price, nativeUnit), nil
}

// QuotedRate prices the native token with a live quote on a venue
type QuotedRate struct {
	venue dex.Exchange
	path  types.TokenPath
}

// NewQuotedRate creates a converter quoting one native token along path,
// which must start at the wrapped native token and end at the borrowed token
func NewQuotedRate(venue dex.Exchange, path types.TokenPath) (*QuotedRate, error) {
	if venue == nil {
		return nil, fmt.Errorf("venue cannot be nil")
	}
	if err := path.Validate(); err != nil {
		return nil, fmt.Errorf("invalid native price path: %w", err)
	}
	return &QuotedRate{venue: venue, path: path}, nil
}

// ToToken converts wei into borrowed-token units at the current venue price
func (q *QuotedRate) ToToken(ctx context.Context, wei *big.Int) (*big.Int, error) {
	quote, err := dex.Quote(ctx, q.venue, nativeUnit, q.path)
	if err != nil {
		return nil, fmt.Errorf("failed to quote native token on %s: %w", q.venue.Name(), err)
	}
	return mulDivCeil(wei, quote.Received(), nativeUnit), nil
}

func mulDivCeil(x, num, den *big.Int) *big.Int {
	product := new(big.Int).Mul(x, num)
	quo, rem := new(big.Int).QuoRem(product, den, new(big.Int))
	if rem.Sign() > 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo
}
