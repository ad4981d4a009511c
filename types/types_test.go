package types

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usdc = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	usdt = common.HexToAddress("0xc2132D05D31c914a87C6611C10748AEb04B58e8F")
)

func TestTokenPathValidate(t *testing.T) {
	assert.NoError(t, TokenPath{usdc, usdt}.Validate())
	assert.NoError(t, TokenPath{usdc, usdt, usdc}.Validate())
	assert.Error(t, TokenPath{usdc}.Validate())
	assert.Error(t, TokenPath{}.Validate())
	assert.Error(t, TokenPath{usdc, usdc}.Validate())

	path := TokenPath{usdc, usdt}
	assert.Equal(t, usdc, path.First())
	assert.Equal(t, usdt, path.Last())
	assert.Equal(t, common.Address{}, TokenPath{}.Last())
}

func TestNewQuote(t *testing.T) {
	path := TokenPath{usdc, usdt}

	q, err := NewQuote("QuickSwap", path, []*big.Int{big.NewInt(1000), big.NewInt(998)})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), q.AmountIn().Int64())
	assert.Equal(t, int64(998), q.Received().Int64())

	_, err = NewQuote("QuickSwap", path, []*big.Int{big.NewInt(1000)})
	assert.Error(t, err)

	_, err = NewQuote("QuickSwap", path, []*big.Int{big.NewInt(1000), big.NewInt(-1)})
	assert.Error(t, err)

	_, err = NewQuote("QuickSwap", path, []*big.Int{big.NewInt(1000), nil})
	assert.Error(t, err)
}

func TestEvaluationError(t *testing.T) {
	err := &EvaluationError{Kind: QuoteUnavailable, Venue: "SushiSwap", Err: context.DeadlineExceeded}
	wrapped := fmt.Errorf("ordering: %w", err)

	assert.True(t, IsEvaluationError(wrapped, QuoteUnavailable))
	assert.False(t, IsEvaluationError(wrapped, CostEstimation))
	assert.True(t, errors.Is(wrapped, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "quote_unavailable on SushiSwap")
	assert.False(t, IsEvaluationError(errors.New("plain"), QuoteUnavailable))
}

func TestOutcomeConstructors(t *testing.T) {
	skipped := Skipped("dry run")
	assert.Equal(t, OutcomeSkipped, skipped.Status)
	assert.Equal(t, "dry run", skipped.Reason)
	assert.Equal(t, "skipped", skipped.Status.String())

	cause := errors.New("nonce too low")
	failed := Failed(common.Hash{}, cause)
	assert.Equal(t, OutcomeFailed, failed.Status)
	assert.ErrorIs(t, failed.Err, cause)
	assert.Equal(t, "reverted", OutcomeReverted.String())
	assert.Equal(t, "confirmed", OutcomeConfirmed.String())
}
