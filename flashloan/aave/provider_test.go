package aave

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockEthClient struct {
	premium int64
	err     error
	to      common.Address
}

func (m *mockEthClient) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (m *mockEthClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.to = *msg.To
	parsed, err := abi.JSON(strings.NewReader(lendingPoolABI))
	if err != nil {
		return nil, err
	}
	return parsed.Methods["FLASHLOAN_PREMIUM_TOTAL"].Outputs.Pack(big.NewInt(m.premium))
}

func TestPoolPremium(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	t.Run("MatchingPremium", func(t *testing.T) {
		client := &mockEthClient{premium: 9}
		pool, err := NewPool(client, common.Address{}, logger)
		require.NoError(t, err)

		premium, err := pool.Premium(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(9), premium)
		assert.Equal(t, PolygonLendingPool, client.to)
		assert.True(t, pool.CheckPremium(ctx))
	})

	t.Run("DifferentPremium", func(t *testing.T) {
		pool, err := NewPool(&mockEthClient{premium: 5}, PolygonLendingPool, logger)
		require.NoError(t, err)
		assert.False(t, pool.CheckPremium(ctx))
	})

	t.Run("CallError", func(t *testing.T) {
		pool, err := NewPool(&mockEthClient{err: errors.New("execution reverted")}, PolygonLendingPool, logger)
		require.NoError(t, err)

		_, err = pool.Premium(ctx)
		assert.Error(t, err)
		assert.False(t, pool.CheckPremium(ctx))
	})
}

func TestNewPoolValidation(t *testing.T) {
	_, err := NewPool(nil, PolygonLendingPool, zaptest.NewLogger(t))
	assert.Error(t, err)

	_, err = NewPool(&mockEthClient{}, PolygonLendingPool, nil)
	assert.Error(t, err)
}
