package flashloan

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelpento.lv/arbbot/types"
)

// mockBackend captures sent transactions and serves a single receipt
type mockBackend struct {
	nonce    uint64
	nonceErr error
	sendErr  error
	sent     []*ethtypes.Transaction
	receipt  *ethtypes.Receipt
}

func (m *mockBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	if m.receipt == nil {
		return nil, ethereum.NotFound
	}
	return m.receipt, nil
}

func (m *mockBackend) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}

func (m *mockBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return m.nonce, m.nonceErr
}

func (m *mockBackend) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, tx)
	return nil
}

func TestContractSubmit(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chainID := big.NewInt(137)

	backend := &mockBackend{nonce: 7}
	c, err := NewContract(contract, backend, key, chainID)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), c.From())

	tx, err := c.Submit(context.Background(), testParams(), 350000, big.NewInt(30000000000))
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	assert.Equal(t, uint8(ethtypes.LegacyTxType), tx.Type())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(350000), tx.Gas())
	assert.Equal(t, int64(30000000000), tx.GasPrice().Int64())
	assert.Equal(t, contract, *tx.To())
	assert.Equal(t, 0, tx.ChainId().Cmp(chainID))

	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(chainID), tx)
	require.NoError(t, err)
	assert.Equal(t, c.From(), sender)

	method := settlementABI.Methods["executeFlashLoan"]
	assert.Equal(t, method.ID, tx.Data()[:4])
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	require.Len(t, args, 6)
	assert.Equal(t, usdc, args[0].(common.Address))
	assert.Equal(t, int64(1000000000), args[1].(*big.Int).Int64())
	assert.Equal(t, routerA, args[2].(common.Address))
	assert.Equal(t, routerB, args[3].(common.Address))
	assert.Equal(t, []common.Address{usdc, usdt}, args[4].([]common.Address))
	assert.Equal(t, []common.Address{usdt, usdc}, args[5].([]common.Address))
}

func TestContractSubmitErrors(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("NonceError", func(t *testing.T) {
		backend := &mockBackend{nonceErr: errors.New("connection refused")}
		c, err := NewContract(contract, backend, key, big.NewInt(137))
		require.NoError(t, err)

		_, err = c.Submit(ctx, testParams(), 350000, big.NewInt(1))
		assert.ErrorContains(t, err, "failed to get nonce")
		assert.Empty(t, backend.sent)
	})

	t.Run("SendError", func(t *testing.T) {
		backend := &mockBackend{sendErr: errors.New("insufficient funds for gas")}
		c, err := NewContract(contract, backend, key, big.NewInt(137))
		require.NoError(t, err)

		_, err = c.Submit(ctx, testParams(), 350000, big.NewInt(1))
		assert.ErrorContains(t, err, "insufficient funds")
	})

	t.Run("InvalidGas", func(t *testing.T) {
		c, err := NewContract(contract, &mockBackend{}, key, big.NewInt(137))
		require.NoError(t, err)

		_, err = c.Submit(ctx, testParams(), 0, big.NewInt(1))
		assert.Error(t, err)
		_, err = c.Submit(ctx, testParams(), 350000, nil)
		assert.Error(t, err)
	})
}

func TestContractWaitMined(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{Nonce: 1, To: &contract, Gas: 21000, GasPrice: big.NewInt(1)})

	t.Run("Mined", func(t *testing.T) {
		backend := &mockBackend{receipt: &ethtypes.Receipt{Status: ethtypes.ReceiptStatusSuccessful, GasUsed: 21000}}
		c, err := NewContract(contract, backend, key, big.NewInt(137))
		require.NoError(t, err)

		receipt, err := c.WaitMined(context.Background(), tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(21000), receipt.GasUsed)
	})

	t.Run("Timeout", func(t *testing.T) {
		c, err := NewContract(contract, &mockBackend{}, key, big.NewInt(137))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = c.WaitMined(ctx, tx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestNewContractValidation(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = NewContract(contract, nil, key, big.NewInt(137))
	assert.Error(t, err)
	_, err = NewContract(contract, &mockBackend{}, nil, big.NewInt(137))
	assert.Error(t, err)
	_, err = NewContract(contract, &mockBackend{}, key, nil)
	assert.Error(t, err)
	_, err = NewContract(common.Address{}, &mockBackend{}, key, big.NewInt(137))
	assert.Error(t, err)
}

func TestPackExecutionRejectsInvalidParams(t *testing.T) {
	p := testParams()
	p.PathA = types.TokenPath{usdc}
	_, err := PackExecution(p)
	assert.Error(t, err)
}
