package flashloan

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Settlement contract ABI: borrows token, swaps it along pathA on routerA,
// back along pathB on routerB, and repays the loan in one transaction
const settlementABIJson = `[
	{
		"inputs": [
			{"internalType": "address", "name": "token", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"},
			{"internalType": "address", "name": "routerA", "type": "address"},
			{"internalType": "address", "name": "routerB", "type": "address"},
			{"internalType": "address[]", "name": "pathA", "type": "address[]"},
			{"internalType": "address[]", "name": "pathB", "type": "address[]"}
		],
		"name": "executeFlashLoan",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var settlementABI = mustParseABI(settlementABIJson)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse settlement ABI: %v", err))
	}
	return parsed
}

// PackExecution encodes the executeFlashLoan call for params
func PackExecution(params ExecutionParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	data, err := settlementABI.Pack("executeFlashLoan",
		params.Token,
		params.Amount,
		params.RouterA,
		params.RouterB,
		[]common.Address(params.PathA),
		[]common.Address(params.PathB),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack executeFlashLoan: %w", err)
	}
	return data, nil
}

// Contract submits executeFlashLoan calls signed by the bot key
type Contract struct {
	address common.Address
	backend Backend
	key     *ecdsa.PrivateKey
	from    common.Address
	signer  ethtypes.Signer
}

// NewContract creates a handle on the settlement contract at address
func NewContract(address common.Address, backend Backend, key *ecdsa.PrivateKey, chainID *big.Int) (*Contract, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if key == nil {
		return nil, fmt.Errorf("private key cannot be nil")
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id")
	}
	if address == (common.Address{}) {
		return nil, fmt.Errorf("settlement contract address cannot be zero")
	}

	return &Contract{
		address: address,
		backend: backend,
		key:     key,
		from:    crypto.PubkeyToAddress(key.PublicKey),
		signer:  ethtypes.LatestSignerForChainID(chainID),
	}, nil
}

// Address returns the settlement contract address
func (c *Contract) Address() common.Address {
	return c.address
}

// From returns the account that signs settlement calls
func (c *Contract) From() common.Address {
	return c.from
}

// Submit signs and broadcasts a legacy transaction calling executeFlashLoan
func (c *Contract) Submit(ctx context.Context, params ExecutionParams, gasLimit uint64, gasPrice *big.Int) (*ethtypes.Transaction, error) {
	if gasLimit == 0 {
		return nil, fmt.Errorf("invalid gas limit")
	}
	if gasPrice == nil || gasPrice.Sign() <= 0 {
		return nil, fmt.Errorf("invalid gas price")
	}

	data, err := PackExecution(params)
	if err != nil {
		return nil, err
	}

	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &c.address,
		Value:    big.NewInt(0),
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := ethtypes.SignTx(tx, c.signer, c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed, nil
}

// WaitMined blocks until tx is included in a block or ctx is done
func (c *Contract) WaitMined(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed waiting for %s: %w", tx.Hash().Hex(), err)
	}
	return receipt, nil
}
