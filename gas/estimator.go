package gas

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"go.uber.org/zap"
)

// ErrGasPriceTooHigh is returned when the network fee rate exceeds the configured cap
var ErrGasPriceTooHigh = errors.New("gas price above configured maximum")

// Estimator queries the current network fee rate
type Estimator struct {
	client      ethereum.GasPricer
	logger      *zap.Logger
	maxGasPrice *big.Int
}

// NewEstimator creates a new gas estimator. maxGasPrice may be nil to accept
// any fee rate.
func NewEstimator(client ethereum.GasPricer, maxGasPrice *big.Int, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		client:      client,
		logger:      logger,
		maxGasPrice: maxGasPrice,
	}
}

// GasPrice returns the fee rate, in wei per gas unit, a transaction sent now
// would pay
func (e *Estimator) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("node returned invalid gas price %v", price)
	}

	if e.maxGasPrice != nil && price.Cmp(e.maxGasPrice) > 0 {
		e.logger.Debug("Gas price above cap",
			zap.String("gas_price", price.String()),
			zap.String("max_gas_price", e.maxGasPrice.String()))
		return nil, fmt.Errorf("%w: %s > %s", ErrGasPriceTooHigh, price, e.maxGasPrice)
	}

	return price, nil
}

// NetworkFee returns gasUnits * gasPrice in wei
func NetworkFee(gasUnits uint64, gasPrice *big.Int) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gasUnits), gasPrice)
}
