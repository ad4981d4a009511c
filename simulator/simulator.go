package simulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbbot/flashloan"
)

// ErrExecutionReverted is returned when the node reports the settlement call
// would revert
var ErrExecutionReverted = errors.New("settlement call would revert")

// Simulator dry-runs settlement calls against current chain state
type Simulator struct {
	client   ethereum.GasEstimator
	contract common.Address
	from     common.Address
	logger   *zap.Logger
}

// NewSimulator creates a simulator for calls to contract sent by from
func NewSimulator(client ethereum.GasEstimator, contract, from common.Address, logger *zap.Logger) (*Simulator, error) {
	if client == nil {
		return nil, fmt.Errorf("gas estimator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		client:   client,
		contract: contract,
		from:     from,
		logger:   logger,
	}, nil
}

// EstimateExecution returns the gas units the settlement call with params
// would consume if sent now
func (s *Simulator) EstimateExecution(ctx context.Context, params flashloan.ExecutionParams) (uint64, error) {
	callData, err := flashloan.PackExecution(params)
	if err != nil {
		return 0, fmt.Errorf("failed to create flash loan call data: %w", err)
	}

	gasUsed, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From: s.from,
		To:   &s.contract,
		Data: callData,
	})
	if err != nil {
		if reason, ok := revertReason(err); ok {
			s.logger.Debug("Settlement call reverts",
				zap.String("reason", reason),
				zap.String("amount", params.Amount.String()))
			return 0, fmt.Errorf("%w: %s", ErrExecutionReverted, reason)
		}
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}

	return gasUsed, nil
}

// revertReason extracts the Error(string) payload a node attaches to a
// reverted call
func revertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	hexData, ok := dataErr.ErrorData().(string)
	if !ok {
		return "", false
	}
	data, decodeErr := hexutil.Decode(hexData)
	if decodeErr != nil {
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return err.Error(), true
	}
	return reason, true
}
