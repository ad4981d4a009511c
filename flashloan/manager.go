package flashloan

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbbot/types"
)

// Skip reasons reported in execution outcomes
const (
	ReasonNotProfitable = "not profitable"
	ReasonDryRun        = "dry run"
)

// RequesterConfig controls how settlement calls are submitted
type RequesterConfig struct {
	GasLimitMargin uint64        // Gas units added on top of the estimate
	CallTimeout    time.Duration // Bound on signing and sending
	ConfirmTimeout time.Duration // Bound on waiting for the receipt
	DryRun         bool
}

// Requester submits profitable opportunities to the settlement contract, one
// at a time, and classifies what happened to them
type Requester struct {
	mu        sync.Mutex
	submitter Submitter
	config    RequesterConfig
	logger    *zap.Logger
	metrics   struct {
		executions       *prometheus.CounterVec
		executionLatency prometheus.Histogram
		activeLoans      prometheus.Gauge
		successRate      prometheus.Gauge
		successCount     prometheus.Counter
		totalCount       prometheus.Counter
	}
}

// NewRequester creates a new execution requester. Metrics are registered on
// reg when it is not nil.
func NewRequester(submitter Submitter, cfg RequesterConfig, reg prometheus.Registerer, logger *zap.Logger) (*Requester, error) {
	if submitter == nil {
		return nil, fmt.Errorf("submitter cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	r := &Requester{
		submitter: submitter,
		config:    cfg,
		logger:    logger,
	}

	factory := promauto.With(reg)
	r.metrics.executions = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "flashloan_executions_total",
		Help: "Settlement calls by outcome status",
	}, []string{"status"})
	r.metrics.executionLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "flashloan_execution_latency_seconds",
		Help:    "Time from submission to receipt",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	r.metrics.activeLoans = factory.NewGauge(prometheus.GaugeOpts{
		Name: "flashloan_active_loans",
		Help: "Number of settlement calls in flight",
	})
	r.metrics.successRate = factory.NewGauge(prometheus.GaugeOpts{
		Name: "flashloan_success_rate",
		Help: "Share of submitted settlement calls that confirmed",
	})
	r.metrics.successCount = factory.NewCounter(prometheus.CounterOpts{
		Name: "flashloan_success_count",
		Help: "Number of confirmed settlement calls",
	})
	r.metrics.totalCount = factory.NewCounter(prometheus.CounterOpts{
		Name: "flashloan_total_count",
		Help: "Number of submitted settlement calls",
	})

	return r, nil
}

// Execute submits the settlement call for an evaluation whose decision is to
// execute. The gas limit is the evaluation's estimate plus the configured
// margin, and the gas price is the fee rate the evaluation observed.
func (r *Requester) Execute(ctx context.Context, eval *types.OpportunityEvaluation, params ExecutionParams) *types.ExecutionOutcome {
	if eval == nil || !eval.Execute {
		r.metrics.executions.WithLabelValues(types.OutcomeSkipped.String()).Inc()
		return types.Skipped(ReasonNotProfitable)
	}

	gasLimit := eval.GasEstimate + r.config.GasLimitMargin
	if r.config.DryRun {
		r.logger.Info("Dry run, not sending transaction",
			zap.String("route", eval.Route),
			zap.Uint64("gas_limit", gasLimit),
			zap.String("gas_price", eval.GasPrice.String()))
		r.metrics.executions.WithLabelValues(types.OutcomeSkipped.String()).Inc()
		return types.Skipped(ReasonDryRun)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics.activeLoans.Inc()
	defer r.metrics.activeLoans.Dec()

	start := time.Now()
	outcome := r.submit(ctx, eval, params, gasLimit)
	r.metrics.executionLatency.Observe(time.Since(start).Seconds())
	r.record(outcome)
	return outcome
}

func (r *Requester) submit(ctx context.Context, eval *types.OpportunityEvaluation, params ExecutionParams, gasLimit uint64) *types.ExecutionOutcome {
	r.logger.Info("Sending transaction",
		zap.String("route", eval.Route),
		zap.String("amount", params.Amount.String()),
		zap.Uint64("gas_limit", gasLimit),
		zap.String("gas_price", eval.GasPrice.String()))

	sendCtx, cancel := withTimeout(ctx, r.config.CallTimeout)
	tx, err := r.submitter.Submit(sendCtx, params, gasLimit, eval.GasPrice)
	cancel()
	if err != nil {
		r.logger.Error("Failed to submit transaction",
			zap.String("route", eval.Route),
			zap.Error(err))
		return types.Failed(common.Hash{}, err)
	}

	r.logger.Info("Transaction sent",
		zap.String("route", eval.Route),
		zap.String("tx_hash", tx.Hash().Hex()))

	waitCtx, cancel := withTimeout(ctx, r.config.ConfirmTimeout)
	defer cancel()
	receipt, err := r.submitter.WaitMined(waitCtx, tx)
	if err != nil {
		r.logger.Error("Failed to confirm transaction",
			zap.String("tx_hash", tx.Hash().Hex()),
			zap.Error(err))
		return types.Failed(tx.Hash(), err)
	}

	outcome := &types.ExecutionOutcome{
		TxHash:      tx.Hash(),
		GasUsed:     receipt.GasUsed,
		BlockNumber: receipt.BlockNumber,
	}
	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		outcome.Status = types.OutcomeConfirmed
		r.logger.Info("Transaction confirmed",
			zap.String("tx_hash", tx.Hash().Hex()),
			zap.Uint64("gas_used", receipt.GasUsed))
	} else {
		outcome.Status = types.OutcomeReverted
		outcome.Reason = "execution reverted"
		r.logger.Warn("Transaction reverted",
			zap.String("tx_hash", tx.Hash().Hex()),
			zap.Uint64("gas_used", receipt.GasUsed))
	}
	return outcome
}

func (r *Requester) record(outcome *types.ExecutionOutcome) {
	r.metrics.executions.WithLabelValues(outcome.Status.String()).Inc()
	r.metrics.totalCount.Inc()
	if outcome.Status == types.OutcomeConfirmed {
		r.metrics.successCount.Inc()
	}
	r.updateSuccessRate()
}

// updateSuccessRate updates the success rate metric
func (r *Requester) updateSuccessRate() {
	total := counterValue(r.metrics.totalCount)
	if total > 0 {
		r.metrics.successRate.Set(counterValue(r.metrics.successCount) / total)
	}
}

func counterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil || m.Counter == nil {
		return 0
	}
	return m.Counter.GetValue()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
