package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbbot/dex"
	"github.com/michaelpento.lv/arbbot/flashloan"
	"github.com/michaelpento.lv/arbbot/gas"
	"github.com/michaelpento.lv/arbbot/types"
	"github.com/michaelpento.lv/arbbot/utils/math"
	"github.com/michaelpento.lv/arbbot/utils/metrics"
)

// FeeOracle reports the current network fee rate in wei per gas unit
type FeeOracle interface {
	GasPrice(ctx context.Context) (*big.Int, error)
}

// ExecutionEstimator estimates the gas units a settlement call would use
type ExecutionEstimator interface {
	EstimateExecution(ctx context.Context, params flashloan.ExecutionParams) (uint64, error)
}

// Config holds the evaluator's fixed parameters
type Config struct {
	// MinGrossProfit is the exclusive gross profit threshold below which no
	// cost estimation is attempted
	MinGrossProfit *big.Int
	// CallTimeout bounds each quote, fee rate and gas estimate call
	CallTimeout time.Duration
	// Decimals of the borrowed token, used to render amounts in logs
	Decimals uint8
}

// Evaluator prices a round trip across two venues and decides whether the
// settlement call is worth sending
type Evaluator struct {
	fees      FeeOracle
	estimator ExecutionEstimator
	converter gas.Converter
	config    Config
	metrics   *metrics.EvaluatorMetrics
	logger    *zap.Logger
}

// NewEvaluator creates a new opportunity evaluator. m may be nil.
func NewEvaluator(fees FeeOracle, estimator ExecutionEstimator, converter gas.Converter, cfg Config, m *metrics.EvaluatorMetrics, logger *zap.Logger) (*Evaluator, error) {
	if fees == nil {
		return nil, fmt.Errorf("fee oracle cannot be nil")
	}
	if estimator == nil {
		return nil, fmt.Errorf("execution estimator cannot be nil")
	}
	if converter == nil {
		return nil, fmt.Errorf("fee converter cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.MinGrossProfit == nil {
		cfg.MinGrossProfit = big.NewInt(0)
	}

	return &Evaluator{
		fees:      fees,
		estimator: estimator,
		converter: converter,
		config:    cfg,
		metrics:   m,
		logger:    logger,
	}, nil
}

// Evaluate quotes tradeSize along outbound on source, feeds the amount
// received into destination along ret, and computes the profit of the round
// trip. Costs are only estimated when the gross profit clears the threshold.
//
// Failures of any collaborator are returned as *types.EvaluationError and
// mean there is no opportunity on this ordering for now.
func (e *Evaluator) Evaluate(ctx context.Context, source, destination dex.Exchange, tradeSize *big.Int, outbound, ret types.TokenPath) (*types.OpportunityEvaluation, error) {
	if tradeSize == nil || tradeSize.Sign() <= 0 {
		return nil, fmt.Errorf("trade size must be positive")
	}

	start := time.Now()
	route := dex.RouteID(source, destination, outbound, ret)
	eval, err := e.evaluate(ctx, route, source, destination, tradeSize, outbound, ret)
	e.observe(route, eval, err, time.Since(start))
	return eval, err
}

func (e *Evaluator) evaluate(ctx context.Context, route string, source, destination dex.Exchange, tradeSize *big.Int, outbound, ret types.TokenPath) (*types.OpportunityEvaluation, error) {
	eval := &types.OpportunityEvaluation{
		Route:       route,
		Source:      source.Name(),
		Destination: destination.Name(),
		TradeSize:   new(big.Int).Set(tradeSize),
	}

	outQuote, err := e.quote(ctx, source, tradeSize, outbound)
	if err != nil {
		return nil, &types.EvaluationError{Kind: types.QuoteUnavailable, Venue: source.Name(), Err: err}
	}
	eval.Outbound = outQuote

	retQuote, err := e.quote(ctx, destination, outQuote.Received(), ret)
	if err != nil {
		return nil, &types.EvaluationError{Kind: types.QuoteUnavailable, Venue: destination.Name(), Err: err}
	}
	eval.Return = retQuote

	eval.GrossProfit = new(big.Int).Sub(retQuote.Received(), tradeSize)
	if eval.GrossProfit.Cmp(e.config.MinGrossProfit) <= 0 {
		e.logger.Debug("Gross profit below threshold",
			zap.String("route", route),
			zap.String("gross_profit", e.format(eval.GrossProfit)),
			zap.String("threshold", e.format(e.config.MinGrossProfit)))
		return eval, nil
	}

	e.logger.Info("Opportunity found",
		zap.String("route", route),
		zap.String("trade_size", e.format(tradeSize)),
		zap.String("received", e.format(retQuote.Received())),
		zap.String("gross_profit", e.format(eval.GrossProfit)))

	if err := e.estimateCosts(ctx, eval, source, destination, outbound, ret); err != nil {
		return nil, err
	}

	totalCost := new(big.Int).Add(eval.NetworkFee, eval.BorrowingFee)
	eval.NetProfit = new(big.Int).Sub(eval.GrossProfit, totalCost)
	eval.Execute = eval.NetProfit.Sign() > 0

	if eval.Execute {
		e.logger.Info("Net profit positive",
			zap.String("route", route),
			zap.String("net_profit", e.format(eval.NetProfit)))
	} else {
		e.logger.Info("Net profit not positive, skipping",
			zap.String("route", route),
			zap.String("net_profit", e.format(eval.NetProfit)))
	}

	return eval, nil
}

// estimateCosts fills the network and borrowing fees of eval
func (e *Evaluator) estimateCosts(ctx context.Context, eval *types.OpportunityEvaluation, source, destination dex.Exchange, outbound, ret types.TokenPath) error {
	callCtx, cancel := e.callContext(ctx)
	gasPrice, err := e.fees.GasPrice(callCtx)
	cancel()
	if err != nil {
		return &types.EvaluationError{Kind: types.FeeRateUnavailable, Err: err}
	}

	params := flashloan.NewExecutionParams(source, destination, eval.TradeSize, outbound, ret)
	callCtx, cancel = e.callContext(ctx)
	gasEstimate, err := e.estimator.EstimateExecution(callCtx, params)
	cancel()
	if err != nil {
		return &types.EvaluationError{Kind: types.CostEstimation, Err: fmt.Errorf("failed to estimate gas: %w", err)}
	}

	networkFeeWei := gas.NetworkFee(gasEstimate, gasPrice)
	callCtx, cancel = e.callContext(ctx)
	networkFee, err := e.converter.ToToken(callCtx, networkFeeWei)
	cancel()
	if err != nil {
		return &types.EvaluationError{Kind: types.CostEstimation, Err: fmt.Errorf("failed to convert network fee: %w", err)}
	}

	eval.CostsEstimated = true
	eval.GasPrice = gasPrice
	eval.GasEstimate = gasEstimate
	eval.NetworkFeeWei = networkFeeWei
	eval.NetworkFee = networkFee
	eval.BorrowingFee = flashloan.BorrowingFee(eval.TradeSize)

	e.logger.Info("Estimated execution cost",
		zap.String("route", eval.Route),
		zap.Uint64("gas_estimate", gasEstimate),
		zap.String("gas_price", gasPrice.String()),
		zap.String("network_fee", e.format(networkFee)),
		zap.String("borrowing_fee", e.format(eval.BorrowingFee)))

	return nil
}

func (e *Evaluator) quote(ctx context.Context, exchange dex.Exchange, amountIn *big.Int, path types.TokenPath) (*types.Quote, error) {
	callCtx, cancel := e.callContext(ctx)
	defer cancel()
	return dex.Quote(callCtx, exchange, amountIn, path)
}

func (e *Evaluator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.config.CallTimeout)
}

func (e *Evaluator) format(amount *big.Int) string {
	return math.FormatUnits(amount, e.config.Decimals)
}

func (e *Evaluator) observe(route string, eval *types.OpportunityEvaluation, err error, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.EvaluationLatency.Observe(elapsed.Seconds())

	if err != nil {
		e.metrics.Evaluations.WithLabelValues(route, metrics.ResultError).Inc()
		var evalErr *types.EvaluationError
		if errors.As(err, &evalErr) {
			e.metrics.EvaluationErrors.WithLabelValues(evalErr.Kind.String(), evalErr.Venue).Inc()
		}
		return
	}

	e.metrics.GrossProfit.WithLabelValues(route).Set(metrics.TokenAmount(eval.GrossProfit, e.config.Decimals))
	switch {
	case !eval.CostsEstimated:
		e.metrics.Evaluations.WithLabelValues(route, metrics.ResultBelowThreshold).Inc()
		return
	case eval.Execute:
		e.metrics.Evaluations.WithLabelValues(route, metrics.ResultProfitable).Inc()
	default:
		e.metrics.Evaluations.WithLabelValues(route, metrics.ResultUnprofitable).Inc()
	}
	e.metrics.NetProfit.WithLabelValues(route).Set(metrics.TokenAmount(eval.NetProfit, e.config.Decimals))
	e.metrics.GasEstimate.Observe(float64(eval.GasEstimate))
	e.metrics.GasPrice.Set(metrics.TokenAmount(eval.GasPrice, 9))
}
