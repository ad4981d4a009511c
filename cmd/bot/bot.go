package bot

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbbot/dex"
	"github.com/michaelpento.lv/arbbot/flashloan"
	"github.com/michaelpento.lv/arbbot/types"
	"github.com/michaelpento.lv/arbbot/utils/math"
	"github.com/michaelpento.lv/arbbot/utils/metrics"
)

// OpportunityEvaluator prices one venue ordering
type OpportunityEvaluator interface {
	Evaluate(ctx context.Context, source, destination dex.Exchange, tradeSize *big.Int, outbound, ret types.TokenPath) (*types.OpportunityEvaluation, error)
}

// ExecutionRequester sends the settlement call for a profitable evaluation
type ExecutionRequester interface {
	Execute(ctx context.Context, eval *types.OpportunityEvaluation, params flashloan.ExecutionParams) *types.ExecutionOutcome
}

// Config holds the route the bot trades
type Config struct {
	TradeSize *big.Int
	Outbound  types.TokenPath
	Return    types.TokenPath
	Decimals  uint8
	Symbol    string
}

// OrderingResult is what one venue ordering produced during a cycle. Err is
// set when the ordering could not be evaluated; Outcome is set only when an
// execution was requested.
type OrderingResult struct {
	Source      string
	Destination string
	Evaluation  *types.OpportunityEvaluation
	Outcome     *types.ExecutionOutcome
	Err         error
}

// Bot runs arbitrage cycles over a pair of venues
type Bot struct {
	venueA    dex.Exchange
	venueB    dex.Exchange
	evaluator OpportunityEvaluator
	requester ExecutionRequester
	config    Config
	metrics   *metrics.CycleMetrics
	logger    *zap.Logger
}

// New creates a new bot instance. m may be nil.
func New(venueA, venueB dex.Exchange, evaluator OpportunityEvaluator, requester ExecutionRequester, cfg Config, m *metrics.CycleMetrics, logger *zap.Logger) (*Bot, error) {
	if venueA == nil || venueB == nil {
		return nil, fmt.Errorf("both venues must be specified")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}
	if requester == nil {
		return nil, fmt.Errorf("requester cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if cfg.TradeSize == nil || cfg.TradeSize.Sign() <= 0 {
		return nil, fmt.Errorf("trade size must be positive")
	}
	if err := cfg.Outbound.Validate(); err != nil {
		return nil, fmt.Errorf("invalid outbound path: %w", err)
	}
	if err := cfg.Return.Validate(); err != nil {
		return nil, fmt.Errorf("invalid return path: %w", err)
	}
	if cfg.Outbound.First() != cfg.Return.Last() {
		return nil, fmt.Errorf("return path must end with the borrowed token %s", cfg.Outbound.First().Hex())
	}

	return &Bot{
		venueA:    venueA,
		venueB:    venueB,
		evaluator: evaluator,
		requester: requester,
		config:    cfg,
		metrics:   m,
		logger:    logger,
	}, nil
}

// RunCycle evaluates venue A into venue B, then venue B into venue A. The
// orderings run one after the other and a failure in one never stops the
// other. Nothing is carried over between cycles.
func (b *Bot) RunCycle(ctx context.Context) []OrderingResult {
	start := time.Now()
	logger := b.logger.With(zap.String("cycle", uuid.NewString()))
	logger.Debug("Checking for arbitrage opportunities",
		zap.String("trade_size", math.FormatUnits(b.config.TradeSize, b.config.Decimals)),
		zap.String("token", b.config.Symbol))

	orderings := [][2]dex.Exchange{
		{b.venueA, b.venueB},
		{b.venueB, b.venueA},
	}

	results := make([]OrderingResult, 0, len(orderings))
	for _, o := range orderings {
		if err := ctx.Err(); err != nil {
			results = append(results, OrderingResult{Source: o[0].Name(), Destination: o[1].Name(), Err: err})
			continue
		}
		results = append(results, b.runOrdering(ctx, logger, o[0], o[1]))
	}

	if b.metrics != nil {
		b.metrics.Cycles.Inc()
		b.metrics.CycleDuration.Observe(time.Since(start).Seconds())
		b.metrics.LastCycle.SetToCurrentTime()
	}
	return results
}

func (b *Bot) runOrdering(ctx context.Context, logger *zap.Logger, source, destination dex.Exchange) OrderingResult {
	result := OrderingResult{Source: source.Name(), Destination: destination.Name()}
	logger = logger.With(zap.String("source", source.Name()), zap.String("destination", destination.Name()))

	eval, err := b.evaluator.Evaluate(ctx, source, destination, b.config.TradeSize, b.config.Outbound, b.config.Return)
	if err != nil {
		logger.Debug("No opportunity", zap.Error(err))
		result.Err = err
		return result
	}
	result.Evaluation = eval

	if !eval.Execute {
		return result
	}

	params := flashloan.NewExecutionParams(source, destination, b.config.TradeSize, b.config.Outbound, b.config.Return)
	outcome := b.requester.Execute(ctx, eval, params)
	result.Outcome = outcome
	b.logOutcome(logger.With(zap.String("route", eval.Route)), outcome)
	return result
}

func (b *Bot) logOutcome(logger *zap.Logger, outcome *types.ExecutionOutcome) {
	switch outcome.Status {
	case types.OutcomeConfirmed:
		logger.Info("Transaction confirmed",
			zap.String("tx_hash", outcome.TxHash.Hex()),
			zap.Uint64("gas_used", outcome.GasUsed))
	case types.OutcomeReverted:
		logger.Warn("Transaction reverted",
			zap.String("tx_hash", outcome.TxHash.Hex()),
			zap.String("reason", outcome.Reason))
	case types.OutcomeFailed:
		logger.Error("Transaction failed",
			zap.String("tx_hash", outcome.TxHash.Hex()),
			zap.Error(outcome.Err))
	default:
		logger.Info("Execution skipped", zap.String("reason", outcome.Reason))
	}
}
