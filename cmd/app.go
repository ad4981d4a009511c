package cmd

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/michaelpento.lv/arbbot/cmd/bot"
	"github.com/michaelpento.lv/arbbot/config"
	"github.com/michaelpento.lv/arbbot/dex"
	"github.com/michaelpento.lv/arbbot/flashloan"
	"github.com/michaelpento.lv/arbbot/flashloan/aave"
	"github.com/michaelpento.lv/arbbot/gas"
	"github.com/michaelpento.lv/arbbot/simulator"
	"github.com/michaelpento.lv/arbbot/strategies/arbitrage"
	"github.com/michaelpento.lv/arbbot/utils/metrics"
)

const metricsNamespace = "arbbot"

// app holds everything built from the configuration at startup
type app struct {
	client   *ethclient.Client
	registry *prometheus.Registry
	bot      *bot.Bot
	decimals uint8
	symbol   string
}

// newApp connects to the node and wires the bot. Every failure here is a
// configuration or connectivity problem and is fatal.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to node: %w", err)
	}

	a, err := wire(ctx, client, cfg, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, client *ethclient.Client, cfg *config.Config, logger *zap.Logger) (*app, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if chainID.Uint64() != cfg.ChainID {
		return nil, fmt.Errorf("node is on chain %d, expected %d", chainID.Uint64(), cfg.ChainID)
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.RPCRateLimit.RequestsPerSecond), cfg.RPCRateLimit.BurstSize)

	tokens, err := dex.NewTokenRegistry(client, cfg.TokenCacheSize)
	if err != nil {
		return nil, err
	}
	decimals, symbol := cfg.BorrowToken.Decimals, cfg.BorrowToken.Symbol
	if info, err := tokens.Lookup(ctx, common.HexToAddress(cfg.BorrowToken.Address)); err != nil {
		logger.Warn("Failed to read borrow token metadata, using configured values",
			zap.Uint8("decimals", decimals),
			zap.Error(err))
	} else {
		decimals, symbol = info.Decimals, info.Symbol
	}

	params, err := cfg.Params(decimals)
	if err != nil {
		return nil, err
	}

	venues := make([]dex.Exchange, 0, len(cfg.Venues))
	for _, v := range cfg.Venues {
		var router common.Address
		if v.Router != "" {
			router = common.HexToAddress(v.Router)
		}
		venue, err := dex.NewVenue(v.Name, router, client, limiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create venue %s: %w", v.Name, err)
		}
		venues = append(venues, venue)
	}

	converter, err := newConverter(cfg, params, venues[0])
	if err != nil {
		return nil, err
	}

	key, err := cfg.SigningKey()
	if err != nil {
		return nil, err
	}
	contract, err := flashloan.NewContract(cfg.Settlement(), client, key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create settlement contract: %w", err)
	}

	sim, err := simulator.NewSimulator(client, contract.Address(), contract.From(), logger)
	if err != nil {
		return nil, err
	}

	if cfg.LendingPool != "" {
		pool, err := aave.NewPool(client, common.HexToAddress(cfg.LendingPool), logger)
		if err != nil {
			return nil, err
		}
		pool.CheckPremium(ctx)
	}

	registry := metrics.NewRegistry()

	evaluator, err := arbitrage.NewEvaluator(
		gas.NewEstimator(client, params.MaxGasPrice, logger),
		sim,
		converter,
		arbitrage.Config{
			MinGrossProfit: params.MinGrossProfit,
			CallTimeout:    cfg.CallTimeout,
			Decimals:       decimals,
		},
		metrics.NewEvaluatorMetrics(registry, metricsNamespace),
		logger,
	)
	if err != nil {
		return nil, err
	}

	requester, err := flashloan.NewRequester(contract, flashloan.RequesterConfig{
		GasLimitMargin: cfg.GasLimitMargin,
		CallTimeout:    cfg.CallTimeout,
		ConfirmTimeout: cfg.ConfirmTimeout,
		DryRun:         cfg.DryRun,
	}, registry, logger)
	if err != nil {
		return nil, err
	}

	b, err := bot.New(venues[0], venues[1], evaluator, requester, bot.Config{
		TradeSize: params.TradeSize,
		Outbound:  cfg.OutboundPath(),
		Return:    cfg.ReturnPath(),
		Decimals:  decimals,
		Symbol:    symbol,
	}, metrics.NewCycleMetrics(registry, metricsNamespace), logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Bot configured",
		zap.Uint64("chain_id", cfg.ChainID),
		zap.String("signer", contract.From().Hex()),
		zap.String("contract", contract.Address().Hex()),
		zap.String("venue_a", venues[0].Name()),
		zap.String("venue_b", venues[1].Name()),
		zap.String("token", symbol),
		zap.Bool("dry_run", cfg.DryRun))

	return &app{
		client:   client,
		registry: registry,
		bot:      b,
		decimals: decimals,
		symbol:   symbol,
	}, nil
}

// newConverter prices the network fee in borrowed-token units, from the
// configured native token price or from a live quote on the first venue
func newConverter(cfg *config.Config, params *config.Params, venue dex.Exchange) (gas.Converter, error) {
	if params.NativePrice != nil {
		fixed, err := gas.NewFixedRate(params.NativePrice)
		if err != nil {
			return nil, fmt.Errorf("invalid native_price: %w", err)
		}
		return fixed, nil
	}

	route, err := cfg.NativePriceRoute()
	if err != nil {
		return nil, err
	}
	quoted, err := gas.NewQuotedRate(venue, route)
	if err != nil {
		return nil, err
	}
	return quoted, nil
}

func (a *app) Close() {
	a.client.Close()
}

// logSnapshot summarizes the counters collected during the run
func (a *app) logSnapshot(logger *zap.Logger) {
	counters, err := metrics.Snapshot(a.registry)
	if err != nil {
		logger.Warn("Failed to summarize metrics", zap.Error(err))
		return
	}

	fields := make([]zap.Field, 0, len(counters))
	for name, value := range counters {
		fields = append(fields, zap.Float64(name, value))
	}
	logger.Info("Run summary", fields...)
}
