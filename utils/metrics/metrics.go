package metrics

import (
	"fmt"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Evaluation results used as metric label values
const (
	ResultBelowThreshold = "below_threshold"
	ResultUnprofitable   = "unprofitable"
	ResultProfitable     = "profitable"
	ResultError          = "error"
)

// NewRegistry returns a registry carrying the Go runtime and process
// collectors alongside the bot's own metrics
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

type EvaluatorMetrics struct {
	Evaluations       *prometheus.CounterVec
	EvaluationErrors  *prometheus.CounterVec
	EvaluationLatency prometheus.Histogram
	GrossProfit       *prometheus.GaugeVec
	NetProfit         *prometheus.GaugeVec
	GasPrice          prometheus.Gauge
	GasEstimate       prometheus.Histogram
}

func NewEvaluatorMetrics(reg prometheus.Registerer, namespace string) *EvaluatorMetrics {
	factory := promauto.With(reg)
	return &EvaluatorMetrics{
		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total number of route evaluations by result",
		}, []string{"route", "result"}),
		EvaluationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluation_errors_total",
			Help:      "Total number of failed evaluations by stage and venue",
		}, []string{"kind", "venue"}),
		EvaluationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_latency_seconds",
			Help:      "Time taken to evaluate one route",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		GrossProfit: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gross_profit_tokens",
			Help:      "Last gross profit per route in borrowed token units",
		}, []string{"route"}),
		NetProfit: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "net_profit_tokens",
			Help:      "Last net profit per route in borrowed token units",
		}, []string{"route"}),
		GasPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gas_price_gwei",
			Help:      "Last observed network fee rate",
		}),
		GasEstimate: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gas_estimate",
			Help:      "Gas units estimated for the settlement call",
			Buckets:   prometheus.ExponentialBuckets(100000, 1.5, 10),
		}),
	}
}

type CycleMetrics struct {
	Cycles        prometheus.Counter
	CycleDuration prometheus.Histogram
	LastCycle     prometheus.Gauge
}

func NewCycleMetrics(reg prometheus.Registerer, namespace string) *CycleMetrics {
	factory := promauto.With(reg)
	return &CycleMetrics{
		Cycles: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of completed cycles",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time taken to run one cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		LastCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time the last cycle completed",
		}),
	}
}

// TokenAmount converts a raw token amount into a float in whole tokens,
// for use as a gauge value
func TokenAmount(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), scale).Float64()
	return value
}

// Snapshot gathers every counter from g and sums it across label sets,
// keyed by metric name
func Snapshot(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	totals := make(map[string]float64)
	for _, family := range families {
		if family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		var sum float64
		for _, m := range family.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		totals[family.GetName()] = sum
	}
	return totals, nil
}
