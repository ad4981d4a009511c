package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// CycleRunner runs one arbitrage cycle
type CycleRunner interface {
	RunCycle(ctx context.Context) []OrderingResult
}

// Scheduler runs a cycle immediately and then once per interval. Cycles run
// on a single goroutine, so they never overlap; ticks that arrive while a
// cycle is running are dropped by the ticker.
type Scheduler struct {
	runner   CycleRunner
	interval time.Duration
	logger   *zap.Logger
	ready    atomic.Bool
	cycles   atomic.Uint64
}

func NewScheduler(runner CycleRunner, interval time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("cycle runner cannot be nil")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting scheduler", zap.Duration("interval", s.interval))

	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped", zap.Uint64("cycles", s.cycles.Load()))
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// Ready reports whether at least one cycle has completed
func (s *Scheduler) Ready() bool {
	return s.ready.Load()
}

// Cycles returns the number of completed cycles
func (s *Scheduler) Cycles() uint64 {
	return s.cycles.Load()
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	results := s.runner.RunCycle(ctx)
	s.cycles.Add(1)
	s.ready.Store(true)

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	s.logger.Debug("Cycle complete",
		zap.Int("orderings", len(results)),
		zap.Int("failed", failed))
}
