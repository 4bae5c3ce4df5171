package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/collector"
	"poolScope/internal/storage"
)

// State is the scheduler lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Config holds fixed-period scheduler settings.
type Config struct {
	// FetchInterval is the target period between cycle starts. A cycle
	// shorter than the interval waits out the remainder; a longer one
	// starts the next cycle immediately.
	FetchInterval time.Duration
}

// Scheduler drives collection cycles at a fixed period. The effective
// period is measured from cycle start, so fetch duration does not stretch
// the cadence. Exactly one Run may be active at a time; Stop is observed
// between batches, never mid-fetch.
type Scheduler struct {
	cfg       Config
	collector *collector.Collector
	sink      storage.Sink
	logger    *zap.Logger

	state     atomic.Int32
	stopCh    chan struct{}
	closeOnce sync.Once
}

// New builds a fixed-period scheduler.
func New(cfg Config, c *collector.Collector, sink storage.Sink, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:       cfg,
		collector: c,
		sink:      sink,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run executes the collection loop until Stop is called or ctx is
// cancelled, then releases the sink and returns. Calling Run while already
// running logs and returns immediately. A schema setup failure or a
// collector error is fatal and ends the loop. A Scheduler is single-use:
// once stopped it cannot be restarted.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		s.logger.Warn("scheduler already running", zap.String("state", s.State().String()))
		return nil
	}
	defer func() {
		s.release()
		s.state.Store(int32(StateStopped))
	}()

	if s.cfg.FetchInterval <= 0 {
		return fmt.Errorf("fetch interval must be positive")
	}
	if err := s.sink.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	s.logger.Info("scheduler start", zap.Duration("fetch_interval", s.cfg.FetchInterval))

	for s.running(ctx) {
		cycleStart := time.Now()

		if _, err := runCycle(ctx, s.stopCh, s.collector, s.sink, s.logger); err != nil {
			return fmt.Errorf("collection cycle: %w", err)
		}

		if remaining := s.cfg.FetchInterval - time.Since(cycleStart); remaining > 0 {
			if !s.wait(ctx, remaining) {
				break
			}
		}
	}

	s.logger.Info("scheduler stopped")
	return nil
}

// Stop requests termination. The in-flight batch completes and its results
// are stored; no further batches are issued. Safe to call more than once.
func (s *Scheduler) Stop() {
	if s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		close(s.stopCh)
	}
}

func (s *Scheduler) running(ctx context.Context) bool {
	return s.State() == StateRunning && ctx.Err() == nil
}

// wait sleeps for d and reports whether the loop should continue.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Scheduler) release() {
	s.closeOnce.Do(func() {
		s.sink.Close()
	})
}
