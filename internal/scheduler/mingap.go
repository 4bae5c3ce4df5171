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

// MinGapConfig holds minimum-gap scheduler settings.
type MinGapConfig struct {
	// TickInterval is the timer cadence.
	TickInterval time.Duration

	// MinGap is the minimum time since the last successful cycle before a
	// tick is allowed to collect. Ticks arriving earlier are skipped
	// outright, without rescheduling.
	MinGap time.Duration
}

// MinGapScheduler collects on a timer but skips any tick that arrives less
// than MinGap after the last successful cycle. Unlike Scheduler it never
// waits out a remainder: a too-early tick performs zero fetches. A cycle
// counts as successful only when it stored at least one snapshot.
type MinGapScheduler struct {
	cfg       MinGapConfig
	collector *collector.Collector
	sink      storage.Sink
	logger    *zap.Logger

	state     atomic.Int32
	stopCh    chan struct{}
	closeOnce sync.Once

	// lastSuccess is touched only by the run loop.
	lastSuccess time.Time

	// now is swapped in tests.
	now func() time.Time
}

// NewMinGap builds a minimum-gap scheduler.
func NewMinGap(cfg MinGapConfig, c *collector.Collector, sink storage.Sink, logger *zap.Logger) *MinGapScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MinGapScheduler{
		cfg:       cfg,
		collector: c,
		sink:      sink,
		logger:    logger,
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
}

// State returns the current lifecycle state.
func (s *MinGapScheduler) State() State {
	return State(s.state.Load())
}

// Run executes the tick loop until Stop is called or ctx is cancelled,
// then releases the sink and returns. The first collection happens
// immediately. Calling Run while already running logs and returns. Like
// Scheduler, a MinGapScheduler is single-use.
func (s *MinGapScheduler) Run(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateStopped), int32(StateRunning)) {
		s.logger.Warn("scheduler already running", zap.String("state", s.State().String()))
		return nil
	}
	defer func() {
		s.closeOnce.Do(s.sink.Close)
		s.state.Store(int32(StateStopped))
	}()

	if s.cfg.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if err := s.sink.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	s.logger.Info("min-gap scheduler start",
		zap.Duration("tick_interval", s.cfg.TickInterval),
		zap.Duration("min_gap", s.cfg.MinGap),
	)

	if err := s.tick(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("min-gap scheduler stopped")
			return nil
		case <-s.stopCh:
			s.logger.Info("min-gap scheduler stopped")
			return nil
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				return err
			}
		}
	}
}

// Stop requests termination. Safe to call more than once.
func (s *MinGapScheduler) Stop() {
	if s.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		close(s.stopCh)
	}
}

// tick runs one collection unless the minimum gap has not yet elapsed.
func (s *MinGapScheduler) tick(ctx context.Context) error {
	if gap := s.now().Sub(s.lastSuccess); !s.lastSuccess.IsZero() && gap < s.cfg.MinGap {
		s.logger.Debug("tick skipped",
			zap.Duration("since_last_success", gap),
			zap.Duration("min_gap", s.cfg.MinGap),
		)
		return nil
	}

	stats, err := runCycle(ctx, s.stopCh, s.collector, s.sink, s.logger)
	if err != nil {
		return fmt.Errorf("collection cycle: %w", err)
	}
	if stats.stored > 0 {
		s.lastSuccess = s.now()
	}
	return nil
}
