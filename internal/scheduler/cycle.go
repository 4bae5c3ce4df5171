package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/collector"
	"poolScope/internal/storage"
)

// cycleStats summarizes one collection cycle. It exists for logging only
// and is discarded after the cycle.
type cycleStats struct {
	pools    int
	fetched  int
	stored   int
	ticks    int
	duration time.Duration
}

// runCycle collects all pools once and persists the results. The stop
// channel halts further batches between batch boundaries while in-flight
// fetches and the persistence of everything already fetched still complete
// under ctx. Each pool's persistence is independent: a sink failure for one
// pool is logged and does not block the others. The returned stats report
// how many snapshots were stored.
func runCycle(ctx context.Context, stop <-chan struct{}, c *collector.Collector, sink storage.Sink, logger *zap.Logger) (cycleStats, error) {
	start := time.Now()

	results, err := c.Collect(ctx, stop)
	if err != nil {
		return cycleStats{}, err
	}

	stats := cycleStats{
		pools:   len(c.Pools()),
		fetched: len(results),
	}

	for _, result := range results {
		if err := sink.UpsertPoolAndPrice(ctx, result.Snapshot); err != nil {
			logger.Error("store pool snapshot failed",
				zap.String("pool", result.Pool.Address),
				zap.Error(err),
			)
			continue
		}
		stats.stored++

		if err := sink.UpsertTicks(ctx, result.Ticks); err != nil {
			logger.Error("store ticks failed",
				zap.String("pool", result.Pool.Address),
				zap.Int("ticks", len(result.Ticks)),
				zap.Error(err),
			)
			continue
		}
		stats.ticks += len(result.Ticks)
	}

	stats.duration = time.Since(start)
	logger.Info("cycle complete",
		zap.Int("pools", stats.pools),
		zap.Int("fetched", stats.fetched),
		zap.Int("stored", stats.stored),
		zap.Int("ticks", stats.ticks),
		zap.Duration("duration", stats.duration),
	)

	return stats, nil
}
