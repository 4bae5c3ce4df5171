package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"poolScope/internal/model"
	"poolScope/internal/source"
)

// Result is one pool's successful collection for a cycle.
type Result struct {
	Pool     model.Pool
	Snapshot model.PoolSnapshot
	Ticks    []model.TickSnapshot
}

// Config holds collector settings.
type Config struct {
	BatchSize int
}

// Collector fetches pool and tick state for a fixed set of pools in
// bounded concurrent batches. Batch N+1 never starts before batch N has
// fully completed, which caps in-flight requests at BatchSize.
type Collector struct {
	cfg     Config
	pools   []model.Pool
	src     source.Source
	backoff *Backoff
	logger  *zap.Logger
}

// New builds a Collector over a fixed pool set.
func New(cfg Config, pools []model.Pool, src source.Source, backoff *Backoff, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		cfg:     cfg,
		pools:   pools,
		src:     src,
		backoff: backoff,
		logger:  logger,
	}
}

// Collect runs one cycle across all pools and returns the successful
// results. Per-pool failures are recorded against the backoff tracker and
// logged; they never fail the cycle. Only an unusable configuration
// (batch size) is returned as an error. The stop channel and the context
// are observed between batches and during backoff waits only: closing stop
// halts further batches while in-flight fetches run to completion under
// their own, still-live context. A nil stop channel is never ready.
func (c *Collector) Collect(ctx context.Context, stop <-chan struct{}) ([]Result, error) {
	batches, err := SplitBatches(c.pools, c.cfg.BatchSize)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results []Result
	)

	for i, batch := range batches {
		select {
		case <-ctx.Done():
			c.logger.Info("collection interrupted", zap.Int("batches_done", i), zap.Int("batches_total", len(batches)))
			return results, nil
		case <-stop:
			c.logger.Info("collection interrupted", zap.Int("batches_done", i), zap.Int("batches_total", len(batches)))
			return results, nil
		default:
		}

		var wg sync.WaitGroup
		for _, pool := range batch {
			wg.Add(1)
			go func(pool model.Pool) {
				defer wg.Done()

				result, ok := c.collectPool(ctx, stop, pool)
				if !ok {
					return
				}

				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}(pool)
		}
		wg.Wait()
	}

	return results, nil
}

// Pools returns the tracked pool set.
func (c *Collector) Pools() []model.Pool {
	return c.pools
}

func (c *Collector) collectPool(ctx context.Context, stop <-chan struct{}, pool model.Pool) (Result, bool) {
	if delay := c.backoff.DelayFor(pool.Address); delay > 0 {
		c.logger.Debug("backoff wait", zap.String("pool", pool.Address), zap.Duration("delay", delay))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{}, false
		case <-stop:
			timer.Stop()
			return Result{}, false
		case <-timer.C:
		}
	}

	snapshot, err := c.src.PoolState(ctx, pool)
	if err != nil {
		c.recordFailure(pool, "pool state", err)
		return Result{}, false
	}

	ticks, err := c.src.TickRange(ctx, pool, snapshot.CurrentTick)
	if err != nil {
		c.recordFailure(pool, "tick range", err)
		return Result{}, false
	}

	c.backoff.RecordSuccess(pool.Address)
	return Result{Pool: pool, Snapshot: snapshot, Ticks: ticks}, true
}

func (c *Collector) recordFailure(pool model.Pool, op string, err error) {
	if source.IsRateLimited(err) {
		delay := c.backoff.RecordFailure(pool.Address, true)
		c.logger.Warn("pool rate limited",
			zap.String("pool", pool.Address),
			zap.String("pair", pool.Pair),
			zap.String("op", op),
			zap.Duration("next_delay", delay),
		)
		return
	}

	c.backoff.RecordFailure(pool.Address, false)
	c.logger.Error("pool fetch failed",
		zap.String("pool", pool.Address),
		zap.String("pair", pool.Pair),
		zap.String("op", op),
		zap.Error(err),
	)
}
