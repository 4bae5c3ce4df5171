package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"poolScope/internal/model"
	"poolScope/internal/source"
)

// fakeSource records fetch timing and returns configured errors.
type fakeSource struct {
	fetchDelay time.Duration
	stateErrs  map[string]error
	tickErrs   map[string]error

	mu          sync.Mutex
	inflight    int
	maxInflight int
	starts      map[string]time.Time
	ends        map[string]time.Time
}

func newFakeSource(fetchDelay time.Duration) *fakeSource {
	return &fakeSource{
		fetchDelay: fetchDelay,
		stateErrs:  make(map[string]error),
		tickErrs:   make(map[string]error),
		starts:     make(map[string]time.Time),
		ends:       make(map[string]time.Time),
	}
}

func (f *fakeSource) PoolState(_ context.Context, pool model.Pool) (model.PoolSnapshot, error) {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	f.starts[pool.Address] = time.Now()
	f.mu.Unlock()

	time.Sleep(f.fetchDelay)

	f.mu.Lock()
	f.inflight--
	f.ends[pool.Address] = time.Now()
	err := f.stateErrs[pool.Address]
	f.mu.Unlock()

	if err != nil {
		return model.PoolSnapshot{}, err
	}
	return model.PoolSnapshot{
		TakenAt:     time.Now().UTC(),
		PoolAddress: pool.Address,
		Pair:        pool.Pair,
		Price:       decimal.NewFromFloat(1.23),
	}, nil
}

func (f *fakeSource) TickRange(_ context.Context, pool model.Pool, _ int32) ([]model.TickSnapshot, error) {
	f.mu.Lock()
	err := f.tickErrs[pool.Address]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return []model.TickSnapshot{{PoolAddress: pool.Address, TickIndex: 0}}, nil
}

func rateLimitErr() error {
	return &source.FetchError{Kind: source.KindRateLimited, Err: errors.New("429 too many requests")}
}

func TestCollectBatchConcurrencyBound(t *testing.T) {
	pools := makePools(5)
	src := newFakeSource(20 * time.Millisecond)
	backoff := NewBackoff(time.Millisecond, time.Second)
	c := New(Config{BatchSize: 3}, pools, src, backoff, zap.NewNop())

	results, err := c.Collect(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("results = %d, want 5", len(results))
	}
	if src.maxInflight > 3 {
		t.Fatalf("max inflight = %d, want <= 3", src.maxInflight)
	}

	// Batch {A,B,C} must fully complete before {D,E} starts.
	var firstBatchEnd time.Time
	for _, addr := range []string{"A", "B", "C"} {
		if end := src.ends[addr]; end.After(firstBatchEnd) {
			firstBatchEnd = end
		}
	}
	for _, addr := range []string{"D", "E"} {
		if src.starts[addr].Before(firstBatchEnd) {
			t.Fatalf("pool %s started at %v before first batch ended at %v", addr, src.starts[addr], firstBatchEnd)
		}
	}
}

func TestCollectRateLimitedPoolSkipped(t *testing.T) {
	pools := []model.Pool{
		{Address: "P1", Pair: "SOL/USDC"},
		{Address: "P2", Pair: "SOL/USDT"},
	}
	src := newFakeSource(0)
	src.stateErrs["P2"] = rateLimitErr()

	base := 100 * time.Millisecond
	backoff := NewBackoff(base, time.Minute)
	c := New(Config{BatchSize: 2}, pools, src, backoff, zap.NewNop())

	results, err := c.Collect(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 || results[0].Pool.Address != "P1" {
		t.Fatalf("results = %+v, want only P1", results)
	}
	if got := backoff.DelayFor("P1"); got != 0 {
		t.Fatalf("P1 delay = %v, want 0", got)
	}
	if got := backoff.DelayFor("P2"); got != 2*base {
		t.Fatalf("P2 delay = %v, want %v", got, 2*base)
	}
}

func TestCollectTransientFailureLeavesBackoffAlone(t *testing.T) {
	pools := []model.Pool{{Address: "P1"}}
	src := newFakeSource(0)
	src.stateErrs["P1"] = &source.FetchError{Kind: source.KindTransient, Err: errors.New("connection reset")}

	backoff := NewBackoff(100*time.Millisecond, time.Minute)
	c := New(Config{BatchSize: 1}, pools, src, backoff, zap.NewNop())

	results, err := c.Collect(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %d, want 0", len(results))
	}
	if got := backoff.DelayFor("P1"); got != 0 {
		t.Fatalf("P1 delay = %v, want 0 after transient failure", got)
	}
}

func TestCollectTickFailureDropsPool(t *testing.T) {
	pools := []model.Pool{{Address: "P1"}}
	src := newFakeSource(0)
	src.tickErrs["P1"] = rateLimitErr()

	backoff := NewBackoff(100*time.Millisecond, time.Minute)
	c := New(Config{BatchSize: 1}, pools, src, backoff, zap.NewNop())

	results, err := c.Collect(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %d, want 0", len(results))
	}
	if got := backoff.DelayFor("P1"); got == 0 {
		t.Fatalf("P1 delay = 0, want escalated after rate-limited tick fetch")
	}
}

func TestCollectWaitsOutBackoffDelay(t *testing.T) {
	pools := []model.Pool{{Address: "P1"}}
	src := newFakeSource(0)

	backoff := NewBackoff(30*time.Millisecond, time.Second)
	backoff.RecordFailure("P1", true) // delay now 60ms

	c := New(Config{BatchSize: 1}, pools, src, backoff, zap.NewNop())

	start := time.Now()
	if _, err := c.Collect(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if waited := src.starts["P1"].Sub(start); waited < 60*time.Millisecond {
		t.Fatalf("fetch started after %v, want >= 60ms backoff wait", waited)
	}
}

func TestCollectInvalidBatchSize(t *testing.T) {
	c := New(Config{BatchSize: 0}, makePools(2), newFakeSource(0), NewBackoff(0, 0), zap.NewNop())
	if _, err := c.Collect(context.Background(), nil); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestCollectStopSignalHaltsFurtherBatches(t *testing.T) {
	src := newFakeSource(40 * time.Millisecond)
	c := New(Config{BatchSize: 2}, makePools(4), src, NewBackoff(0, 0), zap.NewNop())

	stop := make(chan struct{})
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(stop)
	}()

	results, err := c.Collect(context.Background(), stop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The first batch runs to completion, the second is never issued.
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (first batch only)", len(results))
	}
	if got := len(src.starts); got != 2 {
		t.Fatalf("fetches issued = %d, want 2", got)
	}
	for _, addr := range []string{"A", "B"} {
		if src.ends[addr].IsZero() {
			t.Fatalf("pool %s fetch did not run to completion", addr)
		}
	}
}

func TestCollectCancelledContextStopsNewBatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := newFakeSource(0)
	c := New(Config{BatchSize: 2}, makePools(4), src, NewBackoff(0, 0), zap.NewNop())

	results, err := c.Collect(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("results = %d, want 0 with pre-cancelled context", len(results))
	}
	if len(src.starts) != 0 {
		t.Fatalf("fetches issued = %d, want 0", len(src.starts))
	}
}
