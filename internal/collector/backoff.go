package collector

import (
	"sync"
	"time"
)

// Backoff tracks a per-pool retry delay. Rate-limited failures double the
// delay up to a cap, any success resets it to zero, and other failures
// leave it untouched. Safe for concurrent use across pools.
type Backoff struct {
	base time.Duration
	max  time.Duration

	mu     sync.Mutex
	delays map[string]time.Duration
}

// NewBackoff creates a tracker with the given base and maximum delay.
func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if max < base {
		max = base
	}
	return &Backoff{
		base:   base,
		max:    max,
		delays: make(map[string]time.Duration),
	}
}

// RecordSuccess clears the delay for a pool.
func (b *Backoff) RecordSuccess(poolAddress string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[poolAddress] = 0
}

// RecordFailure escalates the delay when the failure was a rate limit and
// returns the delay now in effect.
func (b *Backoff) RecordFailure(poolAddress string, rateLimited bool) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !rateLimited {
		return b.delays[poolAddress]
	}

	current := b.delays[poolAddress]
	if current < b.base {
		current = b.base
	}
	next := current * 2
	if next > b.max {
		next = b.max
	}
	b.delays[poolAddress] = next
	return next
}

// DelayFor returns the delay currently in effect for a pool, zero for pools
// that have never failed.
func (b *Backoff) DelayFor(poolAddress string) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.delays[poolAddress]
}
