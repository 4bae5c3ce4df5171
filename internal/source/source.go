package source

import (
	"context"

	"poolScope/internal/model"
)

// Source provides on-chain pool state. Implementations own their network
// error handling and must return FetchError values so callers can
// distinguish rate limiting from other failures.
type Source interface {
	// PoolState fetches the current state of a pool and returns it as a
	// timestamped snapshot.
	PoolState(ctx context.Context, pool model.Pool) (model.PoolSnapshot, error)

	// TickRange fetches the initialized ticks around currentTick.
	TickRange(ctx context.Context, pool model.Pool, currentTick int32) ([]model.TickSnapshot, error)
}
