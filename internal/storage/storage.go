package storage

import (
	"context"
	"time"

	"poolScope/internal/model"
)

// Sink persists collected snapshots keyed by their natural primary key.
// Re-submitting a record with an existing key must overwrite, never
// duplicate.
type Sink interface {
	// EnsureSchema creates tables if they do not exist. Idempotent.
	EnsureSchema(ctx context.Context) error

	// UpsertPoolAndPrice writes a pool snapshot and its derived price row
	// as a single atomic unit.
	UpsertPoolAndPrice(ctx context.Context, snapshot model.PoolSnapshot) error

	// UpsertTicks writes tick snapshots. An empty slice is a no-op.
	UpsertTicks(ctx context.Context, ticks []model.TickSnapshot) error

	// LatestPrices returns the most recent stored price per pool.
	LatestPrices(ctx context.Context) ([]model.PricePoint, error)

	// History returns stored snapshots for a pool in [from, to], oldest
	// first.
	History(ctx context.Context, poolAddress string, from, to time.Time) ([]model.PoolSnapshot, error)

	// Close releases the connection pool.
	Close()
}
