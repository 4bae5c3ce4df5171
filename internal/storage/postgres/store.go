package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolScope/internal/model"
)

// Store provides Postgres/TimescaleDB persistence for snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects a pgx pool and verifies the connection.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates tables if missing, converting them to hypertables
// when the timescaledb extension is available.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	var hasTimescale bool
	row := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')`)
	if err := row.Scan(&hasTimescale); err != nil {
		return fmt.Errorf("check timescaledb extension: %w", err)
	}
	if !hasTimescale {
		return nil
	}

	for _, stmt := range hypertableStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create hypertable: %w", err)
		}
	}
	return nil
}

// UpsertPoolAndPrice writes the snapshot row and its derived price row in
// one transaction.
func (s *Store) UpsertPoolAndPrice(ctx context.Context, snapshot model.PoolSnapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO pool_snapshots (
			taken_at, pool_address, pair, liquidity, sqrt_price, current_tick,
			price, amount_a, amount_b, fee_growth_a, fee_growth_b
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (taken_at, pool_address)
		DO UPDATE SET
			pair = EXCLUDED.pair,
			liquidity = EXCLUDED.liquidity,
			sqrt_price = EXCLUDED.sqrt_price,
			current_tick = EXCLUDED.current_tick,
			price = EXCLUDED.price,
			amount_a = EXCLUDED.amount_a,
			amount_b = EXCLUDED.amount_b,
			fee_growth_a = EXCLUDED.fee_growth_a,
			fee_growth_b = EXCLUDED.fee_growth_b
	`,
		snapshot.TakenAt,
		snapshot.PoolAddress,
		snapshot.Pair,
		snapshot.Liquidity,
		snapshot.SqrtPrice,
		snapshot.CurrentTick,
		snapshot.Price,
		snapshot.AmountA,
		snapshot.AmountB,
		snapshot.FeeGrowthA,
		snapshot.FeeGrowthB,
	)
	if err != nil {
		return fmt.Errorf("upsert pool snapshot: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO pool_prices (taken_at, pool_address, pair, price)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (taken_at, pool_address)
		DO UPDATE SET pair = EXCLUDED.pair, price = EXCLUDED.price
	`,
		snapshot.TakenAt,
		snapshot.PoolAddress,
		snapshot.Pair,
		snapshot.Price,
	)
	if err != nil {
		return fmt.Errorf("upsert pool price: %w", err)
	}

	return tx.Commit(ctx)
}

// UpsertTicks writes tick snapshots in one round trip. An empty slice
// issues no call.
func (s *Store) UpsertTicks(ctx context.Context, ticks []model.TickSnapshot) error {
	if len(ticks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, tick := range ticks {
		batch.Queue(`
			INSERT INTO tick_snapshots (
				taken_at, pool_address, tick_index, price,
				liquidity_net, liquidity_gross, fee_growth_outside_a, fee_growth_outside_b
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (taken_at, pool_address, tick_index)
			DO UPDATE SET
				price = EXCLUDED.price,
				liquidity_net = EXCLUDED.liquidity_net,
				liquidity_gross = EXCLUDED.liquidity_gross,
				fee_growth_outside_a = EXCLUDED.fee_growth_outside_a,
				fee_growth_outside_b = EXCLUDED.fee_growth_outside_b
		`,
			tick.TakenAt,
			tick.PoolAddress,
			tick.TickIndex,
			tick.Price,
			tick.LiquidityNet,
			tick.LiquidityGross,
			tick.FeeGrowthOutsideA,
			tick.FeeGrowthOutsideB,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range ticks {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert ticks: %w", err)
		}
	}
	return nil
}

// LatestPrices returns the most recent price row per pool.
func (s *Store) LatestPrices(ctx context.Context) ([]model.PricePoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT ON (pool_address) pool_address, pair, price, taken_at
		FROM pool_prices
		ORDER BY pool_address, taken_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []model.PricePoint
	for rows.Next() {
		var p model.PricePoint
		if err := rows.Scan(&p.PoolAddress, &p.Pair, &p.Price, &p.TakenAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// History returns stored snapshots for a pool in [from, to], oldest first.
func (s *Store) History(ctx context.Context, poolAddress string, from, to time.Time) ([]model.PoolSnapshot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT taken_at, pool_address, pair, liquidity, sqrt_price, current_tick,
		       price, amount_a, amount_b, fee_growth_a, fee_growth_b
		FROM pool_snapshots
		WHERE pool_address = $1 AND taken_at BETWEEN $2 AND $3
		ORDER BY taken_at
	`, poolAddress, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []model.PoolSnapshot
	for rows.Next() {
		var s model.PoolSnapshot
		if err := rows.Scan(
			&s.TakenAt, &s.PoolAddress, &s.Pair, &s.Liquidity, &s.SqrtPrice,
			&s.CurrentTick, &s.Price, &s.AmountA, &s.AmountB, &s.FeeGrowthA, &s.FeeGrowthB,
		); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
