package postgres

// Table DDL, applied by EnsureSchema. Every table is keyed by its natural
// primary key so writes stay idempotent under re-collection.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS pool_snapshots (
		taken_at      TIMESTAMPTZ NOT NULL,
		pool_address  TEXT        NOT NULL,
		pair          TEXT        NOT NULL,
		liquidity     NUMERIC     NOT NULL,
		sqrt_price    NUMERIC     NOT NULL,
		current_tick  INTEGER     NOT NULL,
		price         NUMERIC     NOT NULL,
		amount_a      NUMERIC     NOT NULL,
		amount_b      NUMERIC     NOT NULL,
		fee_growth_a  NUMERIC     NOT NULL,
		fee_growth_b  NUMERIC     NOT NULL,
		PRIMARY KEY (taken_at, pool_address)
	)`,
	`CREATE TABLE IF NOT EXISTS pool_prices (
		taken_at     TIMESTAMPTZ NOT NULL,
		pool_address TEXT        NOT NULL,
		pair         TEXT        NOT NULL,
		price        NUMERIC     NOT NULL,
		PRIMARY KEY (taken_at, pool_address)
	)`,
	`CREATE TABLE IF NOT EXISTS tick_snapshots (
		taken_at             TIMESTAMPTZ NOT NULL,
		pool_address         TEXT        NOT NULL,
		tick_index           INTEGER     NOT NULL,
		price                NUMERIC     NOT NULL,
		liquidity_net        NUMERIC     NOT NULL,
		liquidity_gross      NUMERIC     NOT NULL,
		fee_growth_outside_a NUMERIC     NOT NULL,
		fee_growth_outside_b NUMERIC     NOT NULL,
		PRIMARY KEY (taken_at, pool_address, tick_index)
	)`,
}

// Hypertable conversion, applied only when the timescaledb extension is
// installed. Plain Postgres works without it.
var hypertableStatements = []string{
	`SELECT create_hypertable('pool_snapshots', 'taken_at', if_not_exists => TRUE)`,
	`SELECT create_hypertable('pool_prices', 'taken_at', if_not_exists => TRUE)`,
	`SELECT create_hypertable('tick_snapshots', 'taken_at', if_not_exists => TRUE)`,
}
