package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickSnapshot is a point-in-time capture of one initialized tick, keyed by
// (TakenAt, PoolAddress, TickIndex). Zero or more are produced per pool per
// collection cycle.
type TickSnapshot struct {
	TakenAt           time.Time       `json:"taken_at"`
	PoolAddress       string          `json:"pool_address"`
	TickIndex         int32           `json:"tick_index"`
	Price             decimal.Decimal `json:"price"`
	LiquidityNet      decimal.Decimal `json:"liquidity_net"`
	LiquidityGross    decimal.Decimal `json:"liquidity_gross"`
	FeeGrowthOutsideA decimal.Decimal `json:"fee_growth_outside_a"`
	FeeGrowthOutsideB decimal.Decimal `json:"fee_growth_outside_b"`
}
