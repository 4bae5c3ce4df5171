package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolSnapshot is a point-in-time capture of a pool's on-chain state,
// keyed by (TakenAt, PoolAddress). Snapshots are immutable once built.
type PoolSnapshot struct {
	TakenAt     time.Time       `json:"taken_at"`
	PoolAddress string          `json:"pool_address"`
	Pair        string          `json:"pair"`
	Liquidity   decimal.Decimal `json:"liquidity"`
	SqrtPrice   decimal.Decimal `json:"sqrt_price"`
	CurrentTick int32           `json:"current_tick"`
	Price       decimal.Decimal `json:"price"`
	AmountA     decimal.Decimal `json:"amount_a"`
	AmountB     decimal.Decimal `json:"amount_b"`
	FeeGrowthA  decimal.Decimal `json:"fee_growth_a"`
	FeeGrowthB  decimal.Decimal `json:"fee_growth_b"`
}
