package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is the latest stored price for a pool.
type PricePoint struct {
	PoolAddress string          `json:"pool_address"`
	Pair        string          `json:"pair"`
	Price       decimal.Decimal `json:"price"`
	TakenAt     time.Time       `json:"taken_at"`
}
