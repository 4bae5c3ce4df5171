package source

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// priceScale is the emitted decimal precision for converted prices.
const priceScale = 18

var q64 = new(big.Float).SetFloat64(math.Pow(2, 64))

// sqrtPriceToPrice converts a Q64.64 sqrt price into a token-B-per-token-A
// price adjusted for mint decimals.
func sqrtPriceToPrice(sqrtPrice *big.Int, decimalsA, decimalsB uint8) decimal.Decimal {
	ratio := new(big.Float).Quo(new(big.Float).SetInt(sqrtPrice), q64)
	raw := new(big.Float).Mul(ratio, ratio)
	raw.Mul(raw, decimalAdjustment(decimalsA, decimalsB))

	out, err := decimal.NewFromString(raw.Text('f', priceScale))
	if err != nil {
		return decimal.Zero
	}
	return out
}

// tickIndexToPrice converts a tick index into the price at that tick,
// adjusted for mint decimals.
func tickIndexToPrice(tick int32, decimalsA, decimalsB uint8) decimal.Decimal {
	raw := new(big.Float).SetFloat64(math.Pow(1.0001, float64(tick)))
	raw.Mul(raw, decimalAdjustment(decimalsA, decimalsB))

	out, err := decimal.NewFromString(raw.Text('f', priceScale))
	if err != nil {
		return decimal.Zero
	}
	return out
}

func decimalAdjustment(decimalsA, decimalsB uint8) *big.Float {
	return new(big.Float).SetFloat64(math.Pow(10, float64(int(decimalsA))-float64(int(decimalsB))))
}
