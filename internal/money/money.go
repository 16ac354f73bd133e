// Package money holds the pure commission and currency-conversion math used
// by checkout finalization and analytics.
package money

import "github.com/shopspring/decimal"

// krwPerPhp is the fixed rate divisor used to express a stored KRW unit cost
// in PHP for profit figures. The shop updates it by redeploying, not at
// runtime, so it stays a constant.
const krwPerPhp = 20

// Commission computes a sale group's commission from its subtotal and rate
// (e.g. 0.10 for 10%), rounded to the nearest whole peso.
func Commission(subtotalPhp int64, rate float64) int64 {
	if subtotalPhp <= 0 || rate <= 0 {
		return 0
	}
	return decimal.NewFromInt(subtotalPhp).
		Mul(decimal.NewFromFloat(rate)).
		Round(0).
		IntPart()
}

// ConvertCost converts a KRW unit cost to PHP through the fixed rate
// divisor. Absent cost data (zero or negative) converts to zero so profit
// figures degrade instead of failing.
func ConvertCost(costKrw int64) int64 {
	if costKrw <= 0 {
		return 0
	}
	return decimal.NewFromInt(costKrw).
		Div(decimal.NewFromInt(krwPerPhp)).
		Round(0).
		IntPart()
}
