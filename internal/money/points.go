// Package money converts between wallet currency and bidding points.
package money

import "github.com/shopspring/decimal"

// DefaultPointsRatio is how many currency units one point is worth.
const DefaultPointsRatio = 500

// Converter applies a fixed points/currency ratio, rounded to 2 decimals.
type Converter struct {
	ratio decimal.Decimal
}

// NewConverter returns a Converter; a non-positive ratio falls back to DefaultPointsRatio.
func NewConverter(ratio int64) Converter {
	if ratio <= 0 {
		ratio = DefaultPointsRatio
	}
	return Converter{ratio: decimal.NewFromInt(ratio)}
}

// PointsToCurrency multiplies points by the ratio.
func (c Converter) PointsToCurrency(points decimal.Decimal) decimal.Decimal {
	return points.Mul(c.ratio).Round(2)
}

// CurrencyToPoints divides an amount by the ratio.
func (c Converter) CurrencyToPoints(amount decimal.Decimal) decimal.Decimal {
	return amount.DivRound(c.ratio, 2)
}

// Ratio returns the configured ratio.
func (c Converter) Ratio() decimal.Decimal { return c.ratio }
