package domain

import "github.com/shopspring/decimal"

// PriceScale is the fixed-point scale of stored prices: one display unit of
// currency equals 10000 internal units.
const PriceScale = 10000

// Price is a monetary amount in fixed-point internal units. All storage and
// arithmetic stay in this representation; rounding to display units happens
// only at the presentation boundary.
type Price int64

// PriceFromDisplay converts a whole display-unit amount to internal units.
func PriceFromDisplay(v int64) Price {
	return Price(v * PriceScale)
}

// Display rounds to the nearest whole display unit, halves away from zero.
func (p Price) Display() int64 {
	n := int64(p)
	if n >= 0 {
		return (n + PriceScale/2) / PriceScale
	}
	return (n - PriceScale/2) / PriceScale
}

// Decimal returns the exact display-unit value as a decimal.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -4)
}

// PercentOf returns delta as a percentage of base. A zero base yields zero
// rather than a division error.
func PercentOf(delta, base Price) decimal.Decimal {
	if base == 0 {
		return decimal.Zero
	}
	return delta.Decimal().Div(base.Decimal()).Mul(decimal.NewFromInt(100))
}
