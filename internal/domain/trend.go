package domain

import "github.com/shopspring/decimal"

// TrendDirection classifies the recent movement of an item's daily average
// price.
type TrendDirection int

const (
	TrendRising TrendDirection = iota + 1
	TrendFalling
	TrendStable
)

// String returns the string representation of TrendDirection.
func (d TrendDirection) String() string {
	switch d {
	case TrendRising:
		return "RISING"
	case TrendFalling:
		return "FALLING"
	case TrendStable:
		return "STABLE"
	default:
		return "UNKNOWN"
	}
}

// SupplyDirection is the supply-side reading of a price trend. Downstream
// ranking depends on the mapping: rising price means falling supply, and vice
// versa.
type SupplyDirection int

const (
	SupplyFalling SupplyDirection = iota + 1
	SupplyRising
	SupplySteady
)

// String returns the string representation of SupplyDirection.
func (d SupplyDirection) String() string {
	switch d {
	case SupplyFalling:
		return "FALLING"
	case SupplyRising:
		return "RISING"
	case SupplySteady:
		return "STEADY"
	default:
		return "UNKNOWN"
	}
}

// Supply maps a price trend onto the supply reading.
func (d TrendDirection) Supply() SupplyDirection {
	switch d {
	case TrendRising:
		return SupplyFalling
	case TrendFalling:
		return SupplyRising
	default:
		return SupplySteady
	}
}

// TrendReport compares the most recent daily averages against the older part
// of the trailing window.
type TrendReport struct {
	Direction     TrendDirection  `json:"direction"`
	RecentAvg     Price           `json:"recent_avg"`
	OlderAvg      Price           `json:"older_avg"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	Samples       int             `json:"samples"`
}
