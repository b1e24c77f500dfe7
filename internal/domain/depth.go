package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepthLevel is one aggregated price level: all live orders of one side at the
// same price merged together. Derived, never persisted.
type DepthLevel struct {
	Price       Price `json:"price"`
	TotalAmount int   `json:"total_amount"`
	OrderCount  int   `json:"order_count"`
}

// MarketDepth is the aggregated order book for one item at one location or one
// logical city. SellLevels are sorted ascending by price, BuyLevels descending.
// Best prices and spread are nil when the corresponding side is empty.
type MarketDepth struct {
	ItemID       string `json:"item_id"`
	QualityLevel int    `json:"quality_level"` // 0 = all qualities

	SellLevels []DepthLevel `json:"sell_levels"`
	BuyLevels  []DepthLevel `json:"buy_levels"`

	BestSell      *Price           `json:"best_sell,omitempty"`
	BestBuy       *Price           `json:"best_buy,omitempty"`
	Spread        *Price           `json:"spread,omitempty"`
	SpreadPercent *decimal.Decimal `json:"spread_percent,omitempty"`

	// UpdatedAt is the newest LastSeenAt among contributing orders; the age of
	// the quote for staleness reporting.
	UpdatedAt time.Time `json:"updated_at"`
}

// Finalize recomputes best prices and spread from the level lists. Levels must
// already be sorted. Safe to call on an empty depth.
func (d *MarketDepth) Finalize() {
	d.BestSell, d.BestBuy, d.Spread, d.SpreadPercent = nil, nil, nil, nil

	if len(d.SellLevels) > 0 {
		best := d.SellLevels[0].Price
		d.BestSell = &best
	}
	if len(d.BuyLevels) > 0 {
		best := d.BuyLevels[0].Price
		d.BestBuy = &best
	}
	if d.BestSell != nil && d.BestBuy != nil {
		spread := *d.BestSell - *d.BestBuy
		d.Spread = &spread
		if *d.BestBuy != 0 {
			pct := PercentOf(spread, *d.BestBuy)
			d.SpreadPercent = &pct
		}
	}
}

// SideAmount sums TotalAmount across all levels of one side.
func (d *MarketDepth) SideAmount(side OrderSide) int {
	levels := d.SellLevels
	if side == SideRequest {
		levels = d.BuyLevels
	}
	total := 0
	for _, lv := range levels {
		total += lv.TotalAmount
	}
	return total
}
