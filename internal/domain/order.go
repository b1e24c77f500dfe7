package domain

import (
	"fmt"
	"time"
)

// OrderSide distinguishes sell offers from buy requests.
type OrderSide string

const (
	SideOffer   OrderSide = "offer"   // sell order
	SideRequest OrderSide = "request" // buy order
)

// IsValid reports whether the side is one of the two known values.
func (s OrderSide) IsValid() bool {
	return s == SideOffer || s == SideRequest
}

// MarketOrder is one open order on the marketplace. Re-ingesting the same
// OrderID overwrites price/amount/expiry and refreshes LastSeenAt (upsert, not
// append). Monetary values are fixed-point Price units.
type MarketOrder struct {
	OrderID          uint64    `gorm:"primaryKey" json:"order_id"`
	ItemID           string    `gorm:"index:idx_orders_item_location,priority:1;index:idx_orders_item_side_location,priority:1" json:"item_id"`
	ItemGroupID      string    `json:"item_group_id"`
	LocationID       int       `gorm:"index:idx_orders_item_location,priority:2;index:idx_orders_item_side_location,priority:3" json:"location_id"`
	QualityLevel     int       `json:"quality_level"`
	EnchantmentLevel int       `json:"enchantment_level"`
	Price            Price     `json:"price"`
	Amount           int       `json:"amount"`
	Side             OrderSide `gorm:"index:idx_orders_item_side_location,priority:2" json:"side"`
	ExpiresAt        time.Time `gorm:"index" json:"expires_at"`
	LastSeenAt       time.Time `gorm:"index" json:"last_seen_at"`
}

// TableName sets the SQL table name for gorm.
func (MarketOrder) TableName() string {
	return "orders"
}

// Validate checks structural invariants before an order enters the store.
func (o *MarketOrder) Validate() error {
	if o.OrderID == 0 {
		return fmt.Errorf("%w: zero order id", ErrInvalidOrder)
	}
	if o.ItemID == "" {
		return fmt.Errorf("%w: empty item id for order %d", ErrInvalidOrder, o.OrderID)
	}
	if o.Price <= 0 {
		return fmt.Errorf("%w: non-positive price for order %d", ErrInvalidOrder, o.OrderID)
	}
	if o.Amount <= 0 {
		return fmt.Errorf("%w: non-positive amount for order %d", ErrInvalidOrder, o.OrderID)
	}
	if o.QualityLevel < 1 || o.QualityLevel > 5 {
		return fmt.Errorf("%w: quality %d out of range for order %d", ErrInvalidOrder, o.QualityLevel, o.OrderID)
	}
	if !o.Side.IsValid() {
		return fmt.Errorf("%w: unknown side %q for order %d", ErrInvalidOrder, o.Side, o.OrderID)
	}
	return nil
}

// IsLive reports whether the order is neither expired nor stale at now.
// Staleness models "not present in the latest marketplace pull, assume
// cancelled", distinct from the explicit expiry time.
func (o *MarketOrder) IsLive(now time.Time, staleWindow time.Duration) bool {
	return o.ExpiresAt.After(now) && o.LastSeenAt.After(now.Add(-staleWindow))
}
