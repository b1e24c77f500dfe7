package domain

import "github.com/shopspring/decimal"

// SellStrategy is how goods are turned into currency at the destination.
type SellStrategy int

const (
	// StrategyInstant sells immediately into the destination's best buy order.
	StrategyInstant SellStrategy = iota + 1
	// StrategyUndercut places a new sell order one display currency unit below
	// the destination's current best sell order, assuming a full fill.
	StrategyUndercut
)

// String returns the string representation of SellStrategy.
func (s SellStrategy) String() string {
	switch s {
	case StrategyInstant:
		return "INSTANT"
	case StrategyUndercut:
		return "UNDERCUT"
	default:
		return "UNKNOWN"
	}
}

// ArbitrageOpportunity is one buy-here/sell-there pair found by the
// single-price scanner. Derived, never persisted; recomputed from the current
// order book on every scan.
type ArbitrageOpportunity struct {
	ItemID       string `json:"item_id"`
	QualityLevel int    `json:"quality_level"`
	BuyCity      string `json:"buy_city"`
	SellCity     string `json:"sell_city"`

	// BuyPrice is the source city's best sell price: the cost of one unit.
	BuyPrice Price `json:"buy_price"`

	InstantPrice          *Price          `json:"instant_price,omitempty"`
	InstantProfit         Price           `json:"instant_profit"`
	InstantProfitPercent  decimal.Decimal `json:"instant_profit_percent"`
	UndercutPrice         *Price          `json:"undercut_price,omitempty"`
	UndercutProfit        Price           `json:"undercut_profit"`
	UndercutProfitPercent decimal.Decimal `json:"undercut_profit_percent"`

	BestStrategy      SellStrategy    `json:"best_strategy"`
	BestProfitPercent decimal.Decimal `json:"best_profit_percent"`

	// DataAgeMinutes is the staleness of the older of the two city quotes.
	DataAgeMinutes int `json:"data_age_minutes"`
}

// LevelFill records one matched slice of the depth-optimal walk, for
// auditability of the result.
type LevelFill struct {
	BuyPrice  Price `json:"buy_price"`
	SellPrice Price `json:"sell_price"`
	Quantity  int   `json:"quantity"`
}

// OptimalArbitrageResult is the outcome of a full-depth walk for one
// (item, quality, buyCity, sellCity) combination. Derived, never persisted.
type OptimalArbitrageResult struct {
	ItemID       string `json:"item_id"`
	QualityLevel int    `json:"quality_level"`
	BuyCity      string `json:"buy_city"`
	SellCity     string `json:"sell_city"`

	Quantity         int   `json:"quantity"`
	TotalBuyCost     Price `json:"total_buy_cost"`
	TotalSellRevenue Price `json:"total_sell_revenue"`
	TotalTax         Price `json:"total_tax"`
	TransportCost    Price `json:"transport_cost"`
	TotalProfit      Price `json:"total_profit"`

	// ProfitLimitedQuantity is the quantity accumulated strictly before
	// marginal profit turned non-positive; zero when the first unit was
	// already unprofitable.
	ProfitLimitedQuantity int  `json:"profit_limited_quantity"`
	CapacityLimited       bool `json:"capacity_limited"`

	Fills []LevelFill `json:"fills"`
}

// ProfitPercent returns 100 * totalProfit / totalBuyCost.
func (r *OptimalArbitrageResult) ProfitPercent() decimal.Decimal {
	return PercentOf(r.TotalProfit, r.TotalBuyCost)
}
