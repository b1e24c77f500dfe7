package service

import "tradepost/internal/domain"

// WalkResult is the outcome of walking sorted depth levels for a target
// quantity. A zero QuantityFilled with no error means "no matching depth",
// distinct from a query that found no data at all.
type WalkResult struct {
	TotalAmount      domain.Price `json:"total_amount"`
	AvgPricePerUnit  domain.Price `json:"avg_price_per_unit"`
	LevelsUsed       int          `json:"levels_used"`
	QuantityFilled   int          `json:"quantity_filled"`
	QuantityUnfilled int          `json:"quantity_unfilled"`
}

// WalkLevels consumes pre-sorted levels in order, taking at each level the
// lesser of the level's remaining amount and the quantity still needed. The
// same walk serves both directions: sell levels ascending give the cost to
// buy, buy levels descending give the revenue from selling.
func WalkLevels(levels []domain.DepthLevel, quantity int) WalkResult {
	var res WalkResult
	if quantity <= 0 {
		return res
	}

	remaining := quantity
	for _, level := range levels {
		if remaining == 0 {
			break
		}
		take := level.TotalAmount
		if take > remaining {
			take = remaining
		}
		if take <= 0 {
			continue
		}
		res.TotalAmount += level.Price * domain.Price(take)
		res.QuantityFilled += take
		res.LevelsUsed++
		remaining -= take
	}

	if res.QuantityFilled > 0 {
		// Round to the nearest fixed-point unit.
		n := int64(res.TotalAmount)
		filled := int64(res.QuantityFilled)
		res.AvgPricePerUnit = domain.Price((n + filled/2) / filled)
	}
	res.QuantityUnfilled = quantity - res.QuantityFilled
	if res.QuantityUnfilled < 0 {
		res.QuantityUnfilled = 0
	}
	return res
}

// CostToBuy computes the slippage-adjusted cost of buying quantity units from
// the depth's sell side.
func CostToBuy(depth *domain.MarketDepth, quantity int) WalkResult {
	return WalkLevels(depth.SellLevels, quantity)
}

// RevenueFromSale computes the slippage-adjusted revenue of selling quantity
// units into the depth's buy side.
func RevenueFromSale(depth *domain.MarketDepth, quantity int) WalkResult {
	return WalkLevels(depth.BuyLevels, quantity)
}
