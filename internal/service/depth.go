package service

import (
	"fmt"
	"sort"
	"time"

	"tradepost/internal/domain"
	"tradepost/internal/infra/storage"
)

// DepthService answers depth queries: aggregated price levels for one item at
// one physical location or one logical city.
type DepthService struct {
	store  *storage.Store
	cities *domain.CityMap
}

// NewDepthService creates a new DepthService instance
func NewDepthService(store *storage.Store, cities *domain.CityMap) *DepthService {
	return &DepthService{store: store, cities: cities}
}

// Depth returns the aggregated order book for an item at one physical
// location. Quality 0 matches all qualities. An empty book is a normal
// result with nil best prices, not an error.
func (s *DepthService) Depth(itemID string, locationID int, quality int, now time.Time) (*domain.MarketDepth, error) {
	orders, err := s.store.ValidOrders(itemID, []int{locationID}, quality, now)
	if err != nil {
		return nil, err
	}
	return BuildDepth(itemID, quality, orders), nil
}

// DepthForCity merges the depths of every physical location mapped to the
// city into one logical market view.
func (s *DepthService) DepthForCity(itemID, city string, quality int, now time.Time) (*domain.MarketDepth, error) {
	locations := s.cities.Locations(city)
	if locations == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCity, city)
	}

	depths := make([]*domain.MarketDepth, 0, len(locations))
	for _, loc := range locations {
		d, err := s.Depth(itemID, loc, quality, now)
		if err != nil {
			return nil, err
		}
		depths = append(depths, d)
	}
	return MergeDepths(itemID, quality, depths), nil
}

// BuildDepth groups live orders into sorted price levels. Orders at the same
// price on the same side merge into one level, so no tie-break is needed and
// sell levels end up strictly increasing, buy levels strictly decreasing.
func BuildDepth(itemID string, quality int, orders []domain.MarketOrder) *domain.MarketDepth {
	depth := &domain.MarketDepth{ItemID: itemID, QualityLevel: quality}

	sells := make(map[domain.Price]*domain.DepthLevel)
	buys := make(map[domain.Price]*domain.DepthLevel)
	for i := range orders {
		o := &orders[i]
		byPrice := sells
		if o.Side == domain.SideRequest {
			byPrice = buys
		}
		level, ok := byPrice[o.Price]
		if !ok {
			level = &domain.DepthLevel{Price: o.Price}
			byPrice[o.Price] = level
		}
		level.TotalAmount += o.Amount
		level.OrderCount++

		if o.LastSeenAt.After(depth.UpdatedAt) {
			depth.UpdatedAt = o.LastSeenAt
		}
	}

	depth.SellLevels = sortLevels(sells, true)
	depth.BuyLevels = sortLevels(buys, false)
	depth.Finalize()
	return depth
}

func sortLevels(byPrice map[domain.Price]*domain.DepthLevel, ascending bool) []domain.DepthLevel {
	levels := make([]domain.DepthLevel, 0, len(byPrice))
	for _, lv := range byPrice {
		levels = append(levels, *lv)
	}
	sort.Slice(levels, func(i, j int) bool {
		if ascending {
			return levels[i].Price < levels[j].Price
		}
		return levels[i].Price > levels[j].Price
	})
	return levels
}

// MergeDepths combines per-location depths into one city view: levels are
// concatenated, same-price levels merged, lists re-sorted and bests
// recomputed across locations.
func MergeDepths(itemID string, quality int, depths []*domain.MarketDepth) *domain.MarketDepth {
	merged := &domain.MarketDepth{ItemID: itemID, QualityLevel: quality}

	sells := make(map[domain.Price]*domain.DepthLevel)
	buys := make(map[domain.Price]*domain.DepthLevel)
	accumulate := func(byPrice map[domain.Price]*domain.DepthLevel, levels []domain.DepthLevel) {
		for _, in := range levels {
			level, ok := byPrice[in.Price]
			if !ok {
				level = &domain.DepthLevel{Price: in.Price}
				byPrice[in.Price] = level
			}
			level.TotalAmount += in.TotalAmount
			level.OrderCount += in.OrderCount
		}
	}
	for _, d := range depths {
		if d == nil {
			continue
		}
		accumulate(sells, d.SellLevels)
		accumulate(buys, d.BuyLevels)
		if d.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = d.UpdatedAt
		}
	}

	merged.SellLevels = sortLevels(sells, true)
	merged.BuyLevels = sortLevels(buys, false)
	merged.Finalize()
	return merged
}
