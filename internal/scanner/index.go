package scanner

import (
	"sort"
	"time"

	"tradepost/internal/domain"
)

// OrderBook is one side-pair of pre-sorted levels for an item/quality/city.
// Level lists are sorted exactly once at index build and then only borrowed
// immutably by the scan loops.
type OrderBook struct {
	SellLevels []domain.DepthLevel // ascending price
	BuyLevels  []domain.DepthLevel // descending price

	// UpdatedAt is the newest LastSeenAt among the book's orders.
	UpdatedAt time.Time
}

// BookIndex is the in-memory arena the scanners run against:
// itemId -> quality -> city -> OrderBook. It is built from one bulk order
// query so the nested city-pair comparison never touches the database.
type BookIndex struct {
	books map[string]map[int]map[string]*OrderBook
}

type rawBook struct {
	sells     map[domain.Price]*domain.DepthLevel
	buys      map[domain.Price]*domain.DepthLevel
	updatedAt time.Time
}

// BuildIndex groups live orders by item, quality and logical city, merging
// same-price orders into levels. Orders at locations without a city mapping
// are ignored.
func BuildIndex(orders []domain.MarketOrder, cities *domain.CityMap) *BookIndex {
	raw := make(map[string]map[int]map[string]*rawBook)
	for i := range orders {
		o := &orders[i]
		city, ok := cities.City(o.LocationID)
		if !ok {
			continue
		}

		byQuality, ok := raw[o.ItemID]
		if !ok {
			byQuality = make(map[int]map[string]*rawBook)
			raw[o.ItemID] = byQuality
		}
		byCity, ok := byQuality[o.QualityLevel]
		if !ok {
			byCity = make(map[string]*rawBook)
			byQuality[o.QualityLevel] = byCity
		}
		book, ok := byCity[city]
		if !ok {
			book = &rawBook{
				sells: make(map[domain.Price]*domain.DepthLevel),
				buys:  make(map[domain.Price]*domain.DepthLevel),
			}
			byCity[city] = book
		}

		byPrice := book.sells
		if o.Side == domain.SideRequest {
			byPrice = book.buys
		}
		level, ok := byPrice[o.Price]
		if !ok {
			level = &domain.DepthLevel{Price: o.Price}
			byPrice[o.Price] = level
		}
		level.TotalAmount += o.Amount
		level.OrderCount++

		if o.LastSeenAt.After(book.updatedAt) {
			book.updatedAt = o.LastSeenAt
		}
	}

	idx := &BookIndex{books: make(map[string]map[int]map[string]*OrderBook, len(raw))}
	for itemID, byQuality := range raw {
		outQuality := make(map[int]map[string]*OrderBook, len(byQuality))
		for quality, byCity := range byQuality {
			outCity := make(map[string]*OrderBook, len(byCity))
			for city, book := range byCity {
				outCity[city] = &OrderBook{
					SellLevels: flattenLevels(book.sells, true),
					BuyLevels:  flattenLevels(book.buys, false),
					UpdatedAt:  book.updatedAt,
				}
			}
			outQuality[quality] = outCity
		}
		idx.books[itemID] = outQuality
	}
	return idx
}

func flattenLevels(byPrice map[domain.Price]*domain.DepthLevel, ascending bool) []domain.DepthLevel {
	if len(byPrice) == 0 {
		return nil
	}
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

// Items returns the indexed item ids, sorted for deterministic iteration.
func (x *BookIndex) Items() []string {
	items := make([]string, 0, len(x.books))
	for itemID := range x.books {
		items = append(items, itemID)
	}
	sort.Strings(items)
	return items
}

// Qualities returns the quality levels present for an item, sorted.
func (x *BookIndex) Qualities(itemID string) []int {
	byQuality := x.books[itemID]
	qualities := make([]int, 0, len(byQuality))
	for q := range byQuality {
		qualities = append(qualities, q)
	}
	sort.Ints(qualities)
	return qualities
}

// Cities returns the cities holding orders for an item/quality, sorted.
func (x *BookIndex) Cities(itemID string, quality int) []string {
	byCity := x.books[itemID][quality]
	cities := make([]string, 0, len(byCity))
	for city := range byCity {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities
}

// Book returns the order book for an item/quality/city, nil when absent.
func (x *BookIndex) Book(itemID string, quality int, city string) *OrderBook {
	return x.books[itemID][quality][city]
}
