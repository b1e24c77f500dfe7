package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CityMap is the static many-to-one mapping from physical sub-market locations
// to logical cities (e.g. a main market and a portal market belong to one
// city). Owned by an external catalog, consumed read-only.
type CityMap struct {
	byLocation map[int]string
	byCity     map[string][]int
}

// NewCityMap builds a CityMap from city name to location-id lists.
func NewCityMap(cities map[string][]int) *CityMap {
	m := &CityMap{
		byLocation: make(map[int]string),
		byCity:     make(map[string][]int, len(cities)),
	}
	for city, locs := range cities {
		ids := make([]int, len(locs))
		copy(ids, locs)
		sort.Ints(ids)
		m.byCity[city] = ids
		for _, id := range ids {
			m.byLocation[id] = city
		}
	}
	return m
}

// City returns the logical city for a physical location id.
func (m *CityMap) City(locationID int) (string, bool) {
	city, ok := m.byLocation[locationID]
	return city, ok
}

// Locations returns all physical location ids for a city, nil if unknown.
func (m *CityMap) Locations(city string) []int {
	return m.byCity[city]
}

// Cities returns all known city names, sorted for deterministic iteration.
func (m *CityMap) Cities() []string {
	names := make([]string, 0, len(m.byCity))
	for city := range m.byCity {
		names = append(names, city)
	}
	sort.Strings(names)
	return names
}

// WeightTable maps item ids to per-unit transport weight. Items missing from
// the table weigh one unit.
type WeightTable map[string]decimal.Decimal

// Weight returns the per-unit weight for an item.
func (t WeightTable) Weight(itemID string) decimal.Decimal {
	if w, ok := t[itemID]; ok && w.IsPositive() {
		return w
	}
	return decimal.NewFromInt(1)
}

// CarryLimit returns the maximum unit quantity movable in one transport given
// a weight capacity. A non-positive capacity means unlimited.
func (t WeightTable) CarryLimit(itemID string, capacity decimal.Decimal) int {
	if !capacity.IsPositive() {
		return int(^uint(0) >> 1)
	}
	units := capacity.Div(t.Weight(itemID)).IntPart()
	if units < 0 {
		return 0
	}
	return int(units)
}
