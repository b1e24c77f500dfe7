package scanner

import (
	"sort"
	"time"

	"tradepost/internal/domain"
	"tradepost/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// QuickScanner finds buy-here/sell-there pairs for one item using only each
// city's single best price point, without a full slippage walk. Fast, at the
// price of ignoring order-book depth.
type QuickScanner struct {
	store  *storage.Store
	cities *domain.CityMap
}

// NewQuickScanner creates a new QuickScanner instance
func NewQuickScanner(store *storage.Store, cities *domain.CityMap) *QuickScanner {
	return &QuickScanner{store: store, cities: cities}
}

type cityQuote struct {
	bestSell *domain.Price
	bestBuy  *domain.Price
	age      time.Duration
}

// Scan evaluates every ordered pair of distinct cities for an item. Quality 0
// scans all quality levels. A pair is included when either the instant or the
// undercut strategy meets minProfitPercent; results are sorted by the better
// strategy's profit percent, descending.
func (s *QuickScanner) Scan(itemID string, quality int, minProfitPercent decimal.Decimal, now time.Time) ([]domain.ArbitrageOpportunity, error) {
	orders, err := s.store.ValidOrders(itemID, nil, quality, now)
	if err != nil {
		return nil, err
	}
	idx := BuildIndex(orders, s.cities)

	var opportunities []domain.ArbitrageOpportunity
	for _, q := range idx.Qualities(itemID) {
		quotes := make(map[string]cityQuote)
		for _, city := range idx.Cities(itemID, q) {
			book := idx.Book(itemID, q, city)
			quote := cityQuote{age: now.Sub(book.UpdatedAt)}
			if len(book.SellLevels) > 0 {
				best := book.SellLevels[0].Price
				quote.bestSell = &best
			}
			if len(book.BuyLevels) > 0 {
				best := book.BuyLevels[0].Price
				quote.bestBuy = &best
			}
			quotes[city] = quote
		}

		for _, buyCity := range idx.Cities(itemID, q) {
			src := quotes[buyCity]
			if src.bestSell == nil {
				continue
			}
			for _, sellCity := range idx.Cities(itemID, q) {
				if sellCity == buyCity {
					continue
				}
				dst := quotes[sellCity]
				opp := evaluatePair(itemID, q, buyCity, sellCity, src, dst)
				if opp == nil {
					continue
				}
				instantOK := opp.InstantPrice != nil && opp.InstantProfitPercent.GreaterThanOrEqual(minProfitPercent)
				undercutOK := opp.UndercutPrice != nil && opp.UndercutProfitPercent.GreaterThanOrEqual(minProfitPercent)
				if instantOK || undercutOK {
					opportunities = append(opportunities, *opp)
				}
			}
		}
	}

	sort.Slice(opportunities, func(i, j int) bool {
		return opportunities[i].BestProfitPercent.GreaterThan(opportunities[j].BestProfitPercent)
	})
	return opportunities, nil
}

// evaluatePair prices both sell strategies for one city pair. Nil when the
// destination has no usable quote at all.
func evaluatePair(itemID string, quality int, buyCity, sellCity string, src, dst cityQuote) *domain.ArbitrageOpportunity {
	if dst.bestBuy == nil && dst.bestSell == nil {
		return nil
	}

	buyPrice := *src.bestSell
	opp := &domain.ArbitrageOpportunity{
		ItemID:       itemID,
		QualityLevel: quality,
		BuyCity:      buyCity,
		SellCity:     sellCity,
		BuyPrice:     buyPrice,
	}

	if dst.bestBuy != nil {
		price := *dst.bestBuy
		opp.InstantPrice = &price
		opp.InstantProfit = price - buyPrice
		opp.InstantProfitPercent = domain.PercentOf(opp.InstantProfit, buyPrice)
	}
	if dst.bestSell != nil {
		// Undercut by one display currency unit.
		price := *dst.bestSell - domain.PriceScale
		opp.UndercutPrice = &price
		opp.UndercutProfit = price - buyPrice
		opp.UndercutProfitPercent = domain.PercentOf(opp.UndercutProfit, buyPrice)
	}

	opp.BestStrategy = domain.StrategyInstant
	opp.BestProfitPercent = opp.InstantProfitPercent
	if opp.UndercutPrice != nil &&
		(opp.InstantPrice == nil || opp.UndercutProfitPercent.GreaterThan(opp.InstantProfitPercent)) {
		opp.BestStrategy = domain.StrategyUndercut
		opp.BestProfitPercent = opp.UndercutProfitPercent
	}

	// Worst-case data age across the two quotes.
	age := src.age
	if dst.age > age {
		age = dst.age
	}
	opp.DataAgeMinutes = int(age.Minutes())

	return opp
}

// FilterAlerts returns the opportunities matched by at least one active
// alert, for the presentation layer to notify on.
func FilterAlerts(opportunities []domain.ArbitrageOpportunity, alerts []*domain.ProfitAlert) []domain.ArbitrageOpportunity {
	var matched []domain.ArbitrageOpportunity
	for i := range opportunities {
		for _, alert := range alerts {
			if alert.Matches(&opportunities[i]) {
				matched = append(matched, opportunities[i])
				break
			}
		}
	}
	return matched
}
