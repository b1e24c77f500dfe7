package scanner

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"tradepost/internal/domain"
	"tradepost/internal/infra"
	"tradepost/internal/infra/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultParallelism   = 4
	defaultProgressEvery = 100
)

// OptimalConfig parameterizes the depth-optimal scan.
type OptimalConfig struct {
	TaxRate       decimal.Decimal    // sales tax on sell revenue, in [0, 1)
	TransportCost domain.Price       // flat cost per trip
	CarryCapacity decimal.Decimal    // transport weight capacity; <= 0 means unlimited
	Weights       domain.WeightTable // per-unit item weights
	Parallelism   int                // concurrent item scans
	ProgressEvery int                // progress notification granularity, in items
}

// ProgressFunc receives coarse scan progress without blocking the scan.
type ProgressFunc func(itemsDone, itemsTotal int)

// OptimalScanner walks full order-book depth for every item/quality/city-pair
// combination, matching source sell levels against destination buy levels in
// lock-step. It issues exactly one bulk order query per scan and runs the
// nested comparison against the in-memory BookIndex.
type OptimalScanner struct {
	store  *storage.Store
	cities *domain.CityMap
	cfg    OptimalConfig
}

// NewOptimalScanner creates a new OptimalScanner instance
func NewOptimalScanner(store *storage.Store, cities *domain.CityMap, cfg OptimalConfig) *OptimalScanner {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = defaultParallelism
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = defaultProgressEvery
	}
	return &OptimalScanner{store: store, cities: cities, cfg: cfg}
}

// Scan runs the full depth-optimal scan over every live order. Results are
// sorted by total profit, descending. Cancellation is honored between items.
func (s *OptimalScanner) Scan(ctx context.Context, now time.Time, progress ProgressFunc) ([]domain.OptimalArbitrageResult, error) {
	started := time.Now()

	orders, err := s.store.AllValidOrders(now)
	if err != nil {
		return nil, err
	}
	idx := BuildIndex(orders, s.cities)
	items := idx.Items()

	var (
		mu      sync.Mutex
		results []domain.OptimalArbitrageResult
		done    atomic.Int64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for _, itemID := range items {
		itemID := itemID
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			found := s.scanItem(idx, itemID)
			if len(found) > 0 {
				mu.Lock()
				results = append(results, found...)
				mu.Unlock()
			}

			n := int(done.Add(1))
			infra.GlobalMetrics.SetScanProgress(uint64(n))
			if progress != nil && (n%s.cfg.ProgressEvery == 0 || n == len(items)) {
				progress(n, len(items))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalProfit != results[j].TotalProfit {
			return results[i].TotalProfit > results[j].TotalProfit
		}
		return results[i].ItemID < results[j].ItemID
	})

	elapsed := time.Since(started)
	infra.GlobalMetrics.RecordScan(elapsed)
	// The scan itself succeeded; a failed stat write must not discard results.
	if err := s.store.SetStat(domain.StatLastScanMillis, strconv.FormatInt(elapsed.Milliseconds(), 10)); err != nil {
		slog.Error("Failed to record scan duration", slog.Any("error", err))
	}
	return results, nil
}

// scanItem compares every ordered city pair for one item. Pairs with an empty
// book on either side are skipped, never an error.
func (s *OptimalScanner) scanItem(idx *BookIndex, itemID string) []domain.OptimalArbitrageResult {
	var out []domain.OptimalArbitrageResult
	for _, quality := range idx.Qualities(itemID) {
		cities := idx.Cities(itemID, quality)
		capacity := s.cfg.Weights.CarryLimit(itemID, s.cfg.CarryCapacity)

		for _, buyCity := range cities {
			buyBook := idx.Book(itemID, quality, buyCity)
			if len(buyBook.SellLevels) == 0 {
				continue
			}
			for _, sellCity := range cities {
				if sellCity == buyCity {
					continue
				}
				sellBook := idx.Book(itemID, quality, sellCity)
				if len(sellBook.BuyLevels) == 0 {
					continue
				}
				if res := s.walkPair(itemID, quality, buyCity, sellCity, buyBook.SellLevels, sellBook.BuyLevels, capacity); res != nil {
					out = append(out, *res)
				}
			}
		}
	}
	return out
}

// walkPair consumes the source's sell levels (ascending) against the
// destination's buy levels (descending) in lock-step. Both lists are ordered
// toward less favorable prices, so the first non-positive marginal net profit
// ends the walk for good. Nil when nothing profitable remains.
func (s *OptimalScanner) walkPair(itemID string, quality int, buyCity, sellCity string, sellLevels, buyLevels []domain.DepthLevel, capacity int) *domain.OptimalArbitrageResult {
	oneMinusTax := decimal.NewFromInt(1).Sub(s.cfg.TaxRate)

	var (
		i, j             int
		quantity         int
		buyCost, revenue int64
		fills            []domain.LevelFill
		capacityLimited  bool
	)
	buyRemaining := sellLevels[0].TotalAmount
	sellRemaining := buyLevels[0].TotalAmount

	for i < len(sellLevels) && j < len(buyLevels) {
		buyPrice := sellLevels[i].Price
		sellPrice := buyLevels[j].Price

		marginal := decimal.NewFromInt(int64(sellPrice)).Mul(oneMinusTax).
			Sub(decimal.NewFromInt(int64(buyPrice)))
		if marginal.LessThanOrEqual(decimal.Zero) {
			break
		}

		remaining := capacity - quantity
		if remaining <= 0 {
			capacityLimited = true
			break
		}
		take := buyRemaining
		if sellRemaining < take {
			take = sellRemaining
		}
		if remaining < take {
			take = remaining
		}

		quantity += take
		buyCost += int64(buyPrice) * int64(take)
		revenue += int64(sellPrice) * int64(take)
		fills = append(fills, domain.LevelFill{BuyPrice: buyPrice, SellPrice: sellPrice, Quantity: take})

		buyRemaining -= take
		sellRemaining -= take
		if buyRemaining == 0 {
			i++
			if i < len(sellLevels) {
				buyRemaining = sellLevels[i].TotalAmount
			}
		}
		if sellRemaining == 0 {
			j++
			if j < len(buyLevels) {
				sellRemaining = buyLevels[j].TotalAmount
			}
		}
	}

	if quantity == 0 {
		return nil
	}

	tax := decimal.NewFromInt(revenue).Mul(s.cfg.TaxRate).Round(0).IntPart()
	profit := revenue - tax - buyCost - int64(s.cfg.TransportCost)
	if profit <= 0 {
		return nil
	}

	return &domain.OptimalArbitrageResult{
		ItemID:           itemID,
		QualityLevel:     quality,
		BuyCity:          buyCity,
		SellCity:         sellCity,
		Quantity:         quantity,
		TotalBuyCost:     domain.Price(buyCost),
		TotalSellRevenue: domain.Price(revenue),
		TotalTax:         domain.Price(tax),
		TransportCost:    s.cfg.TransportCost,
		TotalProfit:      domain.Price(profit),
		// Quantity accumulated strictly before marginal profit turned
		// non-positive; equals the full quantity when another condition
		// stopped the walk first.
		ProfitLimitedQuantity: quantity,
		CapacityLimited:       capacityLimited,
		Fills:                 fills,
	}
}
