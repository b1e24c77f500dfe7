package service

import (
	"fmt"
	"time"

	"tradepost/internal/domain"
	"tradepost/internal/infra/storage"

	"github.com/shopspring/decimal"
)

const (
	// DefaultBaselineDays is the trailing window for baselines and trends.
	DefaultBaselineDays = 28
	// trendRecentSamples is the size of the most-recent split in a trend.
	trendRecentSamples = 7
)

var trendBoundary = decimal.NewFromInt(5)

// HistoryService computes baselines, trends and liquidity from the price
// history tables.
type HistoryService struct {
	store              *storage.Store
	cities             *domain.CityMap
	liquidityThreshold int64
}

// NewHistoryService creates a new HistoryService instance
func NewHistoryService(store *storage.Store, cities *domain.CityMap, liquidityThreshold int64) *HistoryService {
	return &HistoryService{store: store, cities: cities, liquidityThreshold: liquidityThreshold}
}

// locations resolves an optional city filter. Empty city means all locations.
func (s *HistoryService) locations(city string) ([]int, error) {
	if city == "" {
		return nil, nil
	}
	locs := s.cities.Locations(city)
	if locs == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCity, city)
	}
	return locs, nil
}

// Baseline returns the arithmetic mean of daily average prices over the
// trailing window, nil when there are no samples. Days <= 0 uses the default
// 28-day window.
func (s *HistoryService) Baseline(itemID, city string, quality, days int, now time.Time) (*domain.Price, error) {
	if days <= 0 {
		days = DefaultBaselineDays
	}
	locs, err := s.locations(city)
	if err != nil {
		return nil, err
	}

	samples, err := s.store.HistorySamples(domain.GranularityDaily, itemID, locs, quality, now.AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}

	avg := meanPrice(samples)
	return &avg, nil
}

// Trend classifies recent price movement: the most recent 7 daily samples
// against the older remainder of the trailing 28-day window. Returns nil with
// fewer than 7 samples. With fewer than 14 total, the older average falls
// back to the recent one, which classifies as stable.
func (s *HistoryService) Trend(itemID, city string, quality int, now time.Time) (*domain.TrendReport, error) {
	locs, err := s.locations(city)
	if err != nil {
		return nil, err
	}

	samples, err := s.store.HistorySamples(domain.GranularityDaily, itemID, locs, quality, now.AddDate(0, 0, -DefaultBaselineDays))
	if err != nil {
		return nil, err
	}
	if len(samples) > DefaultBaselineDays {
		samples = samples[:DefaultBaselineDays]
	}
	if len(samples) < trendRecentSamples {
		return nil, nil
	}

	// Samples arrive most recent first. Below 14 total the comparison is
	// recent-only: the older average falls back to the recent one.
	recentAvg := meanPrice(samples[:trendRecentSamples])
	olderAvg := recentAvg
	if len(samples) >= 2*trendRecentSamples {
		olderAvg = meanPrice(samples[trendRecentSamples:])
	}

	change := decimal.Zero
	if olderAvg != 0 {
		change = domain.PercentOf(recentAvg-olderAvg, olderAvg)
	}

	direction := domain.TrendStable
	switch {
	case change.GreaterThan(trendBoundary):
		direction = domain.TrendRising
	case change.LessThan(trendBoundary.Neg()):
		direction = domain.TrendFalling
	}

	return &domain.TrendReport{
		Direction:     direction,
		RecentAvg:     recentAvg,
		OlderAvg:      olderAvg,
		ChangePercent: change,
		Samples:       len(samples),
	}, nil
}

// DailyVolume returns the mean daily traded volume over the trailing window,
// zero when there are no samples.
func (s *HistoryService) DailyVolume(itemID, city string, quality, days int, now time.Time) (int64, error) {
	if days <= 0 {
		days = DefaultBaselineDays
	}
	locs, err := s.locations(city)
	if err != nil {
		return 0, err
	}

	samples, err := s.store.HistorySamples(domain.GranularityDaily, itemID, locs, quality, now.AddDate(0, 0, -days))
	if err != nil {
		return 0, err
	}
	if len(samples) == 0 {
		return 0, nil
	}

	var sum int64
	for _, rec := range samples {
		sum += rec.Volume
	}
	return sum / int64(len(samples)), nil
}

// IsLiquid reports whether the item's mean daily volume meets the configured
// liquidity threshold.
func (s *HistoryService) IsLiquid(itemID, city string, quality int, now time.Time) (bool, error) {
	volume, err := s.DailyVolume(itemID, city, quality, DefaultBaselineDays, now)
	if err != nil {
		return false, err
	}
	return volume >= s.liquidityThreshold, nil
}

func meanPrice(samples []domain.PriceHistoryRecord) domain.Price {
	if len(samples) == 0 {
		return 0
	}
	var sum int64
	for _, rec := range samples {
		sum += int64(rec.AvgPrice)
	}
	n := int64(len(samples))
	return domain.Price((sum + n/2) / n)
}
