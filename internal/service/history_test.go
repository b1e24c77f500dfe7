package service

import (
	"testing"
	"time"

	"tradepost/internal/domain"
	"tradepost/internal/infra/storage"

	"github.com/shopspring/decimal"
)

func seedDaily(t *testing.T, s *storage.Store, daysAgo int, price int64, volume int64) {
	t.Helper()
	rec := domain.PriceHistoryRecord{
		ItemID:       "ORE_INGOT_T4",
		LocationID:   1,
		QualityLevel: 1,
		BucketStart:  time.Now().AddDate(0, 0, -daysAgo).Truncate(24 * time.Hour),
		AvgPrice:     domain.PriceFromDisplay(price),
		Volume:       volume,
	}
	if err := s.UpsertHistoryBatch(domain.GranularityDaily, []domain.PriceHistoryRecord{rec}); err != nil {
		t.Fatalf("seed daily sample failed: %v", err)
	}
}

func TestBaselineNoSamples(t *testing.T) {
	store := newTestStore(t)
	svc := NewHistoryService(store, testCityMap(), 50)

	baseline, err := svc.Baseline("ORE_INGOT_T4", "", 1, 28, time.Now())
	if err != nil {
		t.Fatalf("Baseline failed: %v", err)
	}
	if baseline != nil {
		t.Errorf("expected nil baseline without samples, got %v", baseline)
	}
}

func TestBaselineMean(t *testing.T) {
	store := newTestStore(t)
	svc := NewHistoryService(store, testCityMap(), 50)

	seedDaily(t, store, 1, 100, 10)
	seedDaily(t, store, 2, 200, 10)
	seedDaily(t, store, 3, 300, 10)
	// Outside the window, must be ignored.
	seedDaily(t, store, 40, 9000, 10)

	baseline, err := svc.Baseline("ORE_INGOT_T4", "", 1, 28, time.Now())
	if err != nil {
		t.Fatalf("Baseline failed: %v", err)
	}
	if baseline == nil {
		t.Fatal("expected a baseline")
	}
	if baseline.Display() != 200 {
		t.Errorf("expected baseline 200, got %d", baseline.Display())
	}
}

func TestTrendTooFewSamples(t *testing.T) {
	store := newTestStore(t)
	svc := NewHistoryService(store, testCityMap(), 50)

	for i := 1; i <= 6; i++ {
		seedDaily(t, store, i, 100, 10)
	}

	trend, err := svc.Trend("ORE_INGOT_T4", "", 1, time.Now())
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if trend != nil {
		t.Errorf("expected nil trend with 6 samples, got %+v", trend)
	}
}

func TestTrendRising(t *testing.T) {
	store := newTestStore(t)
	svc := NewHistoryService(store, testCityMap(), 50)

	// Recent 7 days at 150, the 7 before at 100: +50% change.
	for i := 1; i <= 7; i++ {
		seedDaily(t, store, i, 150, 10)
	}
	for i := 8; i <= 14; i++ {
		seedDaily(t, store, i, 100, 10)
	}

	trend, err := svc.Trend("ORE_INGOT_T4", "", 1, time.Now())
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if trend == nil {
		t.Fatal("expected a trend")
	}
	if trend.Direction != domain.TrendRising {
		t.Errorf("expected RISING, got %s", trend.Direction)
	}
	if !trend.ChangePercent.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected change 50%%, got %s", trend.ChangePercent)
	}
	if trend.RecentAvg.Display() != 150 || trend.OlderAvg.Display() != 100 {
		t.Errorf("unexpected averages: recent=%d older=%d", trend.RecentAvg.Display(), trend.OlderAvg.Display())
	}
}

func TestTrendFalling(t *testing.T) {
	store := newTestStore(t)
	svc := NewHistoryService(store, testCityMap(), 50)

	for i := 1; i <= 7; i++ {
		seedDaily(t, store, i, 80, 10)
	}
	for i := 8; i <= 14; i++ {
		seedDaily(t, store, i, 100, 10)
	}

	trend, err := svc.Trend("ORE_INGOT_T4", "", 1, time.Now())
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if trend == nil {
		t.Fatal("expected a trend")
	}
	if trend.Direction != domain.TrendFalling {
		t.Errorf("expected FALLING, got %s", trend.Direction)
	}
}

func TestTrendRecentOnlyBelowFourteenSamples(t *testing.T) {
	store := newTestStore(t)
	svc := NewHistoryService(store, testCityMap(), 50)

	// 8 samples total: a lone older sample must not enter the comparison, so
	// the split stays recent-only and the trend classifies stable.
	for i := 1; i <= 7; i++ {
		seedDaily(t, store, i, 150, 10)
	}
	seedDaily(t, store, 8, 100, 10)

	trend, err := svc.Trend("ORE_INGOT_T4", "", 1, time.Now())
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if trend == nil {
		t.Fatal("expected a trend")
	}
	if trend.Direction != domain.TrendStable {
		t.Errorf("expected STABLE with 8 samples, got %s", trend.Direction)
	}
	if !trend.ChangePercent.IsZero() {
		t.Errorf("expected zero change, got %s", trend.ChangePercent)
	}
	if trend.Samples != 8 {
		t.Errorf("expected 8 samples counted, got %d", trend.Samples)
	}
}

func TestTrendStableWithoutOlderSamples(t *testing.T) {
	store := newTestStore(t)
	svc := NewHistoryService(store, testCityMap(), 50)

	// Exactly 7 samples: no older split, classification falls back to stable.
	for i := 1; i <= 7; i++ {
		seedDaily(t, store, i, 120, 10)
	}

	trend, err := svc.Trend("ORE_INGOT_T4", "", 1, time.Now())
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if trend == nil {
		t.Fatal("expected a trend")
	}
	if trend.Direction != domain.TrendStable {
		t.Errorf("expected STABLE, got %s", trend.Direction)
	}
	if !trend.ChangePercent.IsZero() {
		t.Errorf("expected zero change, got %s", trend.ChangePercent)
	}
}

func TestTrendBoundaryIsExclusive(t *testing.T) {
	store := newTestStore(t)
	svc := NewHistoryService(store, testCityMap(), 50)

	// Exactly +5%: stays stable, the boundary is exclusive.
	for i := 1; i <= 7; i++ {
		seedDaily(t, store, i, 105, 10)
	}
	for i := 8; i <= 14; i++ {
		seedDaily(t, store, i, 100, 10)
	}

	trend, err := svc.Trend("ORE_INGOT_T4", "", 1, time.Now())
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if trend == nil {
		t.Fatal("expected a trend")
	}
	if trend.Direction != domain.TrendStable {
		t.Errorf("expected STABLE at exactly +5%%, got %s", trend.Direction)
	}
}

func TestDailyVolumeAndLiquidity(t *testing.T) {
	store := newTestStore(t)
	svc := NewHistoryService(store, testCityMap(), 50)

	seedDaily(t, store, 1, 100, 90)
	seedDaily(t, store, 2, 100, 30)

	volume, err := svc.DailyVolume("ORE_INGOT_T4", "", 1, 28, time.Now())
	if err != nil {
		t.Fatalf("DailyVolume failed: %v", err)
	}
	if volume != 60 {
		t.Errorf("expected mean volume 60, got %d", volume)
	}

	liquid, err := svc.IsLiquid("ORE_INGOT_T4", "", 1, time.Now())
	if err != nil {
		t.Fatalf("IsLiquid failed: %v", err)
	}
	if !liquid {
		t.Error("expected item to be liquid at threshold 50")
	}
}
