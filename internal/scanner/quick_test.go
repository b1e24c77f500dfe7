package scanner

import (
	"path/filepath"
	"testing"
	"time"

	"tradepost/internal/domain"
	"tradepost/internal/infra/storage"

	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), 5*time.Minute)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func testCityMap() *domain.CityMap {
	return domain.NewCityMap(map[string][]int{
		"Aldport": {1},
		"Bastion": {2},
		"Duskhaven": {3},
	})
}

func seedOrder(t *testing.T, s *storage.Store, id uint64, item string, location int, side domain.OrderSide, price int64, amount int, lastSeen time.Time) {
	t.Helper()
	order := domain.MarketOrder{
		OrderID:      id,
		ItemID:       item,
		LocationID:   location,
		QualityLevel: 1,
		Price:        domain.PriceFromDisplay(price),
		Amount:       amount,
		Side:         side,
		ExpiresAt:    lastSeen.Add(24 * time.Hour),
	}
	if err := s.UpsertOrder(&order, lastSeen); err != nil {
		t.Fatalf("seed order %d failed: %v", id, err)
	}
}

func TestQuickScanStrategies(t *testing.T) {
	store := newTestStore(t)
	scanner := NewQuickScanner(store, testCityMap())
	now := time.Now()

	// Aldport sells at 800; Bastion buys at 950 and sells at 1200.
	seedOrder(t, store, 1, "WOOD_PLANK_T4", 1, domain.SideOffer, 800, 5, now.Add(-2*time.Minute))
	seedOrder(t, store, 2, "WOOD_PLANK_T4", 2, domain.SideRequest, 950, 5, now)
	seedOrder(t, store, 3, "WOOD_PLANK_T4", 2, domain.SideOffer, 1200, 5, now)

	opps, err := scanner.Scan("WOOD_PLANK_T4", 1, decimal.NewFromInt(10), now)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(opps) != 1 {
		t.Fatalf("expected 1 opportunity, got %d", len(opps))
	}

	opp := opps[0]
	if opp.BuyCity != "Aldport" || opp.SellCity != "Bastion" {
		t.Errorf("unexpected pair %s -> %s", opp.BuyCity, opp.SellCity)
	}
	if opp.BuyPrice.Display() != 800 {
		t.Errorf("expected buy price 800, got %d", opp.BuyPrice.Display())
	}
	if opp.InstantPrice == nil || opp.InstantPrice.Display() != 950 {
		t.Errorf("expected instant price 950, got %v", opp.InstantPrice)
	}
	if opp.InstantProfit.Display() != 150 {
		t.Errorf("expected instant profit 150, got %d", opp.InstantProfit.Display())
	}
	// Undercut: one display unit below Bastion's best sell.
	if opp.UndercutPrice == nil || opp.UndercutPrice.Display() != 1199 {
		t.Errorf("expected undercut price 1199, got %v", opp.UndercutPrice)
	}
	if opp.BestStrategy != domain.StrategyUndercut {
		t.Errorf("expected UNDERCUT best, got %s", opp.BestStrategy)
	}
	if opp.DataAgeMinutes != 2 {
		t.Errorf("expected worst-case data age 2 minutes, got %d", opp.DataAgeMinutes)
	}
}

func TestQuickScanMinProfitFilter(t *testing.T) {
	store := newTestStore(t)
	scanner := NewQuickScanner(store, testCityMap())
	now := time.Now()

	// Only ~6% instant margin, no destination sell to undercut.
	seedOrder(t, store, 1, "WOOD_PLANK_T4", 1, domain.SideOffer, 800, 5, now)
	seedOrder(t, store, 2, "WOOD_PLANK_T4", 2, domain.SideRequest, 850, 5, now)

	opps, err := scanner.Scan("WOOD_PLANK_T4", 1, decimal.NewFromInt(10), now)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(opps) != 0 {
		t.Errorf("expected no opportunities above 10%%, got %d", len(opps))
	}

	opps, err = scanner.Scan("WOOD_PLANK_T4", 1, decimal.NewFromInt(5), now)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(opps) != 1 {
		t.Errorf("expected 1 opportunity above 5%%, got %d", len(opps))
	}
}

func TestQuickScanSortsByBestPercent(t *testing.T) {
	store := newTestStore(t)
	scanner := NewQuickScanner(store, testCityMap())
	now := time.Now()

	seedOrder(t, store, 1, "WOOD_PLANK_T4", 1, domain.SideOffer, 800, 5, now)
	seedOrder(t, store, 2, "WOOD_PLANK_T4", 2, domain.SideRequest, 900, 5, now)  // +12.5%
	seedOrder(t, store, 3, "WOOD_PLANK_T4", 3, domain.SideRequest, 1100, 5, now) // +37.5%

	opps, err := scanner.Scan("WOOD_PLANK_T4", 1, decimal.NewFromInt(10), now)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(opps) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(opps))
	}
	if opps[0].SellCity != "Duskhaven" || opps[1].SellCity != "Bastion" {
		t.Errorf("wrong order: %s then %s", opps[0].SellCity, opps[1].SellCity)
	}
	if opps[0].BestProfitPercent.LessThan(opps[1].BestProfitPercent) {
		t.Error("results not sorted by best profit percent descending")
	}
}

func TestFilterAlerts(t *testing.T) {
	opps := []domain.ArbitrageOpportunity{
		{ItemID: "WOOD_PLANK_T4", BuyCity: "Aldport", SellCity: "Bastion", BestProfitPercent: decimal.NewFromInt(20)},
		{ItemID: "ORE_INGOT_T4", BuyCity: "Aldport", SellCity: "Bastion", BestProfitPercent: decimal.NewFromInt(8)},
	}

	alerts := []*domain.ProfitAlert{
		domain.NewProfitAlert("", "", "", decimal.NewFromInt(15), true),
	}
	matched := FilterAlerts(opps, alerts)
	if len(matched) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matched))
	}
	if matched[0].ItemID != "WOOD_PLANK_T4" {
		t.Errorf("wrong match: %s", matched[0].ItemID)
	}

	// One-shot alerts deactivate after their first match.
	oneShot := domain.NewProfitAlert("", "", "", decimal.NewFromInt(5), false)
	matched = FilterAlerts(opps, []*domain.ProfitAlert{oneShot})
	if len(matched) != 1 {
		t.Fatalf("expected 1 one-shot match, got %d", len(matched))
	}
	if oneShot.IsActive() {
		t.Error("one-shot alert should be inactive after matching")
	}
}
