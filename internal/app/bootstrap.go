package app

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"tradepost/internal/domain"
	"tradepost/internal/infra"
	"tradepost/internal/infra/storage"
	"tradepost/internal/scanner"
	"tradepost/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Store   *storage.Store
	Cities  *domain.CityMap
	Depth   *service.DepthService
	History *service.HistoryService
	Quick   *scanner.QuickScanner
	Optimal *scanner.OptimalScanner
	Sweeper *Sweeper
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization. Storage unavailable here is
// fatal: nothing can be served without the backing store.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping Tradepost...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Open Storage (DB)
	store, err := storage.Open(cfg.Store.Path, cfg.StaleWindow())
	if err != nil {
		return err
	}
	b.Store = store
	slog.Info("✅ Database initialized", slog.String("path", cfg.Store.Path))

	// 4. Reference data and query services
	b.Cities = domain.NewCityMap(cfg.Reference.Cities)
	b.Depth = service.NewDepthService(store, b.Cities)
	b.History = service.NewHistoryService(store, b.Cities, cfg.Trade.LiquidityThreshold)
	weights := make(domain.WeightTable, len(cfg.Reference.Weights))
	for itemID, w := range cfg.Reference.Weights {
		weights[itemID] = decimal.NewFromFloat(w)
	}
	b.Quick = scanner.NewQuickScanner(store, b.Cities)
	b.Optimal = scanner.NewOptimalScanner(store, b.Cities, scanner.OptimalConfig{
		TaxRate:       decimal.NewFromFloat(cfg.Trade.TaxRate),
		TransportCost: domain.PriceFromDisplay(cfg.Trade.TransportCost),
		CarryCapacity: decimal.NewFromFloat(cfg.Trade.CarryCapacity),
		Weights:       weights,
		Parallelism:   cfg.Scan.Parallelism,
		ProgressEvery: cfg.Scan.ProgressEvery,
	})
	b.Sweeper = NewSweeper(store, cfg)
	slog.Info("✅ Services ready", slog.Int("cities", len(b.Cities.Cities())))

	return nil
}

// Close releases the backing store.
func (b *Bootstrap) Close() {
	if b.Store != nil {
		if err := b.Store.Close(); err != nil {
			slog.Error("Failed to close store", slog.Any("error", err))
		}
	}
}
