package app

import (
	"context"
	"log/slog"
	"time"

	"tradepost/internal/domain"
	"tradepost/internal/infra"
	"tradepost/internal/infra/storage"
)

// Sweeper periodically evicts expired/stale orders and prunes price history
// past its retention windows. Reads stay correct without it (read paths filter
// staleness themselves); the sweep keeps the store from growing unbounded.
type Sweeper struct {
	store           *storage.Store
	interval        time.Duration
	dailyRetention  time.Duration
	hourlyRetention time.Duration
}

// NewSweeper creates a new Sweeper instance
func NewSweeper(store *storage.Store, cfg *infra.Config) *Sweeper {
	return &Sweeper{
		store:           store,
		interval:        cfg.SweepInterval(),
		dailyRetention:  cfg.DailyRetention(),
		hourlyRetention: cfg.HourlyRetention(),
	}
}

// Start launches the background sweep loop. It stops when ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Sweeper stopping...")
				return
			case <-ticker.C:
				s.RunOnce(time.Now())
			}
		}
	}()
}

// RunOnce performs a single sweep pass. Failures are logged, not fatal: the
// next tick retries.
func (s *Sweeper) RunOnce(now time.Time) {
	evicted, err := s.store.EvictStale(now)
	if err != nil {
		slog.Error("Eviction sweep failed", slog.Any("error", err))
	} else if evicted > 0 {
		infra.GlobalMetrics.RecordEvicted(evicted)
		slog.Info("Evicted orders", slog.Int64("count", evicted))
	}

	prunedDaily, err := s.store.PruneHistory(domain.GranularityDaily, now.Add(-s.dailyRetention))
	if err != nil {
		slog.Error("Daily history prune failed", slog.Any("error", err))
	}
	prunedHourly, err := s.store.PruneHistory(domain.GranularityHourly, now.Add(-s.hourlyRetention))
	if err != nil {
		slog.Error("Hourly history prune failed", slog.Any("error", err))
	}
	if prunedDaily > 0 || prunedHourly > 0 {
		slog.Info("Pruned history",
			slog.Int64("daily", prunedDaily),
			slog.Int64("hourly", prunedHourly))
	}

	if err := s.store.SetStat(domain.StatLastSweepAt, now.UTC().Format(time.RFC3339)); err != nil {
		slog.Error("Failed to record sweep time", slog.Any("error", err))
	}
}
