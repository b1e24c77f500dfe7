package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradepost/internal/domain"
)

func validTestConfig() *Config {
	var cfg Config
	cfg.Store.Path = "data/test.db"
	cfg.Market.StaleWindowMin = 5
	cfg.Market.SweepIntervalSec = 60
	cfg.Market.DailyRetentionDays = 30
	cfg.Market.HourlyRetentionHours = 48
	cfg.Trade.TaxRate = 0.04
	cfg.Reference.Cities = map[string][]int{"Aldport": {1, 2}, "Bastion": {3}}
	return &cfg
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	if err := validTestConfig().Validate(); err != nil {
		t.Fatalf("Validate rejected a good config: %v", err)
	}
}

func TestValidateReportsConfigError(t *testing.T) {
	cfg := validTestConfig()
	cfg.Trade.TaxRate = 1.5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var cerr *domain.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cerr.Field != "trade.tax_rate" {
		t.Errorf("expected field 'trade.tax_rate', got %q", cerr.Field)
	}
	if domain.IsRetriable(err) {
		t.Error("config errors are never retriable")
	}
}

func TestValidateRejectsDuplicateLocation(t *testing.T) {
	cfg := validTestConfig()
	cfg.Reference.Cities = map[string][]int{"Aldport": {1}, "Bastion": {1}}

	var cerr *domain.ConfigError
	if err := cfg.Validate(); !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError for duplicate location, got %v", err)
	}
}

const testConfigYAML = `
store:
  path: "data/test.db"
market:
  stale_window_min: 5
  sweep_interval_sec: 60
  daily_retention_days: 30
  hourly_retention_hours: 48
trade:
  tax_rate: 0.04
reference:
  cities:
    Aldport: [1, 2]
    Bastion: [3]
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.StaleWindow() != 5*time.Minute {
		t.Errorf("expected stale window 5m, got %s", cfg.StaleWindow())
	}
	if cfg.DailyRetention() != 30*24*time.Hour {
		t.Errorf("expected daily retention 720h, got %s", cfg.DailyRetention())
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TRADEPOST_DB_PATH", "/tmp/override.db")

	cfg, err := LoadConfig(writeTestConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Store.Path != "/tmp/override.db" {
		t.Errorf("env override ignored, got %q", cfg.Store.Path)
	}
}
