package infra

import (
	"errors"
	"fmt"
	"os"
	"time"

	"tradepost/internal/domain"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Sensitive or deployment-specific
// values can be overridden through environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	Market struct {
		StaleWindowMin       int `yaml:"stale_window_min"`
		SweepIntervalSec     int `yaml:"sweep_interval_sec"`
		DailyRetentionDays   int `yaml:"daily_retention_days"`
		HourlyRetentionHours int `yaml:"hourly_retention_hours"`
	} `yaml:"market"`

	Trade struct {
		TaxRate            float64 `yaml:"tax_rate"`
		TransportCost      int64   `yaml:"transport_cost"` // display units per trip
		CarryCapacity      float64 `yaml:"carry_capacity"` // weight units; 0 = unlimited
		MinProfitPercent   float64 `yaml:"min_profit_percent"`
		LiquidityThreshold int64   `yaml:"liquidity_threshold"` // min avg daily volume
	} `yaml:"trade"`

	Scan struct {
		Parallelism   int `yaml:"parallelism"`
		ProgressEvery int `yaml:"progress_every"`
	} `yaml:"scan"`

	Reference struct {
		Cities  map[string][]int   `yaml:"cities"`  // city -> physical location ids
		Weights map[string]float64 `yaml:"weights"` // item id -> weight per unit
	} `yaml:"reference"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies env overrides
// and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return &domain.ConfigError{Field: "store.path", Err: errors.New("path is required")}
	}
	if c.Market.StaleWindowMin <= 0 {
		return &domain.ConfigError{Field: "market.stale_window_min", Err: errors.New("must be positive")}
	}
	if c.Market.SweepIntervalSec <= 0 {
		return &domain.ConfigError{Field: "market.sweep_interval_sec", Err: errors.New("must be positive")}
	}
	if c.Market.DailyRetentionDays <= 0 || c.Market.HourlyRetentionHours <= 0 {
		return &domain.ConfigError{Field: "market", Err: errors.New("retention windows must be positive")}
	}
	if c.Trade.TaxRate < 0 || c.Trade.TaxRate >= 1 {
		return &domain.ConfigError{Field: "trade.tax_rate", Err: errors.New("must be in [0, 1)")}
	}
	if c.Trade.TransportCost < 0 {
		return &domain.ConfigError{Field: "trade.transport_cost", Err: errors.New("must not be negative")}
	}
	if len(c.Reference.Cities) == 0 {
		return &domain.ConfigError{Field: "reference.cities", Err: errors.New("at least one city mapping is required")}
	}
	seen := make(map[int]string)
	for city, locs := range c.Reference.Cities {
		if len(locs) == 0 {
			return &domain.ConfigError{Field: "reference.cities", Err: fmt.Errorf("city %q has no locations", city)}
		}
		for _, id := range locs {
			if other, dup := seen[id]; dup {
				return &domain.ConfigError{Field: "reference.cities", Err: fmt.Errorf("location %d mapped to both %q and %q", id, other, city)}
			}
			seen[id] = city
		}
	}
	return nil
}

// StaleWindow returns the staleness threshold as a duration.
func (c *Config) StaleWindow() time.Duration {
	return time.Duration(c.Market.StaleWindowMin) * time.Minute
}

// SweepInterval returns the eviction sweep period.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Market.SweepIntervalSec) * time.Second
}

// DailyRetention returns how long daily history samples are kept.
func (c *Config) DailyRetention() time.Duration {
	return time.Duration(c.Market.DailyRetentionDays) * 24 * time.Hour
}

// HourlyRetention returns how long hourly history samples are kept.
func (c *Config) HourlyRetention() time.Duration {
	return time.Duration(c.Market.HourlyRetentionHours) * time.Hour
}

// overrideWithEnv overrides settings from environment variables when present.
func overrideWithEnv(cfg *Config) {
	if path := os.Getenv("TRADEPOST_DB_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if level := os.Getenv("TRADEPOST_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
