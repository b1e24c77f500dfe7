package domain

import (
	"fmt"
	"time"
)

// Granularity selects the daily or hourly price history table.
type Granularity string

const (
	GranularityDaily  Granularity = "daily"
	GranularityHourly Granularity = "hourly"
)

// IsValid reports whether the granularity is one of the two known values.
func (g Granularity) IsValid() bool {
	return g == GranularityDaily || g == GranularityHourly
}

// PriceHistoryRecord is one aggregated price/volume sample. Append-only,
// deduplicated by (item, location, quality, bucket); pruned by retention jobs.
type PriceHistoryRecord struct {
	ItemID       string    `gorm:"primaryKey" json:"item_id"`
	LocationID   int       `gorm:"primaryKey" json:"location_id"`
	QualityLevel int       `gorm:"primaryKey" json:"quality_level"`
	BucketStart  time.Time `gorm:"primaryKey" json:"bucket_start"`
	AvgPrice     Price     `json:"avg_price"`
	Volume       int64     `json:"volume"`
}

// Validate checks structural invariants before a sample enters the store.
func (r *PriceHistoryRecord) Validate() error {
	if r.ItemID == "" {
		return fmt.Errorf("%w: empty item id", ErrInvalidSample)
	}
	if r.BucketStart.IsZero() {
		return fmt.Errorf("%w: zero bucket start for %s", ErrInvalidSample, r.ItemID)
	}
	if r.AvgPrice <= 0 {
		return fmt.Errorf("%w: non-positive avg price for %s", ErrInvalidSample, r.ItemID)
	}
	if r.Volume < 0 {
		return fmt.Errorf("%w: negative volume for %s", ErrInvalidSample, r.ItemID)
	}
	if r.QualityLevel < 1 || r.QualityLevel > 5 {
		return fmt.Errorf("%w: quality %d out of range for %s", ErrInvalidSample, r.QualityLevel, r.ItemID)
	}
	return nil
}
