package domain

import "time"

// StatRecord is one operational counter or marker (Key-Value)
type StatRecord struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the SQL table name for gorm.
func (StatRecord) TableName() string {
	return "stats"
}

// Well-known stats keys.
const (
	StatOrdersIngested = "orders_ingested_total"
	StatOrdersEvicted  = "orders_evicted_total"
	StatLastSweepAt    = "last_sweep_at"
	StatLastScanMillis = "last_scan_millis"
)
