package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	ordersIngested  atomic.Uint64
	ordersEvicted   atomic.Uint64
	batchesRejected atomic.Uint64
	scansCompleted  atomic.Uint64

	// Scan timing
	scanDurationSumNs atomic.Int64
	scanDurationCount atomic.Uint64

	// Gauges
	scanItemsProcessed atomic.Uint64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordIngested records a successfully applied order batch.
func (m *Metrics) RecordIngested(count int) {
	m.ordersIngested.Add(uint64(count))
}

// RecordEvicted records orders removed by an eviction sweep.
func (m *Metrics) RecordEvicted(count int64) {
	m.ordersEvicted.Add(uint64(count))
}

// RecordBatchRejected records a malformed batch refused as a whole.
func (m *Metrics) RecordBatchRejected() {
	m.batchesRejected.Add(1)
}

// RecordScan records a completed scan with its duration.
func (m *Metrics) RecordScan(d time.Duration) {
	m.scansCompleted.Add(1)
	m.scanDurationSumNs.Add(d.Nanoseconds())
	m.scanDurationCount.Add(1)
}

// SetScanProgress sets the item count processed by the running scan.
func (m *Metrics) SetScanProgress(items uint64) {
	m.scanItemsProcessed.Store(items)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	OrdersIngested     uint64
	OrdersEvicted      uint64
	BatchesRejected    uint64
	ScansCompleted     uint64
	AvgScanDurationNs  int64
	ScanItemsProcessed uint64
	Timestamp          time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgScan int64
	count := m.scanDurationCount.Load()
	if count > 0 {
		avgScan = m.scanDurationSumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		OrdersIngested:     m.ordersIngested.Load(),
		OrdersEvicted:      m.ordersEvicted.Load(),
		BatchesRejected:    m.batchesRejected.Load(),
		ScansCompleted:     m.scansCompleted.Load(),
		AvgScanDurationNs:  avgScan,
		ScanItemsProcessed: m.scanItemsProcessed.Load(),
		Timestamp:          time.Now(),
	}
}
