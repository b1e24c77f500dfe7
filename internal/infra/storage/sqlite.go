package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"tradepost/internal/domain"
	"tradepost/internal/infra"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	dailyTable  = "price_history_daily"
	hourlyTable = "price_history_hourly"

	upsertBatchSize = 500
)

// Store is the embedded SQLite store for the order book, price history and
// operational stats. One Store per process, explicitly opened and closed by
// its owner.
type Store struct {
	db          *gorm.DB
	staleWindow time.Duration
}

// Open connects to the SQLite database at path, creating directories and
// migrating the schema as needed. WAL mode keeps readers unblocked during a
// writer's transaction.
func Open(path string, staleWindow time.Duration) (*Store, error) {
	dbDir := filepath.Dir(path)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: db, staleWindow: staleWindow}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(&domain.MarketOrder{}, &domain.StatRecord{}, &domain.IngestFailure{}); err != nil {
		return err
	}
	for _, table := range []string{dailyTable, hourlyTable} {
		if err := s.db.Table(table).AutoMigrate(&domain.PriceHistoryRecord{}); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StaleWindow returns the staleness threshold this store filters with.
func (s *Store) StaleWindow() time.Duration {
	return s.staleWindow
}

// live restricts a query to orders that are neither expired nor stale at now.
// Read paths always apply this, so a read right after ingestion is correct
// even before the sweep has run.
func (s *Store) live(q *gorm.DB, now time.Time) *gorm.DB {
	return q.Where("expires_at > ? AND last_seen_at > ?", now, now.Add(-s.staleWindow))
}

// ======================================================================================
// Order Operations
// ======================================================================================

// UpsertOrder creates or refreshes a single order by its external id. The
// store stamps LastSeenAt with the ingestion time; whatever the caller left on
// the struct is overwritten, so a re-confirmed order is always live again.
func (s *Store) UpsertOrder(order *domain.MarketOrder, now time.Time) error {
	order.LastSeenAt = now
	if err := order.Validate(); err != nil {
		return err
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		UpdateAll: true,
	}).Create(order).Error
	if err != nil {
		return domain.NewStorageError("upsert order", err)
	}
	return nil
}

// UpsertOrderBatch applies one ingestion batch atomically: either every order
// in the batch becomes visible or none does. Every order gets LastSeenAt
// stamped with the ingestion time. A malformed batch is rejected as a whole,
// recorded for targeted re-ingestion, and does not affect later batches.
func (s *Store) UpsertOrderBatch(orders []domain.MarketOrder, now time.Time) error {
	if len(orders) == 0 {
		return nil
	}

	batchID := uuid.NewString()
	for i := range orders {
		orders[i].LastSeenAt = now
		if err := orders[i].Validate(); err != nil {
			ierr := &domain.IngestError{BatchID: batchID, Err: err}
			if rerr := s.RecordIngestFailure(&domain.IngestFailure{
				ID:         batchID,
				Kind:       "orders",
				ItemID:     orders[i].ItemID,
				Reason:     err.Error(),
				OccurredAt: time.Now(),
			}); rerr != nil {
				slog.Error("Failed to record ingest failure", slog.Any("error", rerr))
			}
			infra.GlobalMetrics.RecordBatchRejected()
			return ierr
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			UpdateAll: true,
		}).CreateInBatches(orders, upsertBatchSize).Error
	})
	if err != nil {
		return domain.NewStorageError("upsert order batch", err)
	}
	infra.GlobalMetrics.RecordIngested(len(orders))
	return s.IncrStat(domain.StatOrdersIngested, int64(len(orders)))
}

// EvictStale removes orders whose expiry has passed or that were not
// reconfirmed within the staleness window. Returns the count removed.
func (s *Store) EvictStale(now time.Time) (int64, error) {
	res := s.db.Where("expires_at < ? OR last_seen_at < ?", now, now.Add(-s.staleWindow)).
		Delete(&domain.MarketOrder{})
	if res.Error != nil {
		return 0, domain.NewStorageError("evict", res.Error)
	}
	if res.RowsAffected > 0 {
		if err := s.IncrStat(domain.StatOrdersEvicted, res.RowsAffected); err != nil {
			return res.RowsAffected, err
		}
	}
	return res.RowsAffected, nil
}

// ValidOrders returns live orders for one item, optionally narrowed to a set
// of locations and a quality level (0 = any quality).
func (s *Store) ValidOrders(itemID string, locationIDs []int, quality int, now time.Time) ([]domain.MarketOrder, error) {
	q := s.db.Where("item_id = ?", itemID)
	if len(locationIDs) > 0 {
		q = q.Where("location_id IN ?", locationIDs)
	}
	if quality > 0 {
		q = q.Where("quality_level = ?", quality)
	}

	var orders []domain.MarketOrder
	if err := s.live(q, now).Find(&orders).Error; err != nil {
		return nil, domain.NewStorageError("query orders", err)
	}
	return orders, nil
}

// AllValidOrders returns every live order in one bulk query. The depth-optimal
// scanner builds its in-memory index from this single result set instead of
// issuing per-city-pair queries.
func (s *Store) AllValidOrders(now time.Time) ([]domain.MarketOrder, error) {
	var orders []domain.MarketOrder
	if err := s.live(s.db, now).Find(&orders).Error; err != nil {
		return nil, domain.NewStorageError("query all orders", err)
	}
	return orders, nil
}

// CountLiveOrders returns the number of live orders.
func (s *Store) CountLiveOrders(now time.Time) (int64, error) {
	var count int64
	if err := s.live(s.db.Model(&domain.MarketOrder{}), now).Count(&count).Error; err != nil {
		return 0, domain.NewStorageError("count orders", err)
	}
	return count, nil
}

// ======================================================================================
// Price History Operations
// ======================================================================================

func historyTable(g domain.Granularity) string {
	if g == domain.GranularityHourly {
		return hourlyTable
	}
	return dailyTable
}

// bucketRange returns the earliest and latest bucket start across a batch,
// recorded on rejection so the affected date range is known.
func bucketRange(records []domain.PriceHistoryRecord) (time.Time, time.Time) {
	start, end := records[0].BucketStart, records[0].BucketStart
	for _, r := range records[1:] {
		if r.BucketStart.Before(start) {
			start = r.BucketStart
		}
		if r.BucketStart.After(end) {
			end = r.BucketStart
		}
	}
	return start, end
}

// UpsertHistoryBatch applies one history ingestion batch atomically,
// deduplicating on (item, location, quality, bucket). A malformed batch is
// rejected as a whole and recorded with its bucket range, so the missing
// item/date-range can be re-ingested without a full re-run.
func (s *Store) UpsertHistoryBatch(g domain.Granularity, records []domain.PriceHistoryRecord) error {
	if !g.IsValid() {
		return fmt.Errorf("unknown granularity %q", g)
	}
	if len(records) == 0 {
		return nil
	}

	batchID := uuid.NewString()
	for i := range records {
		if err := records[i].Validate(); err != nil {
			rangeStart, rangeEnd := bucketRange(records)
			if rerr := s.RecordIngestFailure(&domain.IngestFailure{
				ID:         batchID,
				Kind:       "history_" + string(g),
				ItemID:     records[i].ItemID,
				RangeStart: rangeStart,
				RangeEnd:   rangeEnd,
				Reason:     err.Error(),
				OccurredAt: time.Now(),
			}); rerr != nil {
				slog.Error("Failed to record ingest failure", slog.Any("error", rerr))
			}
			infra.GlobalMetrics.RecordBatchRejected()
			return &domain.IngestError{BatchID: batchID, Err: err}
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Table(historyTable(g)).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "item_id"}, {Name: "location_id"},
				{Name: "quality_level"}, {Name: "bucket_start"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"avg_price", "volume"}),
		}).CreateInBatches(records, upsertBatchSize).Error
	})
	if err != nil {
		return domain.NewStorageError("upsert history batch", err)
	}
	return nil
}

// PruneHistory removes samples whose bucket started before the cutoff.
// Returns the count removed.
func (s *Store) PruneHistory(g domain.Granularity, cutoff time.Time) (int64, error) {
	res := s.db.Table(historyTable(g)).Where("bucket_start < ?", cutoff).
		Delete(&domain.PriceHistoryRecord{})
	if res.Error != nil {
		return 0, domain.NewStorageError("prune history", res.Error)
	}
	return res.RowsAffected, nil
}

// HistorySamples returns samples for one item since a cutoff, most recent
// bucket first, optionally narrowed to locations and quality (0 = any).
func (s *Store) HistorySamples(g domain.Granularity, itemID string, locationIDs []int, quality int, since time.Time) ([]domain.PriceHistoryRecord, error) {
	q := s.db.Table(historyTable(g)).
		Where("item_id = ? AND bucket_start >= ?", itemID, since)
	if len(locationIDs) > 0 {
		q = q.Where("location_id IN ?", locationIDs)
	}
	if quality > 0 {
		q = q.Where("quality_level = ?", quality)
	}

	var records []domain.PriceHistoryRecord
	if err := q.Order("bucket_start DESC").Find(&records).Error; err != nil {
		return nil, domain.NewStorageError("query history", err)
	}
	return records, nil
}

// ======================================================================================
// Stats & Bookkeeping Operations
// ======================================================================================

// SetStat saves an operational stat value.
func (s *Store) SetStat(key, value string) error {
	stat := domain.StatRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := s.db.Save(&stat).Error; err != nil {
		return domain.NewStorageError("set stat", err)
	}
	return nil
}

// GetStat retrieves a stat value; empty string when unset.
func (s *Store) GetStat(key string) (string, error) {
	var stat domain.StatRecord
	err := s.db.First(&stat, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil // Unset is not an error
	}
	if err != nil {
		return "", domain.NewStorageError("get stat", err)
	}
	return stat.Value, nil
}

// IncrStat adds delta to an integer-valued stat.
func (s *Store) IncrStat(key string, delta int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var stat domain.StatRecord
		err := tx.First(&stat, "key = ?", key).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewStorageError("incr stat", err)
		}
		current, _ := strconv.ParseInt(stat.Value, 10, 64)
		stat.Key = key
		stat.Value = strconv.FormatInt(current+delta, 10)
		stat.UpdatedAt = time.Now()
		return tx.Save(&stat).Error
	})
}

// RecordIngestFailure persists bookkeeping for a rejected batch so missing
// items/date-ranges can be re-ingested without a full re-run.
func (s *Store) RecordIngestFailure(f *domain.IngestFailure) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.OccurredAt.IsZero() {
		f.OccurredAt = time.Now()
	}
	if err := s.db.Create(f).Error; err != nil {
		return domain.NewStorageError("record ingest failure", err)
	}
	return nil
}

// RecentIngestFailures returns the newest failure rows, most recent first.
func (s *Store) RecentIngestFailures(limit int) ([]domain.IngestFailure, error) {
	var failures []domain.IngestFailure
	err := s.db.Order("occurred_at DESC").Limit(limit).Find(&failures).Error
	if err != nil {
		return nil, domain.NewStorageError("query ingest failures", err)
	}
	return failures, nil
}
