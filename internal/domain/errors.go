package domain

import (
	"errors"
	"time"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// StorageError wraps a failure of the backing store. Retriable for transient
// failures (busy database), not for structural ones.
type StorageError struct {
	Op        string // Operation that failed (e.g., "upsert", "evict", "query")
	Err       error  // Underlying error
	Retriable bool
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) IsRetriable() bool {
	return e.Retriable
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a retriable storage error
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err, Retriable: true}
}

// NewFatalStorageError creates a non-retriable storage error
func NewFatalStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err, Retriable: false}
}

// IngestError reports a rejected ingestion batch. The batch as a whole is
// refused; subsequent batches still apply, so it is never retriable as-is.
type IngestError struct {
	BatchID string
	Err     error
}

func (e *IngestError) Error() string {
	return "ingest batch " + e.BatchID + " rejected: " + e.Err.Error()
}

func (e *IngestError) IsRetriable() bool {
	return false
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IngestFailure is the persisted bookkeeping row for a rejected batch: which
// items/date-ranges are missing and why, to support targeted re-ingestion.
type IngestFailure struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Kind       string    `json:"kind"` // "orders", "history_daily", "history_hourly"
	ItemID     string    `json:"item_id,omitempty"`
	RangeStart time.Time `json:"range_start,omitempty"`
	RangeEnd   time.Time `json:"range_end,omitempty"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `gorm:"index" json:"occurred_at"`
}

// TableName sets the SQL table name for gorm.
func (IngestFailure) TableName() string {
	return "ingest_failures"
}

var (
	// ErrInvalidOrder is returned when an ingested order fails validation. Not retriable.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInvalidSample is returned when an ingested history sample fails validation.
	ErrInvalidSample = errors.New("invalid history sample")

	// ErrUnknownCity is returned when a city has no location mapping.
	ErrUnknownCity = errors.New("unknown city")

	// ErrStoreClosed is returned when an operation hits a closed store.
	ErrStoreClosed = errors.New("store closed")
)
