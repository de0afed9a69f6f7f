// Package interfaces defines service contracts for Fundwatch
package interfaces

import (
	"context"

	"github.com/bobmcallan/fundwatch/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	FundStore() FundStore
	NavStore() NavStore
	KeyValueStorage() KeyValueStorage

	// DataPath returns the base data directory path.
	DataPath() string

	// WriteRaw archives arbitrary data to a landing-zone subdirectory
	// atomically. Key is sanitized for safe filenames.
	WriteRaw(subdir, key string, data []byte) error

	// PruneRaw removes landing-zone files older than retainDays.
	// Returns the number of files removed.
	PruneRaw(subdir string, retainDays int) (int, error)

	// Lifecycle
	Close() error
}

// FundStore manages fund metadata, keyed by scheme code.
type FundStore interface {
	// Get retrieves metadata for a scheme code.
	Get(ctx context.Context, schemeCode int) (*models.FundMetadata, error)

	// List returns all known funds.
	List(ctx context.Context) ([]*models.FundMetadata, error)

	// Count returns the number of known funds.
	Count(ctx context.Context) (int, error)
}

// NavStore manages the per-fund NAV time series.
type NavStore interface {
	// GetHistory returns a fund's observations ordered ascending by date.
	// Unknown codes yield an empty series, not an error.
	GetHistory(ctx context.Context, schemeCode int) (models.NavSeries, error)

	// UpsertBatch atomically writes a day's metadata and NAV records.
	// (scheme_code, date) conflicts overwrite; re-running an identical
	// batch leaves the store unchanged. Returns the NAV upsert count.
	UpsertBatch(ctx context.Context, records []models.NavRecord) (int, error)
}

// KeyValueStorage provides simple system-level key-value persistence
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
