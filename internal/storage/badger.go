// Package storage provides BadgerDB-based persistence
package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/models"
)

// BadgerDB wraps badgerhold for typed storage
type BadgerDB struct {
	store  *badgerhold.Store
	logger *common.Logger
}

// NewBadgerDB creates a new BadgerDB instance
func NewBadgerDB(logger *common.Logger, path string) (*BadgerDB, error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil // Disable badger's internal logging

	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerDB opened")

	return &BadgerDB{
		store:  store,
		logger: logger,
	}, nil
}

// Close closes the database
func (db *BadgerDB) Close() error {
	if db.store != nil {
		return db.store.Close()
	}
	return nil
}

// Store returns the underlying badgerhold store
func (db *BadgerDB) Store() *badgerhold.Store {
	return db.store
}

// fundStore implements FundStore using BadgerDB
type fundStore struct {
	db     *BadgerDB
	logger *common.Logger
}

func newFundStore(db *BadgerDB, logger *common.Logger) *fundStore {
	return &fundStore{db: db, logger: logger}
}

func (s *fundStore) Get(ctx context.Context, schemeCode int) (*models.FundMetadata, error) {
	var fund models.FundMetadata
	err := s.db.store.Get(schemeCode, &fund)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("fund %d not found", schemeCode)
		}
		return nil, fmt.Errorf("failed to get fund: %w", err)
	}
	return &fund, nil
}

func (s *fundStore) List(ctx context.Context) ([]*models.FundMetadata, error) {
	var funds []models.FundMetadata
	err := s.db.store.Find(&funds, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}

	sort.Slice(funds, func(i, j int) bool {
		return funds[i].SchemeCode < funds[j].SchemeCode
	})

	result := make([]*models.FundMetadata, len(funds))
	for i := range funds {
		result[i] = &funds[i]
	}
	return result, nil
}

func (s *fundStore) Count(ctx context.Context) (int, error) {
	count, err := s.db.store.Count(models.FundMetadata{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count funds: %w", err)
	}
	return int(count), nil
}

// navStore implements NavStore using BadgerDB
type navStore struct {
	db     *BadgerDB
	logger *common.Logger
}

func newNavStore(db *BadgerDB, logger *common.Logger) *navStore {
	return &navStore{db: db, logger: logger}
}

func (s *navStore) GetHistory(ctx context.Context, schemeCode int) (models.NavSeries, error) {
	var observations []models.NavObservation
	query := badgerhold.Where("SchemeCode").Eq(schemeCode).Index("SchemeCode")
	err := s.db.store.Find(&observations, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get nav history: %w", err)
	}

	sort.Slice(observations, func(i, j int) bool {
		return observations[i].Date.Before(observations[j].Date)
	})

	return models.NavSeries(observations), nil
}

// UpsertBatch writes a batch's metadata and NAV records in one badger
// transaction. Metadata is upsert-by-key: funds absent from the batch
// keep their last known name. NAV conflicts on (scheme_code, date)
// overwrite the stored value, so re-running an identical batch is a
// state-level no-op.
func (s *navStore) UpsertBatch(ctx context.Context, records []models.NavRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	// Distinct (scheme_code, scheme_name) pairs; last occurrence wins.
	funds := make(map[int]string, len(records))
	for _, r := range records {
		funds[r.SchemeCode] = r.SchemeName
	}

	now := time.Now()
	upserts := 0

	err := s.db.store.Badger().Update(func(tx *badger.Txn) error {
		for code, name := range funds {
			meta := models.FundMetadata{
				SchemeCode: code,
				SchemeName: name,
				UpdatedAt:  now,
			}
			if err := s.db.store.TxUpsert(tx, code, &meta); err != nil {
				return fmt.Errorf("failed to upsert fund %d: %w", code, err)
			}
		}

		for _, r := range records {
			obs := models.NavObservation{
				SchemeCode: r.SchemeCode,
				Date:       r.Date,
				Nav:        r.Nav,
				UpdatedAt:  now,
			}
			if err := s.db.store.TxUpsert(tx, obs.Key(), &obs); err != nil {
				return fmt.Errorf("failed to upsert nav %s: %w", obs.Key(), err)
			}
			upserts++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Debug().Int("funds", len(funds)).Int("navs", upserts).Msg("Batch upserted")
	return upserts, nil
}

// kvStorage implements KeyValueStorage using BadgerDB
type kvStorage struct {
	db     *BadgerDB
	logger *common.Logger
}

// kvEntry represents a key-value entry in the store
type kvEntry struct {
	Key   string `badgerhold:"key"`
	Value string
}

func newKVStorage(db *BadgerDB, logger *common.Logger) *kvStorage {
	return &kvStorage{db: db, logger: logger}
}

func (s *kvStorage) Get(ctx context.Context, key string) (string, error) {
	var entry kvEntry
	err := s.db.store.Get(key, &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return "", fmt.Errorf("key '%s' not found", key)
		}
		return "", fmt.Errorf("failed to get key: %w", err)
	}
	return entry.Value, nil
}

func (s *kvStorage) Set(ctx context.Context, key, value string) error {
	entry := kvEntry{Key: key, Value: value}
	err := s.db.store.Upsert(key, &entry)
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

func (s *kvStorage) Delete(ctx context.Context, key string) error {
	err := s.db.store.Delete(key, kvEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}
