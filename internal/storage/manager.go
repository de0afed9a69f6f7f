package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/interfaces"
)

// Manager coordinates typed stores and the raw landing zone
type Manager struct {
	db          *BadgerDB
	fundStore   *fundStore
	navStore    *navStore
	kvStorage   *kvStorage
	dataPath    string
	landingPath string
	logger      *common.Logger
}

// NewManager creates a storage manager with all stores initialized
func NewManager(config *common.Config, logger *common.Logger) (*Manager, error) {
	dataPath := config.Storage.Path
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	landingPath := config.Storage.LandingPath
	if landingPath == "" {
		landingPath = filepath.Join(dataPath, "landing")
	}
	if err := os.MkdirAll(landingPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create landing directory: %w", err)
	}

	db, err := NewBadgerDB(logger, filepath.Join(dataPath, "badger"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	m := &Manager{
		db:          db,
		fundStore:   newFundStore(db, logger),
		navStore:    newNavStore(db, logger),
		kvStorage:   newKVStorage(db, logger),
		dataPath:    dataPath,
		landingPath: landingPath,
		logger:      logger,
	}

	logger.Info().
		Str("data_path", dataPath).
		Str("landing_path", landingPath).
		Msg("Storage manager initialized")

	return m, nil
}

// FundStore returns the fund metadata store
func (m *Manager) FundStore() interfaces.FundStore {
	return m.fundStore
}

// NavStore returns the NAV observation store
func (m *Manager) NavStore() interfaces.NavStore {
	return m.navStore
}

// KeyValueStorage returns the key-value store
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kvStorage
}

// DataPath returns the root data directory
func (m *Manager) DataPath() string {
	return m.dataPath
}

// WriteRaw writes a raw payload to the landing zone. The write is
// atomic: the payload lands in a temp file which is renamed into place.
func (m *Manager) WriteRaw(subdir, key string, data []byte) error {
	safeKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	safeSubdir, err := sanitizeKey(subdir)
	if err != nil {
		return err
	}

	dir := filepath.Join(m.landingPath, safeSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create landing subdir: %w", err)
	}

	target := filepath.Join(dir, safeKey)
	tmp, err := os.CreateTemp(dir, safeKey+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write raw payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize raw payload: %w", err)
	}

	m.logger.Debug().Str("subdir", subdir).Str("key", key).Int("bytes", len(data)).Msg("Raw payload archived")
	return nil
}

// PruneRaw removes landing-zone files older than retainDays and
// returns the number removed.
func (m *Manager) PruneRaw(subdir string, retainDays int) (int, error) {
	if retainDays <= 0 {
		return 0, nil
	}

	safeSubdir, err := sanitizeKey(subdir)
	if err != nil {
		return 0, err
	}

	dir := filepath.Join(m.landingPath, safeSubdir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read landing subdir: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retainDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				m.logger.Warn().Str("file", entry.Name()).Err(err).Msg("Failed to prune landing file")
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info().Str("subdir", subdir).Int("removed", removed).Msg("Pruned landing zone")
	}
	return removed, nil
}

// Close closes the underlying database
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Ensure Manager implements StorageManager
var _ interfaces.StorageManager = (*Manager)(nil)

// sanitizeKey rejects keys that could escape the landing zone
func sanitizeKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key cannot be empty")
	}
	if strings.Contains(key, "..") || strings.ContainsAny(key, "/\\") {
		return "", fmt.Errorf("invalid key '%s'", key)
	}
	return key, nil
}
