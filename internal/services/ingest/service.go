// Package ingest runs the daily NAV feed batch pipeline
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/feed"
	"github.com/bobmcallan/fundwatch/internal/interfaces"
	"github.com/bobmcallan/fundwatch/internal/models"
)

const (
	lastReportKey    = "last_ingest_report"
	archiveSubdir    = "feeds"
	archiveKeyFormat = "amfi_nav_all_%s.txt"
)

// ErrIngestRunning is returned when a batch is already in flight
var ErrIngestRunning = errors.New("ingest batch already running")

// Service implements the IngestService interface
type Service struct {
	storage interfaces.StorageManager
	client  interfaces.AMFIClient
	config  *common.Config
	logger  *common.Logger

	mu      sync.Mutex
	running bool
}

// NewService creates a new ingest service
func NewService(storage interfaces.StorageManager, client interfaces.AMFIClient, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		client:  client,
		config:  config,
		logger:  logger,
	}
}

// RunBatch executes one full fetch-validate-parse-upsert cycle.
// Only one batch runs at a time; a concurrent call gets
// ErrIngestRunning. The report is persisted whether the batch
// succeeds or fails.
func (s *Service) RunBatch(ctx context.Context) (*models.IngestReport, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrIngestRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	report := &models.IngestReport{
		StartedAt: time.Now(),
		Status:    "failed",
	}

	err := s.runBatch(ctx, report)
	report.CompletedAt = time.Now()
	report.DurationMS = report.CompletedAt.Sub(report.StartedAt).Milliseconds()
	if err != nil {
		report.Error = err.Error()
	}

	s.persistReport(ctx, report)

	if err != nil {
		s.logger.Error().Err(err).Int64("duration_ms", report.DurationMS).Msg("Ingest batch failed")
		return report, err
	}

	s.logger.Info().
		Str("status", report.Status).
		Int("funds", report.Funds).
		Int("upserts", report.Upserts).
		Int64("duration_ms", report.DurationMS).
		Msg("Ingest batch completed")

	return report, nil
}

func (s *Service) runBatch(ctx context.Context, report *models.IngestReport) error {
	raw, err := s.client.FetchNavFeed(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}
	report.FetchedBytes = len(raw)

	// Archive the raw payload before anything can reject it, so a
	// bad feed day is still inspectable after the fact.
	archiveKey := fmt.Sprintf(archiveKeyFormat, report.StartedAt.Format("2006-01-02"))
	if err := s.storage.WriteRaw(archiveSubdir, archiveKey, []byte(raw)); err != nil {
		s.logger.Warn().Err(err).Str("key", archiveKey).Msg("Failed to archive raw feed")
	} else {
		report.ArchiveKey = archiveKey
	}

	conformity, err := feed.Validate(raw, s.config.Ingest.SampleSize, s.config.Ingest.ConformityThreshold)
	report.Conformity = conformity
	var vErr *feed.ValidationError
	if errors.As(err, &vErr) {
		report.SampledLines = vErr.SampledLines
	}
	if err != nil {
		return fmt.Errorf("validate feed: %w", err)
	}

	records, stats := feed.Parse(raw)
	report.ParsedRecords = stats.Parsed
	report.DroppedLines = stats.Dropped

	if len(records) == 0 {
		report.Status = "empty"
		return nil
	}

	upserts, err := s.storage.NavStore().UpsertBatch(ctx, records)
	if err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	report.Upserts = upserts

	funds := make(map[int]struct{}, len(records))
	for _, r := range records {
		funds[r.SchemeCode] = struct{}{}
	}
	report.Funds = len(funds)
	report.Status = "ok"

	if removed, err := s.storage.PruneRaw(archiveSubdir, s.config.Ingest.ArchiveRetainDays); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to prune feed archive")
	} else if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Pruned feed archive")
	}

	return nil
}

func (s *Service) persistReport(ctx context.Context, report *models.IngestReport) {
	data, err := json.Marshal(report)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to marshal ingest report")
		return
	}
	if err := s.storage.KeyValueStorage().Set(ctx, lastReportKey, string(data)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist ingest report")
	}
}

// LastReport returns the most recently persisted batch report, or nil
// when no batch has run yet.
func (s *Service) LastReport(ctx context.Context) (*models.IngestReport, error) {
	data, err := s.storage.KeyValueStorage().Get(ctx, lastReportKey)
	if err != nil {
		return nil, nil
	}

	var report models.IngestReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("failed to decode ingest report: %w", err)
	}
	return &report, nil
}

// Ensure Service implements IngestService
var _ interfaces.IngestService = (*Service)(nil)
