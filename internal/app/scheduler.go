package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/interfaces"
	"github.com/bobmcallan/fundwatch/internal/services/ingest"
)

// batchTimeout bounds a scheduled ingest run; the AMFI feed is a few
// megabytes and should never take this long.
const batchTimeout = 10 * time.Minute

// Scheduler triggers the daily ingest batch on a cron expression
type Scheduler struct {
	cron    *cron.Cron
	service interfaces.IngestService
	logger  *common.Logger
}

// NewScheduler creates a scheduler for the given cron spec
func NewScheduler(spec string, service interfaces.IngestService, logger *common.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		service: service,
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(spec, s.runBatch); err != nil {
		return nil, fmt.Errorf("invalid ingest schedule %q: %w", spec, err)
	}

	logger.Info().Str("schedule", spec).Msg("Ingest scheduler configured")
	return s, nil
}

// Start begins the cron loop in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	s.logger.Info().Msg("Scheduled ingest starting")

	report, err := s.service.RunBatch(ctx)
	if err != nil {
		if errors.Is(err, ingest.ErrIngestRunning) {
			s.logger.Warn().Msg("Scheduled ingest skipped: batch already running")
			return
		}
		s.logger.Error().Err(err).Msg("Scheduled ingest failed")
		return
	}

	s.logger.Info().
		Str("status", report.Status).
		Int("upserts", report.Upserts).
		Msg("Scheduled ingest completed")
}
