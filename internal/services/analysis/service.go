package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/interfaces"
	"github.com/bobmcallan/fundwatch/internal/models"
)

// ErrNoData is returned when a fund has no NAV history to analyze
var ErrNoData = errors.New("no nav history for fund")

// Service implements the AnalysisService interface
type Service struct {
	storage interfaces.StorageManager
	config  *common.Config
	logger  *common.Logger
}

// NewService creates a new analysis service
func NewService(storage interfaces.StorageManager, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		config:  config,
		logger:  logger,
	}
}

// GetScorecard computes the full scorecard for a fund from its stored
// NAV history. A fund with no history gets ErrNoData rather than a
// zero score.
func (s *Service) GetScorecard(ctx context.Context, schemeCode int) (*models.Scorecard, error) {
	series, err := s.storage.NavStore().GetHistory(ctx, schemeCode)
	if err != nil {
		return nil, fmt.Errorf("failed to load nav history: %w", err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("fund %d: %w", schemeCode, ErrNoData)
	}

	name := ""
	if fund, err := s.storage.FundStore().Get(ctx, schemeCode); err == nil {
		name = fund.SchemeName
	}

	metrics := ComputeMetrics(series, s.config.Analysis.RiskFreeRate)
	scores := ComposeScores(metrics)

	s.logger.Debug().
		Int("scheme_code", schemeCode).
		Int("observations", len(series)).
		Int("final_score", scores.FinalScore).
		Msg("Scorecard computed")

	return &models.Scorecard{
		SchemeCode:   schemeCode,
		SchemeName:   name,
		Observations: len(series),
		Metrics:      metrics,
		Scores:       scores,
		ComputedAt:   time.Now(),
	}, nil
}

// ListFunds returns all known fund metadata sorted by scheme code
func (s *Service) ListFunds(ctx context.Context) ([]*models.FundMetadata, error) {
	return s.storage.FundStore().List(ctx)
}

// GetHistory returns the date-ascending NAV series for a fund. An
// unknown code yields an empty series, not an error.
func (s *Service) GetHistory(ctx context.Context, schemeCode int) (models.NavSeries, error) {
	return s.storage.NavStore().GetHistory(ctx, schemeCode)
}

// Ensure Service implements AnalysisService
var _ interfaces.AnalysisService = (*Service)(nil)
