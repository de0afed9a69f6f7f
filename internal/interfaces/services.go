// Package interfaces defines service contracts for Fundwatch
package interfaces

import (
	"context"

	"github.com/bobmcallan/fundwatch/internal/models"
)

// IngestService runs the daily feed pipeline
type IngestService interface {
	// RunBatch executes one fetch→validate→parse→upsert cycle.
	// Returns ErrIngestRunning when a batch is already in flight; the
	// report describes the run either way.
	RunBatch(ctx context.Context) (*models.IngestReport, error)

	// LastReport returns the most recent batch report, or nil when the
	// pipeline has never run.
	LastReport(ctx context.Context) (*models.IngestReport, error)
}

// AnalysisService derives scorecards from persisted NAV history
type AnalysisService interface {
	// GetScorecard computes a fund's scorecard from its full history.
	// Returns ErrNoData for funds without any observations.
	GetScorecard(ctx context.Context, schemeCode int) (*models.Scorecard, error)

	// ListFunds returns metadata for all known funds.
	ListFunds(ctx context.Context) ([]*models.FundMetadata, error)

	// GetHistory returns a fund's NAV series ordered ascending by date.
	GetHistory(ctx context.Context, schemeCode int) (models.NavSeries, error)
}

// ChatService answers free-text questions about funds
type ChatService interface {
	// BuildContext fuzzy-matches the query to a fund and formats its
	// scorecard as LLM context. A failed match returns an empty fund
	// name and a human-readable reason.
	BuildContext(ctx context.Context, query string) (fund string, context string, reason string)

	// Ask produces a grounded answer for a free-text fund question.
	Ask(ctx context.Context, query string) (fund string, answer string, err error)
}
