package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/interfaces"
	"github.com/bobmcallan/fundwatch/internal/models"
)

// ErrNoGeminiClient is returned by Ask when no LLM client is configured
var ErrNoGeminiClient = errors.New("gemini client not configured")

// Service implements the ChatService interface
type Service struct {
	analysis interfaces.AnalysisService
	gemini   interfaces.GeminiClient
	config   *common.Config
	logger   *common.Logger
}

// NewService creates a new chat service. The Gemini client may be nil,
// in which case BuildContext still works but Ask returns an error.
func NewService(analysis interfaces.AnalysisService, gemini interfaces.GeminiClient, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		analysis: analysis,
		gemini:   gemini,
		config:   config,
		logger:   logger,
	}
}

// BuildContext fuzzy-matches the query to a known fund and renders its
// scorecard as a compact text block for the LLM. When no fund matches
// or the fund has no usable history, the reason explains why and the
// context is empty.
func (s *Service) BuildContext(ctx context.Context, query string) (string, string, string) {
	funds, err := s.analysis.ListFunds(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list funds for matching")
		return "", "", "fund catalog unavailable"
	}
	if len(funds) == 0 {
		return "", "", "no funds ingested yet"
	}

	fund := MatchFund(query, funds, s.config.Analysis.MatchThreshold)
	if fund == nil {
		return "", "", "no fund matched the query"
	}

	card, err := s.analysis.GetScorecard(ctx, fund.SchemeCode)
	if err != nil {
		s.logger.Warn().Err(err).Int("scheme_code", fund.SchemeCode).Msg("Failed to build scorecard for chat")
		return fund.SchemeName, "", "no nav history for the matched fund"
	}

	return fund.SchemeName, formatContext(card), ""
}

// Ask matches the query to a fund and asks the LLM a grounded question
func (s *Service) Ask(ctx context.Context, query string) (string, string, error) {
	if s.gemini == nil {
		return "", "", ErrNoGeminiClient
	}

	fund, fundContext, reason := s.BuildContext(ctx, query)
	if fundContext == "" {
		return fund, "", fmt.Errorf("cannot answer: %s", reason)
	}

	answer, err := s.gemini.AnswerFundQuery(ctx, query, fundContext)
	if err != nil {
		return fund, "", fmt.Errorf("failed to answer fund query: %w", err)
	}

	s.logger.Debug().Str("fund", fund).Msg("Chat query answered")
	return fund, answer, nil
}

// formatContext renders a scorecard as the LLM context block. Undefined
// metrics are listed as unavailable rather than zero so the model does
// not mistake missing history for flat performance.
func formatContext(card *models.Scorecard) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Fund: %s (scheme code %d)\n", card.SchemeName, card.SchemeCode)
	fmt.Fprintf(&sb, "NAV observations: %d\n", card.Observations)
	fmt.Fprintf(&sb, "Score: %d/100\n", card.Scores.FinalScore)

	writeMetric(&sb, "1-month return", card.Metrics.Return1M, asPercent)
	writeMetric(&sb, "6-month return", card.Metrics.Return6M, asPercent)
	writeMetric(&sb, "1-year return", card.Metrics.Return1Y, asPercent)
	writeMetric(&sb, "3-year return (annualized)", card.Metrics.Return3Y, asPercent)
	writeMetric(&sb, "Annual volatility", card.Metrics.AnnualVolatility, asPercent)
	writeMetric(&sb, "Sharpe ratio", card.Metrics.SharpeRatio, asNumber)

	return sb.String()
}

func writeMetric(sb *strings.Builder, label string, value *float64, format func(float64) string) {
	if value == nil {
		fmt.Fprintf(sb, "%s: not available\n", label)
		return
	}
	fmt.Fprintf(sb, "%s: %s\n", label, format(*value))
}

func asPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func asNumber(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Ensure Service implements ChatService
var _ interfaces.ChatService = (*Service)(nil)
