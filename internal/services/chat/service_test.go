package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fundwatch/internal/common"
	"github.com/bobmcallan/fundwatch/internal/models"
)

type fakeAnalysis struct {
	funds []*models.FundMetadata
	cards map[int]*models.Scorecard
}

func (f *fakeAnalysis) ListFunds(ctx context.Context) ([]*models.FundMetadata, error) {
	return f.funds, nil
}

func (f *fakeAnalysis) GetScorecard(ctx context.Context, schemeCode int) (*models.Scorecard, error) {
	card, ok := f.cards[schemeCode]
	if !ok {
		return nil, errors.New("no nav history for fund")
	}
	return card, nil
}

func (f *fakeAnalysis) GetHistory(ctx context.Context, schemeCode int) (models.NavSeries, error) {
	return nil, nil
}

type fakeGemini struct {
	lastQuestion string
	lastContext  string
	answer       string
	err          error
}

func (f *fakeGemini) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return f.answer, f.err
}

func (f *fakeGemini) AnswerFundQuery(ctx context.Context, question, context string) (string, error) {
	f.lastQuestion = question
	f.lastContext = context
	return f.answer, f.err
}

func newTestChat(gemini *fakeGemini) (*Service, *fakeAnalysis) {
	analysis := &fakeAnalysis{
		funds: []*models.FundMetadata{
			{SchemeCode: 119551, SchemeName: "Axis Bluechip Fund - Direct Plan - Growth"},
			{SchemeCode: 100033, SchemeName: "Aditya Birla Sun Life Income Fund"},
		},
		cards: map[int]*models.Scorecard{
			119551: {
				SchemeCode:   119551,
				SchemeName:   "Axis Bluechip Fund - Direct Plan - Growth",
				Observations: 800,
				Metrics: models.Metrics{
					Return1Y:    models.Float(0.214),
					SharpeRatio: models.Float(1.12),
				},
				Scores: models.Scores{
					Components: map[string]int{"performance": 25, "risk_adjusted": 50},
					FinalScore: 75,
				},
				ComputedAt: time.Now(),
			},
		},
	}

	config := common.NewDefaultConfig()
	var client *Service
	if gemini != nil {
		client = NewService(analysis, gemini, config, common.NewSilentLogger())
	} else {
		client = NewService(analysis, nil, config, common.NewSilentLogger())
	}
	return client, analysis
}

func TestBuildContext(t *testing.T) {
	svc, _ := newTestChat(nil)

	fund, fundContext, reason := svc.BuildContext(context.Background(), "how is axis bluechip performing")

	assert.Equal(t, "Axis Bluechip Fund - Direct Plan - Growth", fund)
	assert.Empty(t, reason)
	assert.Contains(t, fundContext, "scheme code 119551")
	assert.Contains(t, fundContext, "Score: 75/100")
	assert.Contains(t, fundContext, "1-year return: 21.40%")
	assert.Contains(t, fundContext, "Sharpe ratio: 1.12")
	assert.Contains(t, fundContext, "3-year return (annualized): not available")
}

func TestBuildContext_NoMatch(t *testing.T) {
	svc, _ := newTestChat(nil)

	fund, fundContext, reason := svc.BuildContext(context.Background(), "hdfc midcap opportunities")

	assert.Empty(t, fund)
	assert.Empty(t, fundContext)
	assert.Equal(t, "no fund matched the query", reason)
}

func TestBuildContext_MatchedFundWithoutHistory(t *testing.T) {
	svc, _ := newTestChat(nil)

	fund, fundContext, reason := svc.BuildContext(context.Background(), "aditya birla income")

	assert.Equal(t, "Aditya Birla Sun Life Income Fund", fund)
	assert.Empty(t, fundContext)
	assert.Equal(t, "no nav history for the matched fund", reason)
}

func TestBuildContext_EmptyCatalog(t *testing.T) {
	svc, analysis := newTestChat(nil)
	analysis.funds = nil

	_, _, reason := svc.BuildContext(context.Background(), "axis bluechip")
	assert.Equal(t, "no funds ingested yet", reason)
}

func TestAsk(t *testing.T) {
	gemini := &fakeGemini{answer: "The fund returned 21.40% over the last year."}
	svc, _ := newTestChat(gemini)

	fund, answer, err := svc.Ask(context.Background(), "how did axis bluechip perform")
	require.NoError(t, err)

	assert.Equal(t, "Axis Bluechip Fund - Direct Plan - Growth", fund)
	assert.Equal(t, gemini.answer, answer)
	assert.Equal(t, "how did axis bluechip perform", gemini.lastQuestion)
	assert.Contains(t, gemini.lastContext, "Score: 75/100")
}

func TestAsk_NoMatchIsAnError(t *testing.T) {
	svc, _ := newTestChat(&fakeGemini{answer: "unused"})

	_, _, err := svc.Ask(context.Background(), "hdfc midcap opportunities")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fund matched the query")
}

func TestAsk_WithoutClient(t *testing.T) {
	svc, _ := newTestChat(nil)

	_, _, err := svc.Ask(context.Background(), "axis bluechip")
	assert.ErrorIs(t, err, ErrNoGeminiClient)
}
