package models

import "time"

// Metrics holds the derived return/risk figures for one fund.
// Nil means the metric is undefined for the available history (too few
// observations), which is distinct from a true zero.
type Metrics struct {
	Return1M         *float64 `json:"return_1m"`
	Return6M         *float64 `json:"return_6m"`
	Return1Y         *float64 `json:"return_1y"`
	Return3Y         *float64 `json:"return_3y"`
	SharpeRatio      *float64 `json:"sharpe_ratio"`
	AnnualVolatility *float64 `json:"annual_volatility"`
}

// PeriodReturn returns the trailing return for a month offset used by the
// scorecard composer.
func (m *Metrics) PeriodReturn(months int) *float64 {
	switch months {
	case 1:
		return m.Return1M
	case 6:
		return m.Return6M
	case 12:
		return m.Return1Y
	case 36:
		return m.Return3Y
	}
	return nil
}

// Scores holds the rule-based composite score and its components.
type Scores struct {
	Components map[string]int `json:"components"`
	FinalScore int            `json:"final_score"`
}

// Scorecard is the full derived view of one fund. Recomputed on every
// request, never cached by the core.
type Scorecard struct {
	SchemeCode   int       `json:"scheme_code"`
	SchemeName   string    `json:"scheme_name"`
	Observations int       `json:"observations"`
	Metrics      Metrics   `json:"metrics"`
	Scores       Scores    `json:"scores"`
	ComputedAt   time.Time `json:"computed_at"`
}

// Float returns a pointer to v, for optional metric fields.
func Float(v float64) *float64 {
	return &v
}
