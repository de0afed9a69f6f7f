// Package analysis computes fund performance metrics and scorecards
package analysis

import (
	"math"

	"github.com/bobmcallan/fundwatch/internal/models"
)

const (
	// TradingDaysPerYear is the annualization factor for daily series
	TradingDaysPerYear = 252

	// MinSharpeObservations is the minimum history length before a
	// Sharpe ratio is considered meaningful
	MinSharpeObservations = 252
)

// returnMonths are the trailing windows computed for every fund
var returnMonths = []int{1, 6, 12, 36}

// ComputeMetrics derives the full metric set for a NAV series. Any
// metric whose window or observation requirement is not met stays nil
// and serializes as JSON null.
func ComputeMetrics(series models.NavSeries, riskFreeRate float64) models.Metrics {
	metrics := models.Metrics{}
	if len(series) == 0 {
		return metrics
	}

	for _, months := range returnMonths {
		if r := trailingReturn(series, months); r != nil {
			switch months {
			case 1:
				metrics.Return1M = r
			case 6:
				metrics.Return6M = r
			case 12:
				metrics.Return1Y = r
			case 36:
				metrics.Return3Y = r
			}
		}
	}

	metrics.AnnualVolatility = annualVolatility(series)
	metrics.SharpeRatio = sharpeRatio(series, riskFreeRate)

	return metrics
}

// trailingReturn computes the return over the trailing calendar-month
// window ending at the latest observation. Windows longer than a year
// are annualized as a compound rate. Returns nil when the series does
// not reach back far enough.
func trailingReturn(series models.NavSeries, months int) *float64 {
	latest, ok := series.Latest()
	if !ok {
		return nil
	}

	cutoff := latest.Date.AddDate(0, -months, 0)
	base, ok := series.At(cutoff)
	if !ok || base.Nav <= 0 {
		return nil
	}

	r := latest.Nav/base.Nav - 1

	if months > 12 {
		years := float64(months) / 12.0
		r = math.Pow(1+r, 1/years) - 1
	}

	return models.Float(r)
}

// annualVolatility is the sample standard deviation of daily returns
// scaled to a yearly horizon.
func annualVolatility(series models.NavSeries) *float64 {
	returns := series.DailyReturns()
	if len(returns) < 2 {
		return nil
	}

	sd := stddev(returns)
	return models.Float(sd * math.Sqrt(TradingDaysPerYear))
}

// sharpeRatio computes the annualized Sharpe ratio over daily excess
// returns. Short histories return nil; a flat series (zero standard
// deviation) scores exactly zero.
func sharpeRatio(series models.NavSeries, riskFreeRate float64) *float64 {
	if len(series) < MinSharpeObservations {
		return nil
	}

	returns := series.DailyReturns()
	if len(returns) < 2 {
		return nil
	}

	dailyRF := riskFreeRate / TradingDaysPerYear
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRF
	}

	sd := stddev(excess)
	if sd == 0 {
		return models.Float(0)
	}

	sharpe := mean(excess) / sd * math.Sqrt(TradingDaysPerYear)
	return models.Float(sharpe)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation (n-1 denominator)
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
