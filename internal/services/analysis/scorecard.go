package analysis

import "github.com/bobmcallan/fundwatch/internal/models"

// scoreBucket maps an exclusive lower bound to the points it awards
type scoreBucket struct {
	above  float64
	points int
}

// Bucket tables are ordered highest bound first; the first match wins.
// An undefined metric always scores zero for its component.
var (
	return1YBuckets = []scoreBucket{
		{above: 0.20, points: 25},
		{above: 0.10, points: 10},
	}
	return3YBuckets = []scoreBucket{
		{above: 0.15, points: 25},
		{above: 0.10, points: 15},
	}
	sharpeBuckets = []scoreBucket{
		{above: 1.00, points: 50},
		{above: 0.75, points: 35},
		{above: 0.50, points: 20},
	}
)

// ComposeScores turns a metric set into component scores and a final
// score out of 100. Performance sums the 1-year and 3-year return
// buckets (max 50); risk-adjusted is the Sharpe bucket (max 50).
func ComposeScores(metrics models.Metrics) models.Scores {
	performance := bucketScore(metrics.PeriodReturn(12), return1YBuckets) +
		bucketScore(metrics.PeriodReturn(36), return3YBuckets)

	scores := models.Scores{
		Components: map[string]int{
			"performance":   performance,
			"risk_adjusted": bucketScore(metrics.SharpeRatio, sharpeBuckets),
		},
	}

	for _, points := range scores.Components {
		scores.FinalScore += points
	}

	return scores
}

func bucketScore(value *float64, buckets []scoreBucket) int {
	if value == nil {
		return 0
	}
	for _, b := range buckets {
		if *value > b.above {
			return b.points
		}
	}
	return 0
}
