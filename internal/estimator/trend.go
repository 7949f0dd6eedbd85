package estimator

import (
	"math"
	"time"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

const (
	DefaultTargetLevel = 7

	// WindowSize is the number of daily entries in each comparison window.
	WindowSize = 7

	trendThreshold = 0.5
)

// TrendResult is the outcome of AnalyzeTrend. PredictedCompletionDate is nil
// when the learner is not progressing.
type TrendResult struct {
	Trend                   Trend      `json:"trend"`
	ImprovementRate         float64    `json:"improvement_rate"`
	PredictedCompletionDate *time.Time `json:"predicted_completion_date,omitempty"`
	Recommendations         []string   `json:"recommendations"`
}

// AnalyzeTrend classifies the series relative to the current day.
func AnalyzeTrend(series []DailyAggregate, targetLevel int) TrendResult {
	return AnalyzeTrendAt(series, targetLevel, time.Now())
}

// AnalyzeTrendAt compares the mean level of the last WindowSize entries with the
// WindowSize entries before them. series must be ordered oldest first. It never
// fails: short series degrade to a stable result with a default recommendation.
func AnalyzeTrendAt(series []DailyAggregate, targetLevel int, today time.Time) TrendResult {
	target := NormalizeTargetLevel(targetLevel)

	recent, older := splitWindows(series)
	if len(recent) == 0 || len(older) == 0 {
		return TrendResult{
			Trend:           TrendStable,
			ImprovementRate: 0,
			Recommendations: []string{RecommendationNotEnoughData},
		}
	}

	rate := meanLevel(recent) - meanLevel(older)
	trend := classify(rate)
	currentLevel := recent[len(recent)-1].Level

	result := TrendResult{
		Trend:           trend,
		ImprovementRate: rate,
		Recommendations: Recommend(trend, currentLevel),
	}

	if rate > 0 {
		remaining := math.Max(0, float64(target-currentLevel))
		days := int(math.Ceil(remaining / rate))
		predicted := StartOfDay(today, today.Location()).AddDate(0, 0, days)
		result.PredictedCompletionDate = &predicted
	}

	return result
}

// NormalizeTargetLevel maps an unset (zero) target to the default. Other
// values pass through; a target at or below the current level needs no days.
func NormalizeTargetLevel(target int) int {
	if target == 0 {
		return DefaultTargetLevel
	}
	return target
}

// CurrentLevel returns the level of the latest entry, or 0 for an empty series.
func CurrentLevel(series []DailyAggregate) int {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Level
}

func splitWindows(series []DailyAggregate) (recent, older []DailyAggregate) {
	n := len(series)
	recentStart := max(0, n-WindowSize)
	olderStart := max(0, recentStart-WindowSize)
	return series[recentStart:], series[olderStart:recentStart]
}

func meanLevel(window []DailyAggregate) float64 {
	sum := 0
	for _, d := range window {
		sum += d.Level
	}
	return float64(sum) / float64(len(window))
}

func classify(rate float64) Trend {
	switch {
	case rate > trendThreshold:
		return TrendImproving
	case rate < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}
