package estimator

import (
	"math"
	"sort"
	"time"
)

const MaxLevel = 10

// DailyAggregate summarises one calendar day of exercise results.
type DailyAggregate struct {
	Date          time.Time `json:"date"`
	Level         int       `json:"level"`
	SuccessRate   float64   `json:"success_rate"` // percentage
	ExerciseCount int       `json:"exercise_count"`
}

// ResultPoint is the minimal view of a stored exercise result needed to aggregate.
type ResultPoint struct {
	CompletedAt time.Time `json:"completed_at"`
	Correct     bool      `json:"correct"`
}

// NewDailyAggregate builds the aggregate for a day with total results of which
// correct were right.
func NewDailyAggregate(date time.Time, correct, total int) DailyAggregate {
	rate := 0.0
	if total > 0 {
		rate = float64(correct) / float64(total) * 100
	}
	rate = Clamp(rate, 0, 100)

	return DailyAggregate{
		Date:          date,
		Level:         LevelFromRate(rate),
		SuccessRate:   rate,
		ExerciseCount: total,
	}
}

// LevelFromRate converts a success percentage into a 0..10 level.
func LevelFromRate(rate float64) int {
	level := int(math.Floor(Clamp(rate, 0, 100) / 10))
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// AggregateDaily groups results by calendar day in loc and returns one aggregate
// per day that has at least one result, oldest first. A nil loc means UTC.
func AggregateDaily(results []ResultPoint, loc *time.Location) []DailyAggregate {
	if loc == nil {
		loc = time.UTC
	}

	type tally struct {
		day     time.Time
		correct int
		total   int
	}
	byDay := make(map[time.Time]*tally)

	for _, r := range results {
		day := StartOfDay(r.CompletedAt, loc)
		t, ok := byDay[day]
		if !ok {
			t = &tally{day: day}
			byDay[day] = t
		}
		t.total++
		if r.Correct {
			t.correct++
		}
	}

	series := make([]DailyAggregate, 0, len(byDay))
	for _, t := range byDay {
		series = append(series, NewDailyAggregate(t.day, t.correct, t.total))
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	return series
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
