package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/estimator"
)

// ExerciseResult is one answered exercise together with the ability estimate
// before and after it was applied.
type ExerciseResult struct {
	ID         string  `json:"id" gorm:"primaryKey;size:36"`
	StudentID  string  `json:"student_id" gorm:"not null;size:255;index:idx_results_student_subject_time,priority:1"`
	Subject    string  `json:"subject" gorm:"not null;size:64;index:idx_results_student_subject_time,priority:2"`
	ExerciseID *string `json:"exercise_id,omitempty" gorm:"size:255"`

	Difficulty float64 `json:"difficulty" gorm:"not null"`
	Correct    bool    `json:"correct" gorm:"not null"`
	TimeSpent  int     `json:"time_spent"` // seconds

	AbilityBefore   float64 `json:"ability_before"`
	AbilityAfter    float64 `json:"ability_after"`
	ConfidenceAfter float64 `json:"confidence_after"`

	CompletedAt time.Time `json:"completed_at" gorm:"not null;index:idx_results_student_subject_time,priority:3"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ExerciseResult) TableName() string {
	return "exercise_results"
}

func (r *ExerciseResult) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Point returns the view of the result used for daily aggregation.
func (r *ExerciseResult) Point() estimator.ResultPoint {
	return estimator.ResultPoint{
		CompletedAt: r.CompletedAt,
		Correct:     r.Correct,
	}
}

// ResultPoints converts stored results for aggregation.
func ResultPoints(results []*ExerciseResult) []estimator.ResultPoint {
	points := make([]estimator.ResultPoint, 0, len(results))
	for _, r := range results {
		points = append(points, r.Point())
	}
	return points
}
