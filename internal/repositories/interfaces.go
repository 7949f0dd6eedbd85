package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository groups the stores used by the services.
type Repository interface {
	ExerciseResult() ExerciseResultRepository
	Ability() AbilityRepository
	User() UserRepository
	Audit() AuditRepository

	// WithTransaction runs fn inside one database transaction. The tx handed to
	// fn must be passed to every repository call that should join it.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ===== SHARED FILTER STRUCTS =====

type ResultFilters struct {
	StudentID string     `json:"student_id"`
	Subject   string     `json:"subject"` // empty means every subject
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortOrder string     `json:"sort_order"` // "asc", "desc" on completed_at
}

// ===== SHARED STATISTICS STRUCTS =====

type StudentStats struct {
	StudentID        string     `json:"student_id"`
	TotalResults     int64      `json:"total_results"`
	CorrectResults   int64      `json:"correct_results"`
	SuccessRate      float64    `json:"success_rate"`
	AverageTimeSpent float64    `json:"average_time_spent"`
	SubjectsCount    int64      `json:"subjects_count"`
	FirstResultAt    *time.Time `json:"first_result_at"`
	LastResultAt     *time.Time `json:"last_result_at"`
}
