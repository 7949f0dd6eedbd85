package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/repositories"
)

type ExerciseResultPostgreSQL struct {
	db *gorm.DB
}

func NewExerciseResultPostgreSQL(db *gorm.DB) repositories.ExerciseResultRepository {
	return &ExerciseResultPostgreSQL{db: db}
}

func (r *ExerciseResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.ExerciseResult) error {
	return getDB(r.db, tx).WithContext(ctx).Create(result).Error
}

func (r *ExerciseResultPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.ExerciseResult, int64, error) {
	var results []*models.ExerciseResult
	var total int64

	// apply filter first
	query := getDB(r.db, tx).WithContext(ctx).Model(&models.ExerciseResult{})
	query = applyResultFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = applyPaginationAndSort(query, filters.SortOrder, filters.Limit, filters.Offset)

	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (r *ExerciseResultPostgreSQL) GetStudentStats(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.ResultFilters) (*repositories.StudentStats, error) {
	var row struct {
		TotalResults     int64
		CorrectResults   int64
		AverageTimeSpent float64
		SubjectsCount    int64
		FirstResultAt    *time.Time
		LastResultAt     *time.Time
	}

	filters.StudentID = studentID
	query := getDB(r.db, tx).WithContext(ctx).Model(&models.ExerciseResult{})
	query = applyResultFilters(query, filters)

	if err := query.Select(`
		COUNT(*) AS total_results,
		COUNT(*) FILTER (WHERE correct) AS correct_results,
		COALESCE(AVG(time_spent), 0) AS average_time_spent,
		COUNT(DISTINCT subject) AS subjects_count,
		MIN(completed_at) AS first_result_at,
		MAX(completed_at) AS last_result_at`).
		Scan(&row).Error; err != nil {
		return nil, err
	}

	stats := &repositories.StudentStats{
		StudentID:        studentID,
		TotalResults:     row.TotalResults,
		CorrectResults:   row.CorrectResults,
		AverageTimeSpent: row.AverageTimeSpent,
		SubjectsCount:    row.SubjectsCount,
		FirstResultAt:    row.FirstResultAt,
		LastResultAt:     row.LastResultAt,
	}
	if row.TotalResults > 0 {
		stats.SuccessRate = float64(row.CorrectResults) / float64(row.TotalResults) * 100
	}
	return stats, nil
}

func (r *ExerciseResultPostgreSQL) ListSubjects(ctx context.Context, tx *gorm.DB, studentID string) ([]string, error) {
	var subjects []string
	if err := getDB(r.db, tx).WithContext(ctx).
		Model(&models.ExerciseResult{}).
		Where("student_id = ?", studentID).
		Distinct().
		Order("subject ASC").
		Pluck("subject", &subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}
