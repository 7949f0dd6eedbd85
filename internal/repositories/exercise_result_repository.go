package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/models"
)

// ExerciseResultRepository stores answered exercises. Results are append-only.
type ExerciseResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.ExerciseResult) error
	List(ctx context.Context, tx *gorm.DB, filters ResultFilters) ([]*models.ExerciseResult, int64, error)

	// Statistics
	GetStudentStats(ctx context.Context, tx *gorm.DB, studentID string, filters ResultFilters) (*StudentStats, error)
	ListSubjects(ctx context.Context, tx *gorm.DB, studentID string) ([]string, error)
}
