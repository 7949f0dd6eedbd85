package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/models"
)

// UserRepository interface for user operations (read-only, users are owned by the identity service)
type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.User, error)

	// Relationship checks
	IsTeacherOf(ctx context.Context, tx *gorm.DB, teacherID, studentID string) (bool, error)
	GetStudentIDs(ctx context.Context, tx *gorm.DB, teacherID string) ([]string, error)
}
