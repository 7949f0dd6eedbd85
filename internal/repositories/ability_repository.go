package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/models"
)

// AbilityRepository stores one ability estimate per student and subject.
type AbilityRepository interface {
	// GetByStudentAndSubject returns nil, nil when the student has no estimate yet.
	GetByStudentAndSubject(ctx context.Context, tx *gorm.DB, studentID, subject string) (*models.LearnerAbility, error)
	// LockOrCreate stores initial when the student has no estimate for its
	// subject yet, then returns the stored row locked until tx ends.
	LockOrCreate(ctx context.Context, tx *gorm.DB, initial *models.LearnerAbility) (*models.LearnerAbility, error)
	// Save inserts or replaces the estimate for (student, subject).
	Save(ctx context.Context, tx *gorm.DB, ability *models.LearnerAbility) error
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.LearnerAbility, error)
	Delete(ctx context.Context, tx *gorm.DB, studentID, subject string) error
}
