package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/repositories"
)

type AbilityPostgreSQL struct {
	db *gorm.DB
}

func NewAbilityPostgreSQL(db *gorm.DB) repositories.AbilityRepository {
	return &AbilityPostgreSQL{db: db}
}

func (a *AbilityPostgreSQL) GetByStudentAndSubject(ctx context.Context, tx *gorm.DB, studentID, subject string) (*models.LearnerAbility, error) {
	var ability models.LearnerAbility
	if err := getDB(a.db, tx).WithContext(ctx).
		Where("student_id = ? AND subject = ?", studentID, subject).
		First(&ability).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ability, nil
}

func (a *AbilityPostgreSQL) LockOrCreate(ctx context.Context, tx *gorm.DB, initial *models.LearnerAbility) (*models.LearnerAbility, error) {
	db := getDB(a.db, tx).WithContext(ctx)

	// A plain SELECT ... FOR UPDATE locks nothing while the row is missing.
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "subject"}},
		DoNothing: true,
	}).Create(initial).Error; err != nil {
		return nil, err
	}

	var ability models.LearnerAbility
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND subject = ?", initial.StudentID, initial.Subject).
		First(&ability).Error; err != nil {
		return nil, err
	}
	return &ability, nil
}

// Save upserts on (student_id, subject).
func (a *AbilityPostgreSQL) Save(ctx context.Context, tx *gorm.DB, ability *models.LearnerAbility) error {
	return getDB(a.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "subject"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"ability",
				"confidence",
				"responses_count",
				"correct_count",
				"last_response_at",
				"updated_at",
			}),
		}).
		Create(ability).Error
}

func (a *AbilityPostgreSQL) ListByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.LearnerAbility, error) {
	var abilities []*models.LearnerAbility
	if err := getDB(a.db, tx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("subject ASC").
		Find(&abilities).Error; err != nil {
		return nil, err
	}
	return abilities, nil
}

func (a *AbilityPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, studentID, subject string) error {
	return getDB(a.db, tx).WithContext(ctx).
		Where("student_id = ? AND subject = ?", studentID, subject).
		Delete(&models.LearnerAbility{}).Error
}
