package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/repositories"
)

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := getDB(u.db, tx).WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.User, error) {
	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := getDB(u.db, tx).WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (u *UserPostgreSQL) IsTeacherOf(ctx context.Context, tx *gorm.DB, teacherID, studentID string) (bool, error) {
	var count int64
	if err := getDB(u.db, tx).WithContext(ctx).
		Model(&models.StudentTeacher{}).
		Where("teacher_id = ? AND student_id = ?", teacherID, studentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) GetStudentIDs(ctx context.Context, tx *gorm.DB, teacherID string) ([]string, error) {
	var ids []string
	if err := getDB(u.db, tx).WithContext(ctx).
		Model(&models.StudentTeacher{}).
		Where("teacher_id = ?", teacherID).
		Order("student_id ASC").
		Pluck("student_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
