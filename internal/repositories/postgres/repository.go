package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/repositories"
)

type Repository struct {
	db             *gorm.DB
	exerciseResult repositories.ExerciseResultRepository
	ability        repositories.AbilityRepository
	user           repositories.UserRepository
	audit          repositories.AuditRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:             db,
		exerciseResult: NewExerciseResultPostgreSQL(db),
		ability:        NewAbilityPostgreSQL(db),
		user:           NewUserPostgreSQL(db),
		audit:          NewAuditPostgreSQL(db),
	}
}

func (r *Repository) ExerciseResult() repositories.ExerciseResultRepository { return r.exerciseResult }
func (r *Repository) Ability() repositories.AbilityRepository               { return r.ability }
func (r *Repository) User() repositories.UserRepository                     { return r.user }
func (r *Repository) Audit() repositories.AuditRepository                   { return r.audit }

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
