package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/repositories"
)

type AuditPostgreSQL struct {
	db *gorm.DB
}

func NewAuditPostgreSQL(db *gorm.DB) repositories.AuditRepository {
	return &AuditPostgreSQL{db: db}
}

func (a *AuditPostgreSQL) Create(ctx context.Context, tx *gorm.DB, log *models.AuditLog) error {
	return getDB(a.db, tx).WithContext(ctx).Create(log).Error
}
