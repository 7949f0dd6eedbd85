package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/models"
)

type AuditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, log *models.AuditLog) error
}
