package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEventType string

const (
	AuditAbilityReset     AuditEventType = "ability_reset"
	AuditTrendExported    AuditEventType = "trend_exported"
	AuditClassOverview    AuditEventType = "class_overview_viewed"
)

type AuditLog struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	EventType AuditEventType `json:"event_type" gorm:"not null;index;size:50"`

	// Actor information
	UserID   string   `json:"user_id" gorm:"not null;index;size:255"`
	UserRole UserRole `json:"user_role" gorm:"size:20"`

	// Target information
	TargetType string `json:"target_type" gorm:"size:50;index"` // student, ability
	TargetID   string `json:"target_id" gorm:"size:255;index"`

	// Event details
	Description string         `json:"description" gorm:"not null;type:text"`
	Metadata    datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	// Request context
	IPAddress string  `json:"ip_address" gorm:"size:45"`
	RequestID *string `json:"request_id" gorm:"size:64"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
