package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/models"
	"github.com/najah-ai/learner-service/internal/repositories"
)

// Requester is the authenticated caller of a service operation.
type Requester struct {
	ID        string          `json:"id"`
	Role      models.UserRole `json:"role"`
	IPAddress string          `json:"ip_address,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

func (r Requester) IsStaff() bool {
	return r.Role == models.RoleTeacher || r.Role == models.RoleAdmin
}

// accessPolicy decides who may read or write a student's learning data.
type accessPolicy struct {
	repo repositories.Repository
}

func newAccessPolicy(repo repositories.Repository) *accessPolicy {
	return &accessPolicy{repo: repo}
}

// checkStudentAccess allows students on their own data, teachers on linked
// students and admins on everyone.
func (p *accessPolicy) checkStudentAccess(ctx context.Context, requester Requester, studentID, action string) error {
	if requester.ID == "" || !requester.Role.IsValid() {
		return ErrInvalidRequester
	}

	switch requester.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleStudent:
		if requester.ID == studentID {
			return nil
		}
		return NewPermissionError(requester.ID, studentID, "student", action, "students can only access their own data")
	case models.RoleTeacher:
		linked, err := p.repo.User().IsTeacherOf(ctx, nil, requester.ID, studentID)
		if err != nil {
			return fmt.Errorf("failed to check teacher link: %w", err)
		}
		if linked {
			return nil
		}
		return NewPermissionError(requester.ID, studentID, "student", action, "student is not linked to this teacher")
	}

	return ErrInvalidRole
}

// checkStaff allows teachers and admins only.
func (p *accessPolicy) checkStaff(requester Requester, resourceID, resource, action string) error {
	if requester.ID == "" {
		return ErrInvalidRequester
	}
	if !requester.IsStaff() {
		return NewPermissionError(requester.ID, resourceID, resource, action, "only teachers and admins may do this")
	}
	return nil
}

// recordAudit persists an audit row. tx may be nil.
func (p *accessPolicy) recordAudit(ctx context.Context, tx *gorm.DB, requester Requester, eventType models.AuditEventType, targetType, targetID, description string, metadata map[string]interface{}) error {
	entry := &models.AuditLog{
		EventType:   eventType,
		UserID:      requester.ID,
		UserRole:    requester.Role,
		TargetType:  targetType,
		TargetID:    targetID,
		Description: description,
		IPAddress:   requester.IPAddress,
	}
	if requester.RequestID != "" {
		requestID := requester.RequestID
		entry.RequestID = &requestID
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode audit metadata: %w", err)
		}
		entry.Metadata = datatypes.JSON(raw)
	}

	if err := p.repo.Audit().Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}
