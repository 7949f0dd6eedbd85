package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType string
	}{
		{"validation", ValidationErrors{*NewValidationError("subject", "invalid", "x y")}, "validation"},
		{"business rule", NewBusinessRuleError("class_size", "too many students", nil), "business_rule"},
		{"permission", NewPermissionError("u1", "s1", "ability", "reset", "not staff"), "permission"},
		{"not found", fmt.Errorf("load: %w", ErrAbilityNotFound), "not_found"},
		{"unauthorized", ErrInvalidRequester, "unauthorized"},
		{"other", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatted := FormatError(tt.err)
			assert.Equal(t, tt.wantType, formatted["type"])
			assert.Equal(t, tt.err.Error(), formatted["message"])
		})
	}

	assert.Nil(t, FormatError(nil))
}

func TestSanitizeForLogging(t *testing.T) {
	data := map[string]interface{}{
		"student_id": "s1",
		"jwt_token":  "abc",
		"nested": map[string]interface{}{
			"Password": "hunter2",
			"subject":  "maths",
		},
		"list": []interface{}{map[string]interface{}{"secret": 1}},
	}

	got := SanitizeForLogging(data).(map[string]interface{})
	assert.Equal(t, "s1", got["student_id"])
	assert.Equal(t, "[REDACTED]", got["jwt_token"])
	assert.Equal(t, "[REDACTED]", got["nested"].(map[string]interface{})["Password"])
	assert.Equal(t, "maths", got["nested"].(map[string]interface{})["subject"])
	assert.Equal(t, "[REDACTED]", got["list"].([]interface{})[0].(map[string]interface{})["secret"])

	assert.Equal(t, 42, SanitizeForLogging(42))
}

func TestServiceLogger_LogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewServiceLogger(slog.New(slog.NewJSONHandler(&buf, nil)), LogConfig{Service: "learner-service", Component: "ability"})

	logger.LogOperation(context.Background(), "reset_ability", admin, "student-1", "ability", 5*time.Millisecond, nil)
	assert.Contains(t, buf.String(), `"operation":"reset_ability"`)
	assert.Contains(t, buf.String(), `"user_id":"admin-1"`)

	buf.Reset()
	logger.LogOperation(context.Background(), "reset_ability", student, "student-1", "ability", time.Millisecond,
		NewPermissionError("student-1", "student-1", "ability", "reset", "staff only"))
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
