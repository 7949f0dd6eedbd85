package validator

import (
	"time"

	apperrors "github.com/najah-ai/learner-service/internal/errors"
)

const (
	MinTargetLevel = 1
	MaxTargetLevel = 10

	// Two comparison weeks is the shortest window that can show a trend.
	MinWindowDays = 14
	MaxWindowDays = 365

	MaxClassSize = 200
)

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ToValidationErrors converts validator.ValidationErrors to our custom type
func ToValidationErrors(err error) ValidationErrors {
	return apperrors.ToValidationErrors(err)
}

// RuleChecker is implemented by requests carrying cross-field rules.
type RuleChecker interface {
	CheckRules(bv *BusinessValidator) ValidationErrors
}

// BusinessValidator checks rules that struct tags cannot express.
type BusinessValidator struct{}

func NewBusinessValidator() *BusinessValidator {
	return &BusinessValidator{}
}

// Validate runs the request's own rules when it declares any.
func (v *BusinessValidator) Validate(s interface{}) ValidationErrors {
	if rc, ok := s.(RuleChecker); ok {
		return rc.CheckRules(v)
	}
	return nil
}

// ValidateTargetLevel accepts 0 (use the default) or a level in 1..10.
func (v *BusinessValidator) ValidateTargetLevel(field string, level int) *ValidationError {
	if level == 0 || (level >= MinTargetLevel && level <= MaxTargetLevel) {
		return nil
	}
	return apperrors.NewValidationErrorWithRule(field, "must be between 1 and 10", "target_level", level)
}

// ValidateWindowDays accepts 0 (use the default) or a window in 14..365 days.
func (v *BusinessValidator) ValidateWindowDays(field string, days int) *ValidationError {
	if days == 0 || (days >= MinWindowDays && days <= MaxWindowDays) {
		return nil
	}
	return apperrors.NewValidationErrorWithRule(field, "must be between 14 and 365 days", "window_days", days)
}

// ValidateDateRange rejects a from after to. Both ends are inclusive, so equal
// dates select a single day.
func (v *BusinessValidator) ValidateDateRange(field string, from, to *time.Time) *ValidationError {
	if from == nil || to == nil || !to.Before(*from) {
		return nil
	}
	return apperrors.NewValidationErrorWithRule(field, "start date must not be after end date", "date_range", from)
}

// Collect drops nil entries.
func Collect(errs ...*ValidationError) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		if err != nil {
			out = append(out, *err)
		}
	}
	return out
}
