package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

func (pe *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", pe.Field, pe.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewValidationErrorWithRule creates a new validation error with rule
func NewValidationErrorWithRule(field, message, rule string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
		Rule:    rule,
	}
}

// ToValidationErrors converts validator.ValidationErrors to our custom type.
// Errors that are not validator errors yield an empty result.
func ToValidationErrors(err error) ValidationErrors {
	var result ValidationErrors

	var validatorErr validator.ValidationErrors
	if !stderrors.As(err, &validatorErr) {
		return result
	}

	for _, fe := range validatorErr {
		result = append(result, ValidationError{
			Field:   fe.Field(),
			Message: getErrorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}

	return result
}

// Field returns the first error reported for field, or nil.
func (ve ValidationErrors) Field(field string) *ValidationError {
	for i := range ve {
		if ve[i].Field == field {
			return &ve[i]
		}
	}
	return nil
}

// getErrorMessage returns user-friendly error messages
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", err.Param())
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "numeric":
		return "must be a number"
	case "alpha":
		return "must contain only letters"
	case "alphanum":
		return "must contain only letters and numbers"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())

	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", err.Param())
	case "dive":
		return "contains an invalid entry"

	// Custom validators
	case "unit_interval":
		return "must be between 0 and 1"
	case "subject_key":
		return "must be a lowercase subject key (letters, digits, '-' or '_')"
	case "user_role":
		return "must be a valid user role (student, teacher, admin)"

	// Business rule validators
	case "target_level":
		return "must be between 1 and 10"
	case "window_days":
		return "must be between 14 and 365 days"
	case "date_range":
		return "start date must be before end date"

	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
