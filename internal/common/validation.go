package common

import (
	"fmt"
	"strings"
)

// ValidationError is one field-level problem found during validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ValidationRule checks one value and reports a problem or nil.
type ValidationRule func(field string, value any) *ValidationError

// Validator collects field errors so callers surface every problem at
// once instead of the first one hit.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field applies the given rules to one value and collects failures.
func (v *Validator) Field(name string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(name, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// Err returns nil when everything validated, otherwise a single error
// carrying all collected messages. The error matches ErrInvalidInput.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	msgs := make([]string, 0, len(v.errors))
	for _, e := range v.errors {
		msgs = append(msgs, e.Error())
	}
	return NewAppError("VALIDATION_ERROR", strings.Join(msgs, "; "), ErrInvalidInput)
}

// Required rejects empty and blank strings.
func Required(field string, value any) *ValidationError {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: field, Message: "is required"}
		}
	case nil:
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// AtLeast rejects integer values below min.
func AtLeast(min int) ValidationRule {
	return func(field string, value any) *ValidationError {
		n, ok := value.(int)
		if !ok {
			return &ValidationError{Field: field, Message: "must be an integer"}
		}
		if n < min {
			return &ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d, got %d", min, n)}
		}
		return nil
	}
}

// Positive rejects non-positive durations and numbers.
func Positive(field string, value any) *ValidationError {
	switch v := value.(type) {
	case int:
		if v <= 0 {
			return &ValidationError{Field: field, Message: "must be positive"}
		}
	case float64:
		if v <= 0 {
			return &ValidationError{Field: field, Message: "must be positive"}
		}
	case interface{ Nanoseconds() int64 }:
		if v.Nanoseconds() <= 0 {
			return &ValidationError{Field: field, Message: "must be positive"}
		}
	}
	return nil
}
