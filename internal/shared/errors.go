package shared

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrStockIntegrity indicates a mutation that would drive stock negative.
	ErrStockIntegrity = errors.New("stock integrity violation")
)

// ValidationError batches field-level failures for a single request. A request
// that fails validation is rejected as a whole; no store mutation happens.
type ValidationError struct {
	Fields []FieldError
}

// FieldError names one invalid field.
type FieldError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError from a single field failure.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a field failure.
func (v *ValidationError) Add(field, message string) {
	v.Fields = append(v.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field failed.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// ErrOrNil returns the error when populated, nil otherwise. Callers collect
// failures across all fields of a request and return once at the end.
func (v *ValidationError) ErrOrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func (v *ValidationError) Error() string {
	if len(v.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
