package core

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by services. Callers match them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicatePayment = errors.New("bill already paid for this period")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrValidation       = errors.New("validation failed")
)

var (
	ErrInvalidAmount      error = &ValidationError{Field: "amount", Reason: "must be a positive amount"}
	ErrAmountTooLarge     error = &ValidationError{Field: "amount", Reason: "exceeds the maximum amount"}
	ErrEmptyItem          error = &ValidationError{Field: "item", Reason: "cannot be empty"}
	ErrEmptyName          error = &ValidationError{Field: "name", Reason: "cannot be empty"}
	ErrInvalidDueDay      error = &ValidationError{Field: "due_day", Reason: "must be between 1 and 31"}
	ErrInvalidCategory    error = &ValidationError{Field: "category", Reason: "unknown category"}
	ErrInvalidPaymentMode error = &ValidationError{Field: "payment_mode", Reason: "unknown payment mode"}
	ErrInvalidPeriod      error = &ValidationError{Field: "period", Reason: "must be formatted as YYYY-MM"}
)

// ValidationError reports an input that was rejected before reaching storage.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes every ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
