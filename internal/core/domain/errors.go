package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPaymentUnavailable is returned when no payment gateway is configured.
var ErrPaymentUnavailable = errors.New("payment gateway not configured")

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
	}
	return e.Message
}

// NewValidationError builds a ValidationError that carries a message only.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// TransportError describes a failure reported by a third-party API
// (SMS, email, payments).
type TransportError struct {
	Provider string
	Code     int
	Message  string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (code %d)", e.Provider, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }
