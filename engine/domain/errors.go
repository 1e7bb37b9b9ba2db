package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation failures.
var (
	ErrEmptyQuery     = errors.New("empty query")
	ErrTopKOutOfRange = errors.New("top_k out of range")
	ErrNoUserMessage  = errors.New("no user message")
	ErrUnknownRole    = errors.New("unknown message role")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// IsValidation reports whether err is client-caused.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UpstreamError is a normalized failure from one of the two collaborators.
// Clients translate whatever the wire gave them into this pair so nothing
// downstream has to probe transport errors for detail.
type UpstreamError struct {
	Service    string // "search" or "chat"
	StatusCode int    // upstream HTTP status, 0 for transport failures
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s upstream: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("%s upstream: status %d: %s", e.Service, e.StatusCode, e.Message)
}
