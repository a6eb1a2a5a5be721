package account

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidOrExpiredToken indicates a token mismatch or an exceeded
	// validity window. Distinct from a validation error: the request shape
	// was fine, the credential is stale or wrong.
	ErrInvalidOrExpiredToken = errors.New("token is invalid or has expired")

	// ErrAuthenticationDenied indicates an inactive account, an unconfirmed
	// primary email, or bad credentials at login time.
	ErrAuthenticationDenied = errors.New("authentication denied")
)

// ValidationError reports malformed or missing input, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError reports a uniqueness violation.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

// PolicyViolation reports a structurally valid request that breaks a
// business rule, such as deleting the primary email.
type PolicyViolation struct {
	Reason string
}

func (e *PolicyViolation) Error() string {
	return e.Reason
}
