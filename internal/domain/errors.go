package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies application errors so the transport layer can map
// them to status codes without inspecting message text.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindConflict          ErrorKind = "conflict"
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindInvalidTransition ErrorKind = "invalid_transition"
)

// AppError is the error type returned by domain and application code for
// caller-correctable failures. Infrastructure failures are wrapped plain
// errors and surface as internal errors.
type AppError struct {
	Kind    ErrorKind
	Message string
}

// Error returns the human-readable reason.
func (e *AppError) Error() string {
	return e.Message
}

// NewValidationError reports malformed or semantically invalid input.
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewConflictError reports that the request lost to a competing write or an
// occupied date range.
func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// NewNotFoundError reports that the identified resource does not exist.
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// NewForbiddenError reports an authenticated but unauthorized request.
func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

// NewInvalidTransitionError reports a status transition absent from the
// transition table, independent of who requested it.
func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{Kind: KindInvalidTransition, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
