// Package services provides the session-facing application operations: the
// layer the web handlers call to start conversations and feed them input.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest     = errors.New("invalid request")
	ErrFlowIDRequired     = errors.New("flow id is required")
	ErrContactIDRequired  = errors.New("contact id is required")
	ErrMessageRequired    = errors.New("message text or media is required")
	ErrFlowNotPublished   = errors.New("flow is not a published snapshot")
	ErrSessionCompleted   = errors.New("session is already completed")
	ErrNoActiveSession    = errors.New("contact has no active session")
	ErrSessionStillActive = errors.New("contact already has an active session")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrFlowIDRequired) ||
		errors.Is(err, ErrContactIDRequired) ||
		errors.Is(err, ErrMessageRequired) ||
		errors.Is(err, ErrFlowNotPublished)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSessionCompleted) ||
		errors.Is(err, ErrSessionStillActive)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
