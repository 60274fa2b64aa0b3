package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowNotFound indicates a flow was not found by the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrSessionNotFound indicates a session was not found by the given identifier.
	ErrSessionNotFound = errors.New("session not found")

	// ErrContactNotFound indicates a contact was not found by the given identifier.
	ErrContactNotFound = errors.New("contact not found")

	// ErrChannelNotFound indicates a channel instance was not found.
	ErrChannelNotFound = errors.New("channel instance not found")

	// ErrTimerNotFound indicates no timer entry exists for the session.
	ErrTimerNotFound = errors.New("timer not found")

	// ErrSessionBusy indicates a claim was denied because the session is
	// already being processed and its lease is fresh.
	ErrSessionBusy = errors.New("session already processing")
)

// StoreError wraps repository errors with the operation and entity involved.
type StoreError struct {
	Op     string // Operation being performed (e.g. "SessionByID", "Upsert")
	Entity string // Entity kind ("session", "flow", "timer", ...)
	ID     string // Entity id if applicable
	Err    error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
	}

	return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Entity, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a StoreError with the given context.
func NewStoreError(op, entity, id string, err error) *StoreError {
	return &StoreError{Op: op, Entity: entity, ID: id, Err: err}
}
