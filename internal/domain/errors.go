package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the record does not exist or is not owned by the caller
	ErrNotFound = errors.New("not found")

	// ErrQuotaExceeded means the user already holds the maximum number of sessions
	ErrQuotaExceeded = errors.New("chat limit reached")

	// ErrSessionBusy means another turn currently holds the session lock
	ErrSessionBusy = errors.New("session is busy")
)

// ConfigurationError reports missing or invalid configuration.
// It is never fatal to a turn; callers substitute a fallback and log it.
type ConfigurationError struct {
	Component string
	Message   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s misconfigured: %s", e.Component, e.Message)
}

// TransientError wraps an external failure that is worth retrying
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as retryable
func NewTransientError(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// MalformedOutputError reports model output that did not match the required format.
// Parsing is deterministic, so these are never retried.
type MalformedOutputError struct {
	Task   string
	Reason string
	Raw    string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("Failed to %s: bad JSON format (%s)", e.Task, e.Reason)
}

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMalformedOutput reports whether err is a malformed model output error
func IsMalformedOutput(err error) bool {
	var m *MalformedOutputError
	return errors.As(err, &m)
}
