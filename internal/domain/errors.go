package domain

import (
	"errors"
	"fmt"
)

// Validation failures are rejected at the boundary before any state
// transition and have no side effects.
var (
	ErrEmptyMessage = errors.New("message text is empty")
	ErrInvalidURL   = errors.New("source url is empty or invalid")
)

// ErrCredentialMissing means the user has no API key configured for the
// completion provider. Recoverable only by user action; never retried.
var ErrCredentialMissing = errors.New("no completion credential configured")

// ErrSendInFlight rejects a send while a previous completion call for the
// same session is still pending.
var ErrSendInFlight = errors.New("a message is already being processed for this session")

// ErrConversationNotFound is returned when resuming a conversation that is
// not in the user's history.
var ErrConversationNotFound = errors.New("conversation not found")

// Ingestion workflow guards.
var (
	ErrNoSubmission  = errors.New("no processed submission to act on")
	ErrPreviewFailed = errors.New("submission preview contains an error and cannot be approved")
)

// CompletionError wraps a completion-service failure. Recoverable at turn
// granularity; shown inline, never fatal.
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion service: %v", e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Message returns text safe to show in place of an agent reply.
func (e *CompletionError) Message() string {
	if e.Err != nil && e.Err.Error() != "" {
		return e.Err.Error()
	}
	return "Sorry, I encountered an error. Please try again."
}

// PersistenceError wraps a backing-store failure. Reads degrade to empty;
// writes are logged and must not crash the active session.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
