package session

import (
	"errors"
	"fmt"
)

// ErrNoActiveSession indicates a session-scoped command ran without a
// session.
var ErrNoActiveSession = errors.New("no active session")

// ErrBusy indicates a command of the same class is already in flight.
var ErrBusy = errors.New("a command is already in flight")

// ErrInvalidInput indicates a submission carried neither text nor audio,
// or both at once.
var ErrInvalidInput = errors.New("exactly one of text or audio is required")

// InvalidTransitionError indicates a command was rejected because the
// state machine forbids it in the current position.
type InvalidTransitionError struct {
	Op     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason)
}

// StartError indicates session start failed. Detail, when set, is the
// service's child-readable rejection reason.
type StartError struct {
	Detail string
	Err    error
}

func (e *StartError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("session start failed: %s", e.Detail)
	}
	return fmt.Sprintf("session start failed: %v", e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// InteractionError indicates a conversation turn failed after the user's
// message was already logged.
type InteractionError struct {
	Err error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("interaction failed: %v", e.Err)
}

func (e *InteractionError) Unwrap() error { return e.Err }

// QuizError indicates a quiz command failed. Op is one of "start",
// "answer", "cancel".
type QuizError struct {
	Op  string
	Err error
}

func (e *QuizError) Error() string {
	return fmt.Sprintf("quiz %s failed: %v", e.Op, e.Err)
}

func (e *QuizError) Unwrap() error { return e.Err }

// EndError indicates the end-session call failed; the session stays open.
type EndError struct {
	Err error
}

func (e *EndError) Error() string {
	return fmt.Sprintf("end session failed: %v", e.Err)
}

func (e *EndError) Unwrap() error { return e.Err }
