package api

import (
	"encoding/json"
	"fmt"
)

// RequestError indicates the service rejected a request. Detail carries the
// service's human-readable reason (FastAPI "detail" field) when present.
type RequestError struct {
	Status int
	Detail string
}

func (e *RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("service rejected request (%d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("service rejected request (%d)", e.Status)
}

// ErrUnavailable indicates the service is down or unreachable.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("learning service unavailable: %v", e.Err)
	}
	return "learning service unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrInvalidPayload indicates the service returned a body that does not
// conform to the expected schema.
type ErrInvalidPayload struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidPayload) Error() string {
	return fmt.Sprintf("invalid service response: %v", e.Err)
}

func (e *ErrInvalidPayload) Unwrap() error { return e.Err }
