package backend

import (
	"errors"
	"fmt"
)

// TransportError covers connect, timeout and other network-level failures.
// Always retriable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a response with status 400 or above. Details carries the
// parsed JSON body when the backend sent one, or the raw text otherwise.
type StatusError struct {
	Code    int
	Details any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %v", e.Code, e.Details)
}

func (e *StatusError) Retriable() bool {
	switch e.Code {
	case 429, 500, 502, 503, 504:
		return true
	}

	return false
}

// MalformedResponseError is a 2xx response whose body is not a JSON object.
// Never retriable: the backend is answering, just not in the agreed format.
type MalformedResponseError struct {
	Code int
	Body string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("backend returned malformed body (status %d)", e.Code)
}

// RetriesExhaustedError is returned once the whole retry budget is consumed.
// Last holds the failure of the final attempt.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("backend unavailable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

func retriable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retriable()
	}

	return false
}
