package store

import (
	"errors"
	"fmt"
)

// ErrMissingID is returned when a store response lacks the object ID the
// caller needs to continue. Fatal for the ingestion branch that needed it.
var ErrMissingID = errors.New("id not found in store response")

// RequestError wraps a transport-level failure (connection refused, timeout).
type RequestError struct {
	URL           string
	Timeout       bool
	ConnectFailed bool
	Err           error
}

func (e *RequestError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("request to %s timed out: %v", e.URL, e.Err)
	case e.ConnectFailed:
		return fmt.Sprintf("connection to %s failed, is the store running: %v", e.URL, e.Err)
	default:
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from the store, with the body captured.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}
