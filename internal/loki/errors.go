package loki

import "fmt"

// TransportError wraps a connection, DNS, or timeout failure that occurred
// before a response was obtained. Always retryable by the caller.
type TransportError struct {
	Op  string // "push" or "query"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError is a response with a non-success status. It carries the
// backend's status code and body verbatim so an operator can tell a
// rejected request apart from an unreachable backend. Retryability depends
// on the status class and is left to the caller.
type BackendError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// ParseError is a response body that could not be decoded into the expected
// shape. Never retryable: it indicates contract drift, not a transient fault.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unexpected response shape: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
