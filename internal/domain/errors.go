package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrInvalidSpec indicates specification text that cannot be parsed.
	ErrInvalidSpec = errors.New("invalid specification")

	// ErrSpecNotFound indicates no stored specification has the requested id.
	ErrSpecNotFound = errors.New("spec not found")

	// ErrInvalidSpecID indicates an id that cannot be used as a storage key.
	ErrInvalidSpecID = errors.New("invalid spec id")

	// ErrOperationNotFound indicates the path/method pair is not in the document.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrBlockedURL indicates an outbound URL was rejected before dialing.
	ErrBlockedURL = errors.New("blocked url")

	// ErrInvalidRequest indicates a malformed method, header or URL.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrResponseTooLarge indicates a response body exceeded the configured limit.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrUnsupportedFormat indicates an unknown export format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCircuitOpen indicates the target host is failing and calls are short-circuited.
	ErrCircuitOpen = errors.New("circuit open")
)

// RequestError describes a failure at the HTTP execution boundary.
type RequestError struct {
	// Op is the failing step, e.g. "validate", "dial", "read".
	Op string
	// URL is the request target
	URL string
	// Reason is a human-readable description
	Reason string
	// Kind is the sentinel the error matches, may be nil
	Kind error
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.URL, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel recorded in Kind.
func (e *RequestError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}
