// Package repository defines error types shared by the readings queries.
// Handlers translate these sentinel values into HTTP responses without
// inspecting driver-specific errors.
package repository

import (
	"errors"
	"fmt"
)

// ErrMalformedReading is returned when a stored row cannot be mapped into a
// Reading, most commonly because its timestamp does not parse.  Handlers
// should translate this into an HTTP 500 response.
var ErrMalformedReading = errors.New("malformed reading")

// ErrQueryFailed wraps storage errors (connection loss, timeouts, bad SQL).
var ErrQueryFailed = errors.New("readings query failed")

// MalformedReadingError identifies the offending row.  It matches
// ErrMalformedReading with errors.Is.
type MalformedReadingError struct {
	ID  int64
	Raw string
	Err error
}

func (e *MalformedReadingError) Error() string {
	return fmt.Sprintf("reading %d: timestamp %q: %v", e.ID, e.Raw, e.Err)
}

func (e *MalformedReadingError) Unwrap() error { return e.Err }

func (e *MalformedReadingError) Is(target error) bool { return target == ErrMalformedReading }
