package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by FindOne when no document matches the filter.
	ErrNotFound = errors.New("edutrack: document not found")

	// ErrUnavailable is returned when the backend could not be reached or
	// the driver reported a transport failure.
	ErrUnavailable = errors.New("edutrack: store unavailable")

	// ErrUnknownCollection is returned for a collection the backend was not configured with.
	ErrUnknownCollection = errors.New("edutrack: unknown collection")
)

// OpError records a failed backend operation. It matches ErrUnavailable with errors.Is.
type OpError struct {
	Backend    string
	Op         string
	Collection Collection
	Err        error
}

// Unavailable wraps a driver error raised by op on collection c.
func Unavailable(backend, op string, c Collection, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Backend: backend, Op: op, Collection: c, Err: err}
}

func (e *OpError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Backend, e.Op, e.Collection, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func (e *OpError) Is(target error) bool { return target == ErrUnavailable }
