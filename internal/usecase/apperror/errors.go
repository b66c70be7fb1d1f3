// Package apperror holds the failures use cases report to their callers.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("resource not found")
	// ErrDatabaseIntegrity matches every *IntegrityError.
	ErrDatabaseIntegrity = errors.New("integrity violation")
)

// NotFoundError reports that the requested identity is absent.
type NotFoundError struct {
	Resource string
	ID       int64
	cause    error
}

// NotFound builds a NotFoundError that keeps the store signal as its cause.
func NotFound(resource string, id int64, cause error) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id, cause: cause}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: id %d", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return e.cause }

// IntegrityError reports a deletion blocked by dependent records.
type IntegrityError struct {
	Resource string
	ID       int64
	cause    error
}

// Integrity builds an IntegrityError that keeps the store signal as its cause.
func Integrity(resource string, id int64, cause error) *IntegrityError {
	return &IntegrityError{Resource: resource, ID: id, cause: cause}
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity violation: %s %d is referenced by other records", e.Resource, e.ID)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrDatabaseIntegrity }

func (e *IntegrityError) Unwrap() error { return e.cause }
