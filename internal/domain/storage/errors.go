// Package storage declares the outcomes a persistence store reports back to
// its callers, independent of the database engine behind it.
package storage

import "errors"

var (
	// ErrEmptyResult means no record exists for the requested id.
	ErrEmptyResult = errors.New("storage: no record for id")
	// ErrIntegrityViolation means the write or delete is blocked because other
	// records depend on the target.
	ErrIntegrityViolation = errors.New("storage: referential integrity violation")
	// ErrEntityNotFound is raised when a lazy reference is touched and the
	// entity behind it does not exist.
	ErrEntityNotFound = errors.New("storage: referenced entity does not exist")
)
