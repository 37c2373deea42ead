// Package models defines the error taxonomy shared across the bot.
package models

import (
	"errors"
	"fmt"
)

// Sentinel errors distinguishing the failure kinds the dialog engine reacts
// to. Storage backends return these (or a StorageError) so the engine can
// pick the right user-facing message without inspecting driver errors.
var (
	// ErrNotFound indicates a house, resident or vehicle lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a duplicate registration.
	ErrAlreadyExists = errors.New("already exists")
	// ErrEmpty indicates a list query yielded nothing.
	ErrEmpty = errors.New("empty")
	// ErrCantBuild indicates a draft is missing mandatory fields at build time.
	ErrCantBuild = errors.New("draft is missing mandatory fields")
)

// StorageError wraps an underlying persistence failure with a description.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err as a storage failure for the given operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageFailure reports whether err is an underlying persistence failure
// rather than a domain outcome like ErrNotFound or ErrAlreadyExists.
func IsStorageFailure(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
