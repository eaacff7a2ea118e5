package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError is a user input problem (missing set weight, empty routine name, ...).
// It is always recoverable by correcting the input; state is never changed when returned.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: reason,
	}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

type StorageOp string

const (
	StorageOpRead  StorageOp = "read"
	StorageOpWrite StorageOp = "write"
)

// StorageError wraps a failure of the key-value store or of (de)serializing
// the blob stored under Key.
type StorageError struct {
	Op  StorageOp
	Key string
	Err error
}

func NewStorageReadError(key string, err error) *StorageError {
	return &StorageError{Op: StorageOpRead, Key: key, Err: err}
}

func NewStorageWriteError(key string, err error) *StorageError {
	return &StorageError{Op: StorageOpWrite, Key: key, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s [%s]: %s", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func IsStorageRead(err error) bool {
	var sErr *StorageError
	return errors.As(err, &sErr) && sErr.Op == StorageOpRead
}

func IsStorageWrite(err error) bool {
	var sErr *StorageError
	return errors.As(err, &sErr) && sErr.Op == StorageOpWrite
}
