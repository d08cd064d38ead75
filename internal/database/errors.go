package database

import (
	"github.com/pkg/errors"
)

// ErrStorageUnavailable classifies failures of the database itself (open,
// query, write, commit). The poll loop discards the cycle and retries.
var ErrStorageUnavailable = errors.New("storage unavailable")

type storageError struct {
	cause error
}

func (e *storageError) Error() string { return e.cause.Error() }

func (e *storageError) Unwrap() error { return e.cause }

func (e *storageError) Is(target error) bool { return target == ErrStorageUnavailable }

// wrap annotates err with message and marks it as a storage failure.
func wrap(err error, message string) error {
	return errors.Wrap(&storageError{cause: err}, message)
}

func wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(&storageError{cause: err}, format, args...)
}
