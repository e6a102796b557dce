package domain

import (
	"errors"
	"fmt"
)

var (
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrNotFound              = errors.New("not found")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidInput          = errors.New("invalid input")
)

// storageError wraps a driver failure so that it matches ErrStorageUnavailable
// while keeping the original cause reachable.
type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.op, ErrStorageUnavailable, e.err)
}

func (e *storageError) Unwrap() error { return e.err }

func (e *storageError) Is(target error) bool { return target == ErrStorageUnavailable }

// StorageError marks err as a persistence failure of operation op.
// Already classified errors (not found, invalid input, storage) are returned unchanged.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return &storageError{op: op, err: err}
}
