package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state transition")
	ErrTaskLocked   = errors.New("task is locked by a progression gate")
	ErrStorage      = errors.New("storage failure")

	// ErrNoFamily is returned when an operation needs family membership.
	ErrNoFamily = fmt.Errorf("%w: you must belong to a family", ErrForbidden)

	// ErrClaimConflict is what a losing or stale claim observes. It cannot tell
	// a task that never existed from one another member already took.
	ErrClaimConflict error = claimConflict{}
)

type claimConflict struct{}

func (claimConflict) Error() string {
	return "task does not exist or is already claimed"
}

func (claimConflict) Is(target error) bool {
	return target == ErrNotFound || target == ErrConflict
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func forbiddenf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func invalidStatef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// storage wraps a persistence error so callers can match ErrStorage while the
// original cause stays available for logging.
func storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
