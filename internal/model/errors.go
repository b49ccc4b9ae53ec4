package model

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrPermission = errors.New("permission denied")
	ErrBoundary   = errors.New("persistence boundary error")
)

// ValidationError reports malformed or inconsistent input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an operation on an unknown id.
type NotFoundError struct {
	Kind string // "account" or "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PermissionError reports a mutation attempted on a non-editable transaction.
type PermissionError struct {
	ID string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("transaction %s is not editable", e.ID)
}

func (e *PermissionError) Is(target error) bool { return target == ErrPermission }

// BoundaryError wraps a failure of the persistence boundary. The cause is
// kept as-is.
type BoundaryError struct {
	Op  string
	Err error
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BoundaryError) Unwrap() error { return e.Err }

func (e *BoundaryError) Is(target error) bool { return target == ErrBoundary }

// Boundary wraps err in a BoundaryError unless it is nil or already one of
// the domain errors above, which pass through untouched.
func Boundary(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPermission) || errors.Is(err, ErrBoundary) {
		return err
	}
	return &BoundaryError{Op: op, Err: err}
}
