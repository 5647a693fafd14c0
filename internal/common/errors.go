// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Pipeline errors.
	ErrSchema      = errors.New("schema error")
	ErrRowCoercion = errors.New("row coercion failed")
	ErrNotFound    = errors.New("not found")

	// Persistence errors.
	ErrConnectivity      = errors.New("store unreachable")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SchemaError reports required columns that are absent from an uploaded batch.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: missing required fields: %s", ErrSchema, strings.Join(e.Missing, ", "))
}

// Is matches ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// RowCoercionError describes a single rejected row.
type RowCoercionError struct {
	Field  string
	Value  string
	Reason string
	Row    int
}

func (e *RowCoercionError) Error() string {
	return fmt.Sprintf("%v: row %d: field %q (%q): %s", ErrRowCoercion, e.Row, e.Field, e.Value, e.Reason)
}

// Is matches ErrRowCoercion.
func (e *RowCoercionError) Is(target error) bool {
	return target == ErrRowCoercion
}

// NotFoundError is returned when an edit or delete targets a record that is not in the collection.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("record %s: %v", e.ID, ErrNotFound)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConnectivityError means the persistence collaborator could not be reached.
// Callers treat it as a warning: the in-memory working set stays valid.
type ConnectivityError struct {
	Err error
	Op  string
}

func (e *ConnectivityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v during %s: %v", ErrConnectivity, e.Op, e.Err)
	}
	return fmt.Sprintf("%v during %s", ErrConnectivity, e.Op)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// Is matches ErrConnectivity.
func (e *ConnectivityError) Is(target error) bool {
	return target == ErrConnectivity
}

// IsWarning reports whether err should be shown as a warning rather than aborting the action.
func IsWarning(err error) bool {
	return errors.Is(err, ErrConnectivity)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable reports whether another attempt could succeed. Cancelled or
// expired contexts and errors marked Permanent are final; anything else is
// treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return true
}
