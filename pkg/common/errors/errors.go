package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrCapacityExceeded indicates a request larger than a resource can ever grant
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrCanceled indicates that a pending wait was abandoned before completion
	ErrCanceled = errors.New("operation canceled")

	// ErrSchemaMismatch indicates that a stage cannot consume the schema produced upstream
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrNotCompleted indicates that a result was requested before it was available
	ErrNotCompleted = errors.New("result not yet available")
)

// ValidationError describes an invalid constructor or configuration argument.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError records which operation of which module failed and why.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError wrapping cause.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// SchemaError reports a column requirement that the input schema cannot satisfy.
// Actual is empty when the column is missing altogether.
type SchemaError struct {
	Column   string
	Expected string
	Actual   string
}

// NewSchemaError creates a SchemaError for the named column.
func NewSchemaError(column, expected, actual string) *SchemaError {
	return &SchemaError{
		Column:   column,
		Expected: expected,
		Actual:   actual,
	}
}

func (e *SchemaError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("schema: column %q not found (expected %s)", e.Column, e.Expected)
	}
	return fmt.Sprintf("schema: column %q expected %s, got %s", e.Column, e.Expected, e.Actual)
}

// Unwrap returns ErrSchemaMismatch.
func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}

// CanceledError is returned when a wait is abandoned through its context.
// It matches both ErrCanceled and the context error that caused it.
type CanceledError struct {
	Cause error
}

// NewCanceledError wraps a context error.
func NewCanceledError(cause error) *CanceledError {
	return &CanceledError{Cause: cause}
}

func (e *CanceledError) Error() string {
	if e.Cause == nil {
		return ErrCanceled.Error()
	}
	return ErrCanceled.Error() + ": " + e.Cause.Error()
}

// Is reports whether target is ErrCanceled.
func (e *CanceledError) Is(target error) bool {
	return target == ErrCanceled
}

// Unwrap returns the context error.
func (e *CanceledError) Unwrap() error {
	return e.Cause
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsSchemaError reports whether err is or wraps a SchemaError.
func IsSchemaError(err error) bool {
	var serr *SchemaError
	return errors.As(err, &serr)
}

// IsCanceled reports whether err signals a voluntary cancellation rather than a failure.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}
