package csvdiff

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrSchemaMismatch is returned when the two inputs disagree on their
	// column count, or when a primary-key column is out of range for the
	// inputs being compared.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrColumnOutOfRange is returned by Result.SortByColumns when a sort
	// column exceeds the width of a record in the result.
	ErrColumnOutOfRange = errors.New("column index out of range")

	// ErrInternal is returned when the diff pipeline fails in a way that
	// does not stem from the input data, such as a panicking producer.
	ErrInternal = errors.New("internal error")
)

// SchemaError represents one or more schema violations detected before
// the diff starts scanning.
type SchemaError struct {
	Errors []error
}

// Error implements the error interface.
func (se *SchemaError) Error() string {
	if len(se.Errors) == 0 {
		return ErrSchemaMismatch.Error()
	}
	if len(se.Errors) == 1 {
		return fmt.Sprintf("%v: %v", ErrSchemaMismatch, se.Errors[0])
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("%v with %d violations:\n", ErrSchemaMismatch, len(se.Errors)))
	for i, err := range se.Errors {
		fmt.Fprintf(&buf, "  %d. %v\n", i+1, err)
	}
	return buf.String()
}

// Is reports whether this error matches ErrSchemaMismatch, so callers can
// test with errors.Is without knowing the concrete type.
func (se *SchemaError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
// This implements the multi-error unwrap interface introduced in Go 1.20.
func (se *SchemaError) Unwrap() []error {
	return se.Errors
}

// newSchemaError creates a SchemaError from a slice of errors.
// Returns nil if the slice is empty.
func newSchemaError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &SchemaError{Errors: errs}
}
