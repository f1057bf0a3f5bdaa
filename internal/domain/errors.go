package domain

import (
	"errors"
	"fmt"
)

// Common domain errors for the verification pipeline.
var (
	// ErrEmptyRationale indicates the generation backend produced an empty
	// rationale, leaving nothing to segment.
	ErrEmptyRationale = errors.New("empty rationale")

	// ErrInvalidConfiguration indicates that configuration is invalid or
	// incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// StructuralError reports a hard constraint failure: a structural
// precondition on the round that regeneration cannot be expected to fix.
// It is terminal and aborts the round without retry.
type StructuralError struct {
	// Check names the structural predicate that failed.
	Check string

	// Msg is the diagnostic message attached to the constraint.
	Msg string
}

// Error implements the error interface for StructuralError.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("hard constraint %s failed: %s", e.Check, e.Msg)
}

// NewStructuralError creates a StructuralError for a named check.
func NewStructuralError(check, msg string) *StructuralError {
	return &StructuralError{Check: check, Msg: msg}
}

// FormatError reports that an external backend returned output violating its
// expected schema, such as a judge annotation outside the closed set. It is
// terminal for the current attempt and is never converted into
// constraint-driven regeneration.
type FormatError struct {
	// Backend identifies which collaborator produced the bad output.
	Backend string

	// Field is the schema field that failed validation, when known.
	Field string

	// Err is the underlying validation or parse error.
	Err error
}

// Error implements the error interface for FormatError.
func (e *FormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s backend returned malformed output: field %s: %v", e.Backend, e.Field, e.Err)
	}
	return fmt.Sprintf("%s backend returned malformed output: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *FormatError) Unwrap() error { return e.Err }

// ConstraintViolation reports a soft constraint that kept failing until the
// backtrack bound was exhausted. It preserves the original diagnostic
// message and the number of regeneration attempts consumed.
type ConstraintViolation struct {
	// Msg is the diagnostic message of the constraint that failed.
	Msg string

	// Attempts is the number of backtrack attempts consumed before the
	// violation became terminal.
	Attempts int
}

// Error implements the error interface for ConstraintViolation.
func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("soft constraint still failing after %d backtracks: %s", e.Attempts, e.Msg)
}
