package types

import (
	"errors"
	"fmt"
)

// NotFoundError reports a lookup of an id the caller expected to exist.
// Plain get lookups return nil results instead; this error is reserved for
// flows such as import reconciliation where absence is a failure.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConsistencyError reports an operation that would break a temporal
// invariant, such as closing an edge that is not open.
type ConsistencyError struct {
	Op     string
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: consistency violation: %s", e.Op, e.Detail)
}

// StoreError wraps a graph store failure with the operation that issued it.
// The original error is preserved as the cause and never swallowed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: store error: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ValidationError reports a malformed input shape. Deep input validation is
// owned by the API boundary; the engine only guards its own invariants.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewStoreError wraps err with operation context, passing nil through.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConsistency reports whether err is a ConsistencyError.
func IsConsistency(err error) bool {
	var target *ConsistencyError
	return errors.As(err, &target)
}

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
