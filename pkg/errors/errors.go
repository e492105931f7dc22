// Package errors defines the error taxonomy used across the binngo library.
//
// Errors fall into two groups:
//
//   - Unrecoverable configuration errors raised before any computation:
//     ValidationError and FixedSplitConflictError. These propagate
//     immediately to the caller.
//   - Usage errors: NotFittedError for accessors invoked before a
//     successful fit, DimensionError for shape mismatches inside numeric
//     kernels.
//
// Solver statuses (optimal, feasible, infeasible, stopped) are deliberately
// NOT errors; they are reported as fitted-state metadata by the binning
// package.
//
// All types support Go 1.13+ error wrapping via errors.Is / errors.As, and
// Recover converts panics at exported entry points into errors carrying a
// stack trace.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for common failure conditions.
var (
	// ErrEmptyData indicates an empty input array or matrix.
	ErrEmptyData = errors.New("empty data")

	// ErrNotFitted indicates an estimator was used before fitting.
	ErrNotFitted = errors.New("estimator is not fitted")

	// ErrNotImplemented indicates a requested capability is not available.
	ErrNotImplemented = errors.New("not implemented")
)

// ModelError is a generic operation failure wrapping an underlying cause.
type ModelError struct {
	Op      string // Operation, e.g. "ScenarioBinning.Fit"
	Message string
	Err     error
}

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, message string, err error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: err}
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("binngo: %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("binngo: %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ModelError) Unwrap() error { return e.Err }

// ValidationError reports malformed or inconsistent configuration or input
// shapes. It is raised eagerly, before any computation touches the data.
type ValidationError struct {
	Op      string
	Message string
}

// NewValidationError creates a ValidationError.
func NewValidationError(op, message string) *ValidationError {
	return &ValidationError{Op: op, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("binngo: %s: invalid parameter: %s", e.Op, e.Message)
}

// NotFittedError reports an accessor called before a successful fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("binngo: %s.%s: %s instance is not fitted yet; call Fit before using this method",
		e.ModelName, e.Method, e.ModelName)
}

// Unwrap lets errors.Is(err, ErrNotFitted) match any NotFittedError.
func (e *NotFittedError) Unwrap() error { return ErrNotFitted }

// DimensionError reports a shape mismatch between related arrays.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Index    int // Offending axis or scenario index, when meaningful.
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, index int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Index: index}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("binngo: %s: dimension mismatch at index %d: expected %d, got %d",
		e.Op, e.Index, e.Expected, e.Got)
}

// ValueError reports an invalid value passed to a numeric routine.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("binngo: %s: %s", e.Op, e.Message)
}

// FixedSplitConflictError reports an infeasible configuration: one or more
// user-pinned splits must be removed during prebinning refinement because
// they produce a pure prebin in at least one scenario. The refinement never
// auto-resolves this; the caller must pin different splits.
type FixedSplitConflictError struct {
	Op     string
	Splits []float64 // The pinned split values that would have been removed.
}

// NewFixedSplitConflictError creates a FixedSplitConflictError.
func NewFixedSplitConflictError(op string, splits []float64) *FixedSplitConflictError {
	return &FixedSplitConflictError{Op: op, Splits: splits}
}

func (e *FixedSplitConflictError) Error() string {
	vals := make([]string, len(e.Splits))
	for i, s := range e.Splits {
		vals[i] = fmt.Sprintf("%g", s)
	}
	return fmt.Sprintf("binngo: %s: fixed user splits [%s] are removed because they produce pure prebins; "+
		"provide different splits to be fixed", e.Op, strings.Join(vals, ", "))
}

// Recover converts a panic into an error with a captured stack trace.
// Intended as a deferred guard on exported entry points:
//
//	func (b *ScenarioBinning) Fit(...) (err error) {
//	    defer errors.Recover(&err, "ScenarioBinning.Fit")
//	    ...
//	}
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		switch v := r.(type) {
		case error:
			*err = errors.Wrapf(v, "binngo: %s: panic", op)
		default:
			*err = errors.Newf("binngo: %s: panic: %v", op, v)
		}
	}
}
