package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrSchema        = errors.New("required column missing")
	ErrInvalidScore  = errors.New("score is not a number")
	ErrUnsupportedIO = errors.New("unsupported input format")

	// Comparison errors
	ErrSampleMismatch   = errors.New("sample counts differ")
	ErrComputation      = errors.New("statistical test undefined for input")
	ErrDegenerate       = fmt.Errorf("%w: all paired differences are zero", ErrComputation)
	ErrInsufficientData = fmt.Errorf("%w: insufficient data", ErrComputation)
)

// Error constructors with context
func NewSchemaError(missing []string, available []string) error {
	return fmt.Errorf("%w: %v (available columns: %v)", ErrSchema, missing, available)
}

func NewSampleMismatchError(method1, method2 string, n1, n2 int) error {
	return fmt.Errorf("%w: %s has %d scores, %s has %d", ErrSampleMismatch, method1, n1, method2, n2)
}

func NewInvalidScoreError(row int, column, value string) error {
	return fmt.Errorf("%w: row %d column %q value %q", ErrInvalidScore, row, column, value)
}

// Error checking helpers
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrSchema)
}

func IsComputationError(err error) bool {
	return errors.Is(err, ErrComputation)
}

func IsSampleMismatch(err error) bool {
	return errors.Is(err, ErrSampleMismatch)
}
