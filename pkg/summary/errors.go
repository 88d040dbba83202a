package summary

import (
	"errors"
	"fmt"
)

// Sentinel errors for batch and parameter validation.
var (
	// ErrEmptyBatch indicates the batch has no points.
	ErrEmptyBatch = errors.New("cannot be empty list")
	// ErrLowerFraction indicates the lower fraction is not below one half.
	ErrLowerFraction = errors.New("lower fraction has to be less than half")
	// ErrUpperFraction indicates the upper fraction is not above one half.
	ErrUpperFraction = errors.New("upper fraction has to be larger than half")
	// ErrZeroDimensions indicates a batch of zero-length points.
	ErrZeroDimensions = errors.New("cannot have 0 dimensions")
	// ErrNonFiniteWeight indicates a NaN or infinite point weight.
	ErrNonFiniteWeight = errors.New("point weights must be finite")
	// ErrNegativeWeight indicates a point weight below zero.
	ErrNegativeWeight = errors.New("point weights have to be non-negative")
	// ErrTotalWeight indicates the weights sum to zero or overflow.
	ErrTotalWeight = errors.New("total weight must be positive and finite")
	// ErrDimensionMismatch indicates a point whose length differs from the batch dimension.
	ErrDimensionMismatch = errors.New("points have to be of same length")
	// ErrNonFiniteValue indicates a NaN or infinite coordinate.
	ErrNonFiniteValue = errors.New("cannot have NaN or infinite values")
	// ErrMaxNumber indicates a negative cluster cap.
	ErrMaxNumber = errors.New("max number of typical points cannot be negative")
)

// Sentinel errors for attaching typical points.
var (
	// ErrTypicalLength indicates typical points and weights of different lengths.
	ErrTypicalLength = errors.New("incorrect lengths of fields")
	// ErrTypicalDimension indicates a typical point of the wrong dimension.
	ErrTypicalDimension = errors.New("incorrect length points")
	// ErrTypicalAlreadySet indicates a second attempt to attach typical points.
	ErrTypicalAlreadySet = errors.New("typical points already attached")
	// ErrTooManyCenters indicates the clustering collaborator exceeded the requested cap.
	ErrTooManyCenters = errors.New("clusterer returned more centers than requested")
	// ErrNoRepresentative indicates a center without any representative vector.
	ErrNoRepresentative = errors.New("center has no representative")
)

// check returns nil when cond holds, otherwise err annotated with the formatted detail.
func check(cond bool, err error, format string, args ...any) error {
	if cond {
		return nil
	}

	if format == "" {
		return err
	}

	return fmt.Errorf("%w: "+format, append([]any{err}, args...)...)
}
