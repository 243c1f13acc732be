package fitting

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConvergence is returned when the iteration cap is reached before
	// the tolerance is met.
	ErrNoConvergence = errors.New("fitting: no convergence")
	// ErrSingular is returned when the damped normal equations could not be
	// solved at any damping level tried.
	ErrSingular = errors.New("fitting: singular jacobian")
	// ErrInvalidGuess is returned when the initial guess is non-finite, out of
	// bounds, or zero for a model that needs a positive scale.
	ErrInvalidGuess = errors.New("fitting: invalid initial guess")
	// ErrInsufficientData is returned when there are fewer points than parameters.
	ErrInsufficientData = errors.New("fitting: fewer points than parameters")
)

// FitError ties a failure to the series and model that produced it.
type FitError struct {
	Series string
	Model  string
	Err    error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("fit %s to %q: %v", e.Model, e.Series, e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}
