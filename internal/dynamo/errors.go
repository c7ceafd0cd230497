package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for the restricted three-body operations.
var (
	// ErrInvalidMassRatio indicates mu outside (0, 0.5].
	ErrInvalidMassRatio = errors.New("dynamo: mass ratio must lie in (0, 0.5]")

	// ErrIntegrationFailed indicates the propagator exhausted its step budget
	// or its step size collapsed.
	ErrIntegrationFailed = errors.New("dynamo: integration failed")

	// ErrDivergentState indicates a collision with a primary or a non-finite state.
	ErrDivergentState = errors.New("dynamo: divergent state (collision with a primary or NaN/Inf)")

	// ErrSingularSystem indicates a non-invertible stability coefficient matrix.
	ErrSingularSystem = errors.New("dynamo: singular coefficient matrix")

	// ErrInvalidIndex indicates a Lagrange point index outside 1..5.
	ErrInvalidIndex = errors.New("dynamo: lagrange point index must be in [1, 5]")

	// ErrDimensionMismatch indicates a state vector of the wrong length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrInvalidSamples indicates fewer than two requested samples.
	ErrInvalidSamples = errors.New("dynamo: sample count must be at least 2")

	// ErrContextCanceled indicates the propagation was interrupted.
	ErrContextCanceled = errors.New("dynamo: propagation canceled by context")
)

// SimulationError wraps an error with propagation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// ValidateMassRatio rejects mu outside (0, 0.5], NaN included.
func ValidateMassRatio(mu float64) error {
	if !(mu > 0 && mu <= 0.5) {
		return fmt.Errorf("%w: got %g", ErrInvalidMassRatio, mu)
	}
	return nil
}
