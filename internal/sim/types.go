package sim

import (
	"fmt"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/integrators"
)

// DefaultMaxSteps bounds the number of attempted steps of a single run.
const DefaultMaxSteps = 1_000_000

// Config controls one propagation.
type Config struct {
	// Tolerance is the per-step error bound of adaptive integrators.
	Tolerance dynamo.Tolerance
	// InitialDt is the first trial step. Zero picks one from the sample spacing.
	InitialDt float64
	// MinDt is the smallest step an adaptive integrator may shrink to.
	MinDt float64
	// MaxSteps counts every attempted step, rejected ones included.
	MaxSteps int
	// FixedDt switches to fixed-step integration: each sample interval is
	// split into equal substeps no longer than FixedDt.
	FixedDt float64
}

func DefaultConfig() Config {
	return Config{
		Tolerance: integrators.DefaultTolerance,
		MinDt:     1e-14,
		MaxSteps:  DefaultMaxSteps,
	}
}

func (c Config) validate(adaptive bool) error {
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max steps must be positive, got %d", c.MaxSteps)
	}
	if c.FixedDt < 0 || c.InitialDt < 0 || c.MinDt < 0 {
		return fmt.Errorf("step sizes must not be negative")
	}
	if c.FixedDt == 0 {
		if !adaptive {
			return fmt.Errorf("fixed-step integrator needs a positive FixedDt")
		}
		if c.Tolerance.Abs <= 0 && c.Tolerance.Rel <= 0 {
			return fmt.Errorf("tolerance must be positive for adaptive stepping")
		}
		if c.Tolerance.Abs < 0 || c.Tolerance.Rel < 0 {
			return fmt.Errorf("tolerance must not be negative")
		}
	}
	return nil
}

// SampleTimes returns the n output stamps t·i/(n-1). The last stamp is
// exactly t.
func SampleTimes(t float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: got %d", dynamo.ErrInvalidSamples, n)
	}
	times := make([]float64, n)
	for i := range times {
		times[i] = t * float64(i) / float64(n-1)
	}
	times[n-1] = t
	return times, nil
}
