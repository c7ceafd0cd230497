package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/crtbp/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent of the orbit
// starting at x0 by following a neighbour displaced by perturbation along
// x, renormalizing the separation back to perturbation every renorm steps.
// A clearly positive value marks a chaotic orbit.
//
//	λ ≈ (1/T) Σ ln(d_k / d0)
func LyapunovExponent(
	dyn dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
	perturbation float64,
	renorm int,
) (float64, error) {
	if len(x0) == 0 || dt <= 0 || duration <= 0 || perturbation <= 0 {
		return 0, errors.New("analysis: lyapunov needs a state, positive step, duration and perturbation")
	}
	if renorm < 1 {
		renorm = 1
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += perturbation

	steps := int(math.Ceil(duration / dt))
	sumLog := 0.0
	t := 0.0

	for i := 1; i <= steps; i++ {
		var err error
		if x, err = integ.Step(dyn, x, t, dt); err != nil {
			return 0, &dynamo.SimulationError{Step: i, Time: t, State: x0, Wrapped: err}
		}
		if xp, err = integ.Step(dyn, xp, t, dt); err != nil {
			return 0, &dynamo.SimulationError{Step: i, Time: t, State: x0, Wrapped: err}
		}
		t += dt

		if i%renorm != 0 && i != steps {
			continue
		}

		sep := xp.Sub(x).Norm()
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / perturbation)

		// Renormalize to stay in the linear regime.
		scale := perturbation / sep
		for k := range xp {
			xp[k] = x[k] + (xp[k]-x[k])*scale
		}
	}

	return sumLog / t, nil
}
