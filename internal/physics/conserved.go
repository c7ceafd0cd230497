package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/frames"
	"gonum.org/v1/gonum/floats"
)

// Jacobi returns the Jacobi integral
// CJ = x² + y² + 2((1-mu)/r1 + mu/r2) - |v|², conserved along any
// trajectory of the synodic equations of motion.
func Jacobi(s dynamo.State, mu float64) (float64, error) {
	if err := checkState(s, mu); err != nil {
		return 0, err
	}
	x, y := s[0], s[1]
	r1, r2 := Distances(s, mu)
	if r1 < CollisionRadius || r2 < CollisionRadius {
		return 0, fmt.Errorf("%w: r1=%g r2=%g", dynamo.ErrDivergentState, r1, r2)
	}
	v2 := floats.Dot(s[3:6], s[3:6])
	return x*x + y*y + 2*((1-mu)/r1+mu/r2) - v2, nil
}

// Tisserand returns the Tisserand-like parameter of a synodic state:
// the state is taken to the inertial frame at t = 0 and the z component
// of the specific angular momentum is added to the vis-viva term
// (2/|r| - |v|²)/2.
func Tisserand(s dynamo.State, mu float64) (float64, error) {
	if err := checkState(s, mu); err != nil {
		return 0, err
	}
	in, err := frames.SynodicToInertialState(s, 0)
	if err != nil {
		return 0, err
	}

	r, v := in[0:3], in[3:6]
	rNorm := floats.Norm(r, 2)
	if rNorm < CollisionRadius {
		return 0, fmt.Errorf("%w: |r|=%g", dynamo.ErrDivergentState, rNorm)
	}

	hz := r[0]*v[1] - r[1]*v[0]
	vNorm := floats.Norm(v, 2)
	return hz + 0.5*(2/rNorm-vNorm*vNorm), nil
}

// HillRadius returns (mu/3)^(1/3), the radius of the secondary's sphere
// of gravitational dominance in units of the primaries' separation.
func HillRadius(mu float64) float64 {
	return math.Cbrt(mu / 3)
}

func checkState(s dynamo.State, mu float64) error {
	if err := dynamo.ValidateMassRatio(mu); err != nil {
		return err
	}
	if len(s) != 6 {
		return fmt.Errorf("%w: want 6 components, got %d", dynamo.ErrDimensionMismatch, len(s))
	}
	if !s.IsValid() {
		return dynamo.ErrDivergentState
	}
	return nil
}
