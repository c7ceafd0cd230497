package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/crtbp/internal/dynamo"
)

// CollisionRadius is the distance to a primary below which the equations
// of motion are considered singular.
const CollisionRadius = 1e-10

// CRTBP implements the circular restricted three-body problem in the
// synodic frame: unit separation, unit angular rate, total mass 1.
// State: [x, y, z, vx, vy, vz]. The larger primary sits at (-mu, 0, 0)
// and the smaller one at (1-mu, 0, 0).
type CRTBP struct {
	mu float64
}

func NewCRTBP(mu float64) (*CRTBP, error) {
	if err := dynamo.ValidateMassRatio(mu); err != nil {
		return nil, err
	}
	return &CRTBP{mu: mu}, nil
}

func (c *CRTBP) Mu() float64   { return c.mu }
func (c *CRTBP) StateDim() int { return 6 }

func (c *CRTBP) Derive(s dynamo.State, _ float64) (dynamo.State, error) {
	if len(s) != 6 {
		return nil, fmt.Errorf("%w: want 6 components, got %d", dynamo.ErrDimensionMismatch, len(s))
	}
	if !s.IsValid() {
		return nil, dynamo.ErrDivergentState
	}

	x, y, z, vx, vy, vz := s[0], s[1], s[2], s[3], s[4], s[5]
	mu1, mu2 := 1-c.mu, c.mu

	r1, r2 := Distances(s, c.mu)
	if r1 < CollisionRadius || r2 < CollisionRadius {
		return nil, fmt.Errorf("%w: r1=%g r2=%g", dynamo.ErrDivergentState, r1, r2)
	}

	muR1 := mu1 / (r1 * r1 * r1)
	muR2 := mu2 / (r2 * r2 * r2)

	ax := 2*vy + x - (x+mu2)*muR1 - (x-mu1)*muR2
	ay := -2*vx + y - (muR1+muR2)*y
	az := -(muR1 + muR2) * z

	out := dynamo.State{vx, vy, vz, ax, ay, az}
	if !out.IsValid() {
		return nil, dynamo.ErrDivergentState
	}
	return out, nil
}

// Energy implements dynamo.Hamiltonian with the Jacobi integral. States
// that cannot be evaluated report NaN.
func (c *CRTBP) Energy(s dynamo.State) float64 {
	cj, err := Jacobi(s, c.mu)
	if err != nil {
		return math.NaN()
	}
	return cj
}

// Distances returns the distances from the state's position to the
// larger (r1) and smaller (r2) primary.
func Distances(s dynamo.State, mu float64) (r1, r2 float64) {
	x, y, z := s[0], s[1], s[2]
	r1 = math.Sqrt((x+mu)*(x+mu) + y*y + z*z)
	r2 = math.Sqrt((x-1+mu)*(x-1+mu) + y*y + z*z)
	return r1, r2
}

// Potential is the effective (pseudo-)potential
// Ω = (x² + y²)/2 + (1-mu)/r1 + mu/r2 at a position.
func Potential(x, y, z, mu float64) float64 {
	r1, r2 := Distances(dynamo.State{x, y, z}, mu)
	return 0.5*(x*x+y*y) + (1-mu)/r1 + mu/r2
}
