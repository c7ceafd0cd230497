package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/physics"
	"gonum.org/v1/gonum/mat"
)

// RouthCriticalMu is the Routh value (27 - √621)/54 ≈ 0.03852. The
// triangular points are linearly stable iff mu is below it.
var RouthCriticalMu = (27 - math.Sqrt(621)) / 54

// MaxCondition bounds the condition number of the amplitude system.
// Beyond it two eigenvalues are numerically coincident and the modal
// decomposition no longer exists.
const MaxCondition = 1e7

// Mode is the closed-form solution of the planar equations of motion
// linearized about a Lagrange point:
//
//	x(t) = Σ α_k exp(λ_k t),  y(t) = Σ α_k β_k exp(λ_k t)
type Mode struct {
	Point       physics.Point
	Mu          float64
	Eigenvalues [4]complex128 // λ_k
	Ratios      [4]complex128 // β_k = y/x amplitude ratio of mode k
	Amplitudes  [4]complex128 // α_k
	Stable      bool
}

// PotentialPartials returns the second partial derivatives Uxx, Uyy, Uxy
// of the effective potential at the in-plane position (x, y).
func PotentialPartials(mu, x, y float64) (uxx, uyy, uxy float64) {
	mu1, mu2 := 1-mu, mu
	r1 := math.Hypot(x+mu2, y)
	r2 := math.Hypot(x-mu1, y)
	r13, r23 := r1*r1*r1, r2*r2*r2
	r15, r25 := r13*r1*r1, r23*r2*r2

	a := mu1/r13 + mu2/r23
	b := 3 * (mu1/r15 + mu2/r25) * y * y
	c := 3 * (mu1*(x+mu2)/r15 + mu2*(x-mu1)/r25) * y
	d := 3 * (mu1*(x+mu2)*(x+mu2)/r15 + mu2*(x-mu1)*(x-mu1)/r25)

	return 1 - a + d, 1 - a + b, c
}

// Eigenvalues solves λ⁴ + (4 - Uxx - Uyy)λ² + (UxxUyy - Uxy²) = 0 in the
// complex domain. The result is ordered +√(A-B), -√(A-B), +√(A+B), -√(A+B).
func Eigenvalues(uxx, uyy, uxy float64) [4]complex128 {
	a := complex((uxx+uyy-4)/2, 0)
	disc := (4-uxx-uyy)*(4-uxx-uyy) - 4*(uxx*uyy-uxy*uxy)
	b := 0.5 * cmplx.Sqrt(complex(disc, 0))

	e1 := cmplx.Sqrt(a - b)
	e3 := cmplx.Sqrt(a + b)
	return [4]complex128{e1, -e1, e3, -e3}
}

// Stability solves for the four mode amplitudes α_k of Lagrange point
// index with the coefficient rows
//
//	[1, 1, 1, 1]     · α = x0
//	[λ_1 ... λ_4]    · α = y0
//	[β_1 ... β_4]    · α = vx0
//	[β_kλ_k ...]     · α = vy0
//
// In this row order the second input pairs with the x velocity of the
// modes and the third with their y displacement. Use StabilityFromState
// to decompose a displacement and velocity measured from the point.
func Stability(x0, y0, vx0, vy0, mu float64, index int) (*Mode, error) {
	p, err := physics.LagrangePoint(mu, index)
	if err != nil {
		return nil, err
	}

	uxx, uyy, uxy := PotentialPartials(mu, p.X, p.Y)
	eig := Eigenvalues(uxx, uyy, uxy)

	var ratios [4]complex128
	for k, l := range eig {
		den := 2*l + complex(uxy, 0)
		if den == 0 {
			return nil, fmt.Errorf("%w: mode %d has no y/x ratio", dynamo.ErrSingularSystem, k)
		}
		ratios[k] = (l*l - complex(uxx, 0)) / den
	}

	var coeffs [4][4]complex128
	for k := 0; k < 4; k++ {
		coeffs[0][k] = 1
		coeffs[1][k] = eig[k]
		coeffs[2][k] = ratios[k]
		coeffs[3][k] = ratios[k] * eig[k]
	}

	alpha, err := solveComplex4(coeffs, [4]float64{x0, y0, vx0, vy0})
	if err != nil {
		return nil, err
	}

	return &Mode{
		Point:       p,
		Mu:          mu,
		Eigenvalues: eig,
		Ratios:      ratios,
		Amplitudes:  alpha,
		Stable:      IsStable(mu, index),
	}, nil
}

// StabilityFromState decomposes the planar perturbation (dx, dy, dvx, dvy)
// from Lagrange point index, so that Mode.X and Mode.Y start at dx and dy
// with velocities dvx and dvy.
func StabilityFromState(dx, dy, dvx, dvy, mu float64, index int) (*Mode, error) {
	// x(0) = Σα, y(0) = Σαβ, vx(0) = Σαλ, vy(0) = Σαβλ.
	return Stability(dx, dvx, dy, dvy, mu, index)
}

// IsStable reports the linear stability of Lagrange point index: the
// collinear points are always unstable, the triangular ones are stable
// below the Routh critical mass ratio.
func IsStable(mu float64, index int) bool {
	if index == 4 || index == 5 {
		return mu < RouthCriticalMu
	}
	return false
}

// X returns the x perturbation at time t.
func (m *Mode) X(t float64) float64 {
	var sum complex128
	for k, l := range m.Eigenvalues {
		sum += m.Amplitudes[k] * cmplx.Exp(l*complex(t, 0))
	}
	return real(sum)
}

// Y returns the y perturbation at time t.
func (m *Mode) Y(t float64) float64 {
	var sum complex128
	for k, l := range m.Eigenvalues {
		sum += m.Amplitudes[k] * m.Ratios[k] * cmplx.Exp(l*complex(t, 0))
	}
	return real(sum)
}

// XY evaluates the perturbation at every time in ts.
func (m *Mode) XY(ts []float64) (xs, ys []float64) {
	xs = make([]float64, len(ts))
	ys = make([]float64, len(ts))
	for i, t := range ts {
		xs[i] = m.X(t)
		ys[i] = m.Y(t)
	}
	return xs, ys
}

// GrowthRate is the largest real part among the eigenvalues; a value
// above zero means perturbations grow exponentially.
func (m *Mode) GrowthRate() float64 {
	g := math.Inf(-1)
	for _, l := range m.Eigenvalues {
		g = math.Max(g, real(l))
	}
	return g
}

// solveComplex4 solves A·z = b through the real embedding
//
//	[Re A  -Im A] [Re z]   [Re b]
//	[Im A   Re A] [Im z] = [Im b]
func solveComplex4(a [4][4]complex128, b [4]float64) ([4]complex128, error) {
	m := mat.NewDense(8, 8, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			re, im := real(a[i][j]), imag(a[i][j])
			m.Set(i, j, re)
			m.Set(i, j+4, -im)
			m.Set(i+4, j, im)
			m.Set(i+4, j+4, re)
		}
	}
	rhs := mat.NewVecDense(8, []float64{b[0], b[1], b[2], b[3], 0, 0, 0, 0})

	var lu mat.LU
	lu.Factorize(m)
	if c := lu.Cond(); math.IsInf(c, 1) || math.IsNaN(c) || c > MaxCondition {
		return [4]complex128{}, fmt.Errorf("%w: condition number %.3g", dynamo.ErrSingularSystem, c)
	}

	var sol mat.VecDense
	if err := lu.SolveVecTo(&sol, false, rhs); err != nil {
		return [4]complex128{}, fmt.Errorf("%w: %v", dynamo.ErrSingularSystem, err)
	}

	var z [4]complex128
	for k := 0; k < 4; k++ {
		z[k] = complex(sol.AtVec(k), sol.AtVec(k+4))
	}
	return z, nil
}
