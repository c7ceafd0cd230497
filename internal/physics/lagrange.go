package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/crtbp/internal/dynamo"
)

// Point is an equilibrium of the synodic equations of motion. The
// collinear points (Index 1-3) always have Y = 0.
type Point struct {
	Index int
	X, Y  float64
}

func (p Point) Collinear() bool { return p.Index <= 3 }

var errNoConvergence = errors.New("physics: lagrange refinement did not converge")

// LagrangePoints returns L1..L5 for mass ratio mu.
//
// The collinear positions come from truncated series in
// alpha = (mu/(3(1-mu)))^(1/3) (L1, L2) and mu/(1-mu) (L3). They are
// accurate for small mu only: the error is ~1e-4 at the Earth-Moon ratio,
// ~1e-2 at mu = 0.3 and reaches 0.3 for L3 at mu = 0.5. Use
// RefineLagrangePoints when exact positions are needed.
func LagrangePoints(mu float64) ([5]Point, error) {
	if err := dynamo.ValidateMassRatio(mu); err != nil {
		return [5]Point{}, err
	}

	mu1, mu2 := 1-mu, mu
	alpha := math.Cbrt(mu2 / (3 * mu1))
	a2, a3, a4 := alpha*alpha, alpha*alpha*alpha, alpha*alpha*alpha*alpha

	l1 := mu1 - (alpha - a2/3 - a3/9 - 23*a4/81)
	l2 := mu1 + (alpha + a2/3 - a3/9 - 31*a4/81)

	q := mu2 / mu1
	l3 := -mu2 - 1 - (-7.0/12*q + 7.0/12*q*q - 13223.0/20736*q*q*q)

	l45 := 0.5 - mu2
	h := math.Sqrt(3) / 2

	return [5]Point{
		{Index: 1, X: l1},
		{Index: 2, X: l2},
		{Index: 3, X: l3},
		{Index: 4, X: l45, Y: h},
		{Index: 5, X: l45, Y: -h},
	}, nil
}

// LagrangePoint returns the single point with the given index (1-5).
func LagrangePoint(mu float64, index int) (Point, error) {
	if index < 1 || index > 5 {
		return Point{}, fmt.Errorf("%w: got %d", dynamo.ErrInvalidIndex, index)
	}
	points, err := LagrangePoints(mu)
	if err != nil {
		return Point{}, err
	}
	return points[index-1], nil
}

// RefineLagrangePoints polishes the series positions of L1-L3 with a
// safeguarded Newton iteration on the exact equilibrium condition
// dΩ/dx = 0 along y = z = 0. L4 and L5 are already exact.
func RefineLagrangePoints(mu float64) ([5]Point, error) {
	points, err := LagrangePoints(mu)
	if err != nil {
		return points, err
	}

	mu1, mu2 := 1-mu, mu
	brackets := [3][2]float64{
		{-mu2, mu1},
		{mu1, mu1 + 2},
		{-mu2 - 2, -mu2},
	}

	for i := 0; i < 3; i++ {
		x, err := newtonCollinear(mu, points[i].X, brackets[i][0], brackets[i][1])
		if err != nil {
			return points, fmt.Errorf("L%d: %w", i+1, err)
		}
		points[i].X = x
	}
	return points, nil
}

// CollinearResidual is dΩ/dx on the x axis; it vanishes at L1, L2 and L3.
func CollinearResidual(x, mu float64) float64 {
	f, _ := collinear(x, mu)
	return f
}

func collinear(x, mu float64) (f, df float64) {
	mu1, mu2 := 1-mu, mu
	d1, d2 := x+mu2, x-mu1
	r1, r2 := math.Abs(d1), math.Abs(d2)
	r13, r23 := r1*r1*r1, r2*r2*r2
	f = x - mu1*d1/r13 - mu2*d2/r23
	df = 1 + 2*mu1/r13 + 2*mu2/r23
	return f, df
}

func newtonCollinear(mu, x0, lo, hi float64) (float64, error) {
	const (
		maxIter = 100
		tol     = 1e-14
	)

	x := x0
	if x <= lo || x >= hi {
		x = 0.5 * (lo + hi)
	}

	for i := 0; i < maxIter; i++ {
		f, df := collinear(x, mu)
		next := x - f/df

		// Never cross a primary: fall back to halving towards the bracket.
		if next <= lo {
			next = 0.5 * (x + lo)
		} else if next >= hi {
			next = 0.5 * (x + hi)
		}

		if math.Abs(next-x) <= tol*math.Max(1, math.Abs(x)) {
			return next, nil
		}
		x = next
	}
	return x, errNoConvergence
}
