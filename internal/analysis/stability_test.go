package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/crtbp/internal/dynamo"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestRouthCriticalMu(t *testing.T) {
	if !scalar.EqualWithinAbs(RouthCriticalMu, 0.0385208965, 1e-9) {
		t.Errorf("RouthCriticalMu = %.10f", RouthCriticalMu)
	}
}

func TestStability_TriangularThreshold(t *testing.T) {
	tests := []struct {
		mu     float64
		index  int
		stable bool
	}{
		{0.01215, 4, true},
		{0.001, 5, true},
		{0.038, 4, true},
		{0.039, 4, false},
		{0.1, 5, false},
		{0.5, 4, false},
	}

	for _, tt := range tests {
		m, err := Stability(1e-3, 0, 0, 0, tt.mu, tt.index)
		if err != nil {
			t.Fatalf("mu=%v L%d: %v", tt.mu, tt.index, err)
		}
		if m.Stable != tt.stable {
			t.Errorf("mu=%v L%d: Stable = %v, want %v", tt.mu, tt.index, m.Stable, tt.stable)
		}
		if tt.stable && m.GrowthRate() > 1e-12 {
			t.Errorf("mu=%v L%d: stable point has growth rate %g", tt.mu, tt.index, m.GrowthRate())
		}
		if !tt.stable && m.GrowthRate() <= 1e-6 {
			t.Errorf("mu=%v L%d: unstable point has growth rate %g", tt.mu, tt.index, m.GrowthRate())
		}
	}
}

func TestStability_CollinearUnstable(t *testing.T) {
	for _, mu := range []float64{0.001, 0.01215, 0.02, 0.3} {
		for idx := 1; idx <= 3; idx++ {
			m, err := Stability(1e-4, 0, 0, 0, mu, idx)
			if err != nil {
				t.Fatalf("mu=%v L%d: %v", mu, idx, err)
			}
			if m.Stable {
				t.Errorf("mu=%v L%d reported stable", mu, idx)
			}
			if m.GrowthRate() <= 0 {
				t.Errorf("mu=%v L%d: no eigenvalue with positive real part: %v", mu, idx, m.Eigenvalues)
			}
		}
	}
}

func TestStability_ReproducesInitialPerturbation(t *testing.T) {
	x0, y0, vx0, vy0 := 1e-3, -2e-3, 5e-4, 1e-4
	const h = 1e-5

	for _, idx := range []int{1, 2, 3, 4, 5} {
		m, err := StabilityFromState(x0, y0, vx0, vy0, 0.02, idx)
		if err != nil {
			t.Fatalf("L%d: %v", idx, err)
		}

		if !scalar.EqualWithinAbs(m.X(0), x0, 1e-12) || !scalar.EqualWithinAbs(m.Y(0), y0, 1e-12) {
			t.Errorf("L%d: position at t=0 = (%g, %g), want (%g, %g)", idx, m.X(0), m.Y(0), x0, y0)
		}

		vx := (m.X(h) - m.X(-h)) / (2 * h)
		vy := (m.Y(h) - m.Y(-h)) / (2 * h)
		if !scalar.EqualWithinAbs(vx, vx0, 1e-8) || !scalar.EqualWithinAbs(vy, vy0, 1e-8) {
			t.Errorf("L%d: velocity at t=0 = (%g, %g), want (%g, %g)", idx, vx, vy, vx0, vy0)
		}
	}
}

func TestStability_SatisfiesLinearEquations(t *testing.T) {
	const mu, h = 0.01, 1e-4
	m, err := StabilityFromState(1e-3, 1e-3, 0, 0, mu, 4)
	if err != nil {
		t.Fatal(err)
	}
	uxx, uyy, uxy := PotentialPartials(mu, m.Point.X, m.Point.Y)

	for _, tt := range []float64{0.5, 3, 10} {
		x, y := m.X(tt), m.Y(tt)
		vx := (m.X(tt+h) - m.X(tt-h)) / (2 * h)
		vy := (m.Y(tt+h) - m.Y(tt-h)) / (2 * h)
		ax := (m.X(tt+h) - 2*x + m.X(tt-h)) / (h * h)
		ay := (m.Y(tt+h) - 2*y + m.Y(tt-h)) / (h * h)

		if r := ax - 2*vy - uxx*x - uxy*y; math.Abs(r) > 1e-7 {
			t.Errorf("t=%v: x residual %g", tt, r)
		}
		if r := ay + 2*vx - uxy*x - uyy*y; math.Abs(r) > 1e-7 {
			t.Errorf("t=%v: y residual %g", tt, r)
		}
	}
}

func TestStability_CoefficientRows(t *testing.T) {
	in := [4]float64{1e-3, -2e-3, 5e-4, 1e-4}

	for _, idx := range []int{1, 4} {
		m, err := Stability(in[0], in[1], in[2], in[3], 0.02, idx)
		if err != nil {
			t.Fatalf("L%d: %v", idx, err)
		}

		var rows [4]complex128
		for k, a := range m.Amplitudes {
			l, b := m.Eigenvalues[k], m.Ratios[k]
			rows[0] += a
			rows[1] += a * l
			rows[2] += a * b
			rows[3] += a * b * l
		}
		for r := range rows {
			if !scalar.EqualWithinAbs(real(rows[r]), in[r], 1e-12) || math.Abs(imag(rows[r])) > 1e-12 {
				t.Errorf("L%d row %d: got %v, want %g", idx, r, rows[r], in[r])
			}
		}
	}

	// A pure y displacement lands on the λ row, not the β row.
	m, err := Stability(0, 1e-3, 0, 0, 0.02, 4)
	if err != nil {
		t.Fatal(err)
	}
	var sumL, sumB complex128
	for k, a := range m.Amplitudes {
		sumL += a * m.Eigenvalues[k]
		sumB += a * m.Ratios[k]
	}
	if !scalar.EqualWithinAbs(real(sumL), 1e-3, 1e-12) || !scalar.EqualWithinAbs(real(sumB), 0, 1e-12) {
		t.Errorf("Σαλ = %v, Σαβ = %v", sumL, sumB)
	}

	fromState, err := StabilityFromState(0, 0, 1e-3, 0, 0.02, 4)
	if err != nil {
		t.Fatal(err)
	}
	if fromState.Amplitudes != m.Amplitudes {
		t.Errorf("StabilityFromState(dvx) = %v, want %v", fromState.Amplitudes, m.Amplitudes)
	}
}

func TestStability_XY(t *testing.T) {
	m, err := Stability(1e-3, 0, 0, 1e-3, 0.01, 5)
	if err != nil {
		t.Fatal(err)
	}
	ts := []float64{0, 1, 2.5, 7}
	xs, ys := m.XY(ts)
	for i, tt := range ts {
		if xs[i] != m.X(tt) || ys[i] != m.Y(tt) {
			t.Errorf("XY disagrees with X/Y at t=%v", tt)
		}
	}
}

func TestStability_SingularAtRouth(t *testing.T) {
	_, err := Stability(1e-3, 0, 0, 0, RouthCriticalMu, 4)
	if !errors.Is(err, dynamo.ErrSingularSystem) {
		t.Errorf("expected ErrSingularSystem at the Routh mass ratio, got %v", err)
	}
}

func TestStability_InvalidArgs(t *testing.T) {
	if _, err := Stability(0, 0, 0, 0, 0.02, 6); !errors.Is(err, dynamo.ErrInvalidIndex) {
		t.Errorf("index 6: got %v", err)
	}
	if _, err := Stability(0, 0, 0, 0, 0.02, 0); !errors.Is(err, dynamo.ErrInvalidIndex) {
		t.Errorf("index 0: got %v", err)
	}
	if _, err := Stability(0, 0, 0, 0, 0.7, 1); !errors.Is(err, dynamo.ErrInvalidMassRatio) {
		t.Errorf("mu 0.7: got %v", err)
	}
}

func TestPotentialPartials_TriangularPoint(t *testing.T) {
	const mu = 0.02
	uxx, uyy, uxy := PotentialPartials(mu, 0.5-mu, math.Sqrt(3)/2)

	if !scalar.EqualWithinAbs(uxx, 0.75, 1e-12) || !scalar.EqualWithinAbs(uyy, 2.25, 1e-12) {
		t.Errorf("Uxx, Uyy = %v, %v; want 0.75, 2.25", uxx, uyy)
	}
	want := 3 * math.Sqrt(3) / 4 * (1 - 2*mu)
	if !scalar.EqualWithinAbs(uxy, want, 1e-12) {
		t.Errorf("Uxy = %v, want %v", uxy, want)
	}
}
