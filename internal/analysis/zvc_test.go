package analysis

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/integrators"
	"github.com/san-kum/crtbp/internal/physics"
)

func TestForbiddenRegion(t *testing.T) {
	const mu = 0.02

	r, err := ForbiddenRegion(mu, 3.5, DefaultBounds, 61, 61)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Forbidden) != 61 || len(r.Forbidden[0]) != 61 {
		t.Fatalf("grid is %dx%d", len(r.Forbidden[0]), len(r.Forbidden))
	}
	// Cell (0.5, 0.85) sits next to L4, where 2Ω is at its minimum.
	if !r.Forbidden[47][40] {
		t.Error("cell near L4 should be forbidden at CJ=3.5")
	}
	// Cell (0, 0) is next to the larger primary.
	if r.Forbidden[30][30] {
		t.Error("cell next to the larger primary should be allowed")
	}

	// 2Ω >= 3 - mu(1-mu) everywhere, so a low constant forbids nothing.
	open, err := ForbiddenRegion(mu, 2.9, DefaultBounds, 31, 31)
	if err != nil {
		t.Fatal(err)
	}
	if f := open.Fraction(); f != 0 {
		t.Errorf("Fraction() = %v at CJ=2.9, want 0", f)
	}
	if r.Fraction() <= 0 || r.Fraction() >= 1 {
		t.Errorf("Fraction() = %v at CJ=3.5", r.Fraction())
	}
}

func TestForbiddenRegion_InvalidArgs(t *testing.T) {
	if _, err := ForbiddenRegion(0, 3, DefaultBounds, 10, 10); !errors.Is(err, dynamo.ErrInvalidMassRatio) {
		t.Errorf("mu=0: got %v", err)
	}
	if _, err := ForbiddenRegion(0.02, 3, DefaultBounds, 1, 10); !errors.Is(err, dynamo.ErrInvalidSamples) {
		t.Errorf("nx=1: got %v", err)
	}
	if _, err := ForbiddenRegion(0.02, 3, Bounds{XMin: 1, XMax: 0, YMin: 0, YMax: 1}, 10, 10); err == nil {
		t.Error("expected error for inverted bounds")
	}
}

func TestForbiddenRegionFor_RejectsSpatialState(t *testing.T) {
	_, err := ForbiddenRegionFor(dynamo.State{1.1, 0, 0.1, 0, 0.2, 0}, 0.02, DefaultBounds, 10, 10)
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch for z != 0, got %v", err)
	}

	r, err := ForbiddenRegionFor(dynamo.State{1.1, 0, 0, -0.1, 0.2, 0}, 0.02, DefaultBounds, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	cj, _ := physics.Jacobi(dynamo.State{1.1, 0, 0, -0.1, 0.2, 0}, 0.02)
	if r.Jacobi != cj {
		t.Errorf("Jacobi = %v, want %v", r.Jacobi, cj)
	}
}

func TestRegion_Render(t *testing.T) {
	r, err := ForbiddenRegion(0.02, 3.5, DefaultBounds, 41, 41)
	if err != nil {
		t.Fatal(err)
	}
	out := r.Render([]Point2D{{X: 1.1, Y: 0}}, 40, 20)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("rendered %d lines, want 20", len(lines))
	}
	for _, c := range []string{"░", "●", "○", "•"} {
		if !strings.Contains(out, c) {
			t.Errorf("render is missing %q", c)
		}
	}
	if r.Render(nil, 1, 1) != "" {
		t.Error("degenerate canvas should render empty")
	}
}

func TestLyapunovExponent(t *testing.T) {
	const mu = 0.02
	sys, err := physics.NewCRTBP(mu)
	if err != nil {
		t.Fatal(err)
	}
	pts, err := physics.RefineLagrangePoints(mu)
	if err != nil {
		t.Fatal(err)
	}

	l1 := dynamo.State{pts[0].X, 0, 0, 0, 0, 0}
	unstable, err := LyapunovExponent(sys, integrators.NewRK4(), l1, 0.005, 5, 1e-9, 20)
	if err != nil {
		t.Fatal(err)
	}
	if unstable < 1 {
		t.Errorf("L1 exponent = %v, want > 1", unstable)
	}

	l4 := dynamo.State{pts[3].X, pts[3].Y, 0, 0, 0, 0}
	stable, err := LyapunovExponent(sys, integrators.NewRK4(), l4, 0.01, 50, 1e-9, 20)
	if err != nil {
		t.Fatal(err)
	}
	if stable > 0.2 {
		t.Errorf("L4 exponent = %v, want close to 0", stable)
	}

	if _, err := LyapunovExponent(sys, integrators.NewRK4(), l4, 0, 1, 1e-9, 1); err == nil {
		t.Error("expected error for dt=0")
	}
}
