package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/crtbp/internal/dynamo"
)

func TestLagrangePoints_Geometry(t *testing.T) {
	h := math.Sqrt(3) / 2
	for i := 1; i <= 100; i++ {
		mu := 0.5 * float64(i) / 100

		points, err := LagrangePoints(mu)
		if err != nil {
			t.Fatalf("mu=%f: %v", mu, err)
		}
		if len(points) != 5 {
			t.Fatalf("expected 5 points, got %d", len(points))
		}

		l4, l5 := points[3], points[4]
		if l4.Y != h || l5.Y != -h {
			t.Errorf("mu=%f: L4.y=%f L5.y=%f", mu, l4.Y, l5.Y)
		}
		if l4.X != 0.5-mu || l5.X != 0.5-mu {
			t.Errorf("mu=%f: L4.x=%f L5.x=%f, want %f", mu, l4.X, l5.X, 0.5-mu)
		}
		for k := 0; k < 3; k++ {
			if points[k].Y != 0 || !points[k].Collinear() {
				t.Errorf("mu=%f: L%d is not collinear", mu, k+1)
			}
			if points[k].Index != k+1 {
				t.Errorf("point %d has index %d", k, points[k].Index)
			}
		}
	}
}

func TestLagrangePoints_EarthMoon(t *testing.T) {
	points, err := LagrangePoints(0.01215)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{0.836918, 1.155680, -1.005062}
	for i, w := range want {
		if math.Abs(points[i].X-w) > 1e-4 {
			t.Errorf("L%d.x = %f, want ~%f", i+1, points[i].X, w)
		}
	}

	// Ordering: L3 < primary < L1 < secondary < L2.
	mu := 0.01215
	if !(points[2].X < -mu && -mu < points[0].X && points[0].X < 1-mu && 1-mu < points[1].X) {
		t.Errorf("collinear points out of order: %+v", points[:3])
	}
}

func TestLagrangePoint(t *testing.T) {
	all, _ := LagrangePoints(0.1)
	for i := 1; i <= 5; i++ {
		p, err := LagrangePoint(0.1, i)
		if err != nil {
			t.Fatalf("LagrangePoint(%d): %v", i, err)
		}
		if p != all[i-1] {
			t.Errorf("LagrangePoint(%d) = %+v, want %+v", i, p, all[i-1])
		}
	}
}

func TestLagrangePoint_InvalidIndex(t *testing.T) {
	for _, idx := range []int{0, 6, -1, 42} {
		if _, err := LagrangePoint(0.02, idx); !errors.Is(err, dynamo.ErrInvalidIndex) {
			t.Errorf("LagrangePoint(%d): expected ErrInvalidIndex, got %v", idx, err)
		}
	}
}

func TestLagrangePoints_InvalidMassRatio(t *testing.T) {
	for _, mu := range []float64{0, 0.6, -0.1} {
		if _, err := LagrangePoints(mu); !errors.Is(err, dynamo.ErrInvalidMassRatio) {
			t.Errorf("LagrangePoints(%v): expected ErrInvalidMassRatio, got %v", mu, err)
		}
	}
}

func TestRefineLagrangePoints(t *testing.T) {
	for _, mu := range []float64{3e-6, 9.5e-4, 0.01215, 0.1, 0.3, 0.5} {
		refined, err := RefineLagrangePoints(mu)
		if err != nil {
			t.Fatalf("mu=%g: %v", mu, err)
		}
		for i := 0; i < 3; i++ {
			if r := CollinearResidual(refined[i].X, mu); math.Abs(r) > 1e-12 {
				t.Errorf("mu=%g: L%d residual %e", mu, i+1, r)
			}
		}

		series, _ := LagrangePoints(mu)
		if refined[3] != series[3] || refined[4] != series[4] {
			t.Errorf("mu=%g: triangular points changed by refinement", mu)
		}
	}
}

func TestRefineLagrangePoints_EqualMasses(t *testing.T) {
	refined, err := RefineLagrangePoints(0.5)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(refined[0].X) > 1e-12 {
		t.Errorf("L1 = %e, want 0 by symmetry", refined[0].X)
	}
	if math.Abs(refined[1].X+refined[2].X) > 1e-12 {
		t.Errorf("L2 = %f, L3 = %f, want mirror images", refined[1].X, refined[2].X)
	}
}

func TestRefineLagrangePoints_SmallMassAgreesWithSeries(t *testing.T) {
	mu := 9.5e-4
	series, _ := LagrangePoints(mu)
	refined, _ := RefineLagrangePoints(mu)
	for i := 0; i < 3; i++ {
		if math.Abs(series[i].X-refined[i].X) > 1e-5 {
			t.Errorf("L%d: series %f vs refined %f", i+1, series[i].X, refined[i].X)
		}
	}
}
