package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/integrators"
	"github.com/san-kum/crtbp/internal/physics"
	"github.com/san-kum/crtbp/internal/sim"
)

func TestJacobiDrift(t *testing.T) {
	const mu = 0.02
	sys, err := physics.NewCRTBP(mu)
	if err != nil {
		t.Fatal(err)
	}
	m := NewJacobiDrift(sys)

	x := dynamo.State{1.1, 0, 0, -0.1, 0.2, 0}
	m.Observe(x, 0)
	if m.Value() != 0 {
		t.Errorf("drift after one sample = %v", m.Value())
	}
	want, _ := physics.Jacobi(x, mu)
	if m.Initial() != want {
		t.Errorf("Initial() = %v, want %v", m.Initial(), want)
	}

	// Flipping vx keeps the speed and so the Jacobi constant.
	y := x.Clone()
	y[3] = 0.1
	m.Observe(y, 1)
	if got := m.Value(); math.Abs(got) > 1e-15 {
		t.Errorf("speed-preserving change gave drift %v", got)
	}

	y[4] = 0.3
	m.Observe(y, 2)
	if got := m.Value(); math.Abs(got-0.05) > 1e-12 {
		t.Errorf("drift = %v, want 0.05", got)
	}

	m.Reset()
	if m.Value() != 0 || m.Initial() != 0 {
		t.Error("Reset did not clear the metric")
	}
}

func TestJacobiDrift_Propagation(t *testing.T) {
	const mu = 0.02
	sys, err := physics.NewCRTBP(mu)
	if err != nil {
		t.Fatal(err)
	}

	p := sim.New(sys, integrators.NewRK45())
	drift := NewJacobiDrift(sys)
	p.AddMetric(drift)

	res, err := p.Run(context.Background(), dynamo.State{1.1, 0, 0, -0.1, 0.2, 0}, 30, 100, sim.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if d := res.Metrics["jacobi_drift"]; d > 1e-6 {
		t.Errorf("Jacobi drift %g over 30 time units", d)
	}
}

func TestClosestApproach(t *testing.T) {
	const mu = 0.02
	m1 := NewClosestApproach(mu, 1)
	m2 := NewClosestApproach(mu, 2)
	if m1.Name() == m2.Name() {
		t.Fatal("both primaries share a metric name")
	}

	for _, x := range []dynamo.State{
		{1.1, 0, 0, 0, 0, 0},
		{0.5, 0, 0, 0, 0, 0},
		{1.0, 0, 0, 0, 0, 0},
	} {
		m1.Observe(x, 0)
		m2.Observe(x, 0)
	}

	if math.Abs(m1.Value()-0.52) > 1e-12 {
		t.Errorf("closest to primary 1 = %v, want 0.52", m1.Value())
	}
	if math.Abs(m2.Value()-0.02) > 1e-12 {
		t.Errorf("closest to primary 2 = %v, want 0.02", m2.Value())
	}

	m1.Reset()
	if !math.IsInf(m1.Value(), 1) {
		t.Errorf("Value after Reset = %v", m1.Value())
	}
}

func TestConfinement(t *testing.T) {
	l4, err := physics.LagrangePoint(0.01, 4)
	if err != nil {
		t.Fatal(err)
	}
	m := NewConfinement(l4, 0.1)

	if m.Value() != 1 {
		t.Errorf("empty metric = %v, want 1", m.Value())
	}

	m.Observe(dynamo.State{l4.X, l4.Y, 0, 0, 0, 0}, 0)
	m.Observe(dynamo.State{l4.X + 0.05, l4.Y, 0, 0, 0, 0}, 1)
	m.Observe(dynamo.State{l4.X, l4.Y, 0.2, 0, 0, 0}, 2)
	m.Observe(dynamo.State{0, 0, 0, 0, 0, 0}, 3)

	if got := m.Value(); got != 0.5 {
		t.Errorf("Value() = %v, want 0.5", got)
	}
}
