// Package crtbp ties the restricted three-body components together around
// an immutable System: a mass ratio and an initial synodic state.
//
// Derived quantities of the System (Jacobi constant and Tisserand
// parameter of the initial state, Hill radius, Lagrange points) are
// computed on first use and cached. A System is safe for concurrent use.
package crtbp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/san-kum/crtbp/internal/analysis"
	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/frames"
	"github.com/san-kum/crtbp/internal/integrators"
	"github.com/san-kum/crtbp/internal/metrics"
	"github.com/san-kum/crtbp/internal/physics"
	"github.com/san-kum/crtbp/internal/sim"
)

type System struct {
	mu     float64
	x0     dynamo.State
	model  *physics.CRTBP
	logger *slog.Logger

	jacobiOnce sync.Once
	jacobi     float64
	jacobiErr  error

	tisserandOnce sync.Once
	tisserand     float64
	tisserandErr  error

	hillOnce sync.Once
	hill     float64

	lagrangeOnce sync.Once
	points       [5]physics.Point
	lagrangeErr  error
}

// New validates mu and x0 and returns the System. x0 is copied.
func New(mu float64, x0 dynamo.State) (*System, error) {
	model, err := physics.NewCRTBP(mu)
	if err != nil {
		return nil, err
	}
	if len(x0) != model.StateDim() {
		return nil, fmt.Errorf("%w: initial state has %d components, want 6", dynamo.ErrDimensionMismatch, len(x0))
	}
	if !x0.IsValid() {
		return nil, fmt.Errorf("%w: initial state %v", dynamo.ErrDivergentState, x0)
	}
	return &System{
		mu:     mu,
		x0:     x0.Clone(),
		model:  model,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger handed to every propagation. Call it before
// sharing the System between goroutines.
func (s *System) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func (s *System) Mu() float64 { return s.mu }

// InitialState returns a copy of X0.
func (s *System) InitialState() dynamo.State { return s.x0.Clone() }

// Model returns the equations of motion of the system.
func (s *System) Model() *physics.CRTBP { return s.model }

// Jacobi returns the Jacobi constant of X0.
func (s *System) Jacobi() (float64, error) {
	s.jacobiOnce.Do(func() {
		s.jacobi, s.jacobiErr = physics.Jacobi(s.x0, s.mu)
	})
	return s.jacobi, s.jacobiErr
}

// Tisserand returns the Tisserand parameter of X0.
func (s *System) Tisserand() (float64, error) {
	s.tisserandOnce.Do(func() {
		s.tisserand, s.tisserandErr = physics.Tisserand(s.x0, s.mu)
	})
	return s.tisserand, s.tisserandErr
}

func (s *System) HillRadius() float64 {
	s.hillOnce.Do(func() {
		s.hill = physics.HillRadius(s.mu)
	})
	return s.hill
}

// LagrangePoints returns the five equilibria from the series
// approximation.
func (s *System) LagrangePoints() ([5]physics.Point, error) {
	s.lagrangeOnce.Do(func() {
		s.points, s.lagrangeErr = physics.LagrangePoints(s.mu)
	})
	return s.points, s.lagrangeErr
}

func (s *System) LagrangePoint(index int) (physics.Point, error) {
	if index < 1 || index > 5 {
		return physics.Point{}, fmt.Errorf("%w: got %d", dynamo.ErrInvalidIndex, index)
	}
	points, err := s.LagrangePoints()
	if err != nil {
		return physics.Point{}, err
	}
	return points[index-1], nil
}

// Propagate integrates X0 over [0, t] with the adaptive Dormand-Prince
// integrator and default tolerances, returning n samples.
func (s *System) Propagate(ctx context.Context, t float64, n int) (*dynamo.Trajectory, error) {
	res, err := s.PropagateWith(ctx, t, n, sim.DefaultConfig(), integrators.NewRK45())
	if err != nil {
		return nil, err
	}
	return res.Trajectory, nil
}

// PropagateWith is Propagate with an explicit configuration, integrator
// and extra metrics. The Jacobi drift is always recorded.
func (s *System) PropagateWith(ctx context.Context, t float64, n int, cfg sim.Config, integ dynamo.Integrator, ms ...dynamo.Metric) (*dynamo.Result, error) {
	p := sim.New(s.model, integ)
	p.SetLogger(s.logger)
	p.AddMetric(metrics.NewJacobiDrift(s.model))
	for _, m := range ms {
		p.AddMetric(m)
	}
	return p.Run(ctx, s.x0, t, n, cfg)
}

// Stability returns the linear modes of Lagrange point index with
// amplitudes solved in the row order of analysis.Stability. The result is
// not cached.
func (s *System) Stability(x0, y0, vx0, vy0 float64, index int) (*analysis.Mode, error) {
	return analysis.Stability(x0, y0, vx0, vy0, s.mu, index)
}

// StabilityFromState decomposes a planar displacement and velocity about
// Lagrange point index into linear modes.
func (s *System) StabilityFromState(dx, dy, dvx, dvy float64, index int) (*analysis.Mode, error) {
	return analysis.StabilityFromState(dx, dy, dvx, dvy, s.mu, index)
}

// Inertial converts a synodic trajectory of this system to the inertial
// frame.
func (s *System) Inertial(tr *dynamo.Trajectory) (*frames.Transformed, error) {
	return frames.SynodicToInertial(tr, s.mu)
}
