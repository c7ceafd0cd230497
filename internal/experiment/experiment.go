// Package experiment runs YAML scenarios end to end: build the system,
// pick the integrator, propagate and collect metrics.
package experiment

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/crtbp/internal/config"
	"github.com/san-kum/crtbp/internal/crtbp"
	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/storage"
)

// ConfinementRadius is the libration radius watched for scenarios that
// start next to a Lagrange point.
const ConfinementRadius = 0.1

type Experiment struct {
	cfg      *config.Config
	registry *Registry
	system   *crtbp.System
	logger   *slog.Logger
}

func New(cfg *config.Config, registry *Registry) *Experiment {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Experiment{
		cfg:      cfg,
		registry: registry,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *Experiment) SetLogger(l *slog.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Setup validates the scenario and builds its System.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	if _, err := e.registry.GetIntegrator(e.cfg.Integrator.Name); err != nil {
		return err
	}

	x0, err := e.cfg.GetInitState()
	if err != nil {
		return err
	}
	sys, err := crtbp.New(e.cfg.Mu, x0)
	if err != nil {
		return err
	}
	sys.SetLogger(e.logger)
	e.system = sys
	return nil
}

// Run propagates the scenario.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.system == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	integ, err := e.registry.GetIntegrator(e.cfg.Integrator.Name)
	if err != nil {
		return nil, err
	}

	ms := e.registry.DefaultMetrics(e.cfg.Mu)
	if idx := e.cfg.InitState.RelativeTo; idx != 0 {
		ms = append(ms, e.registry.ConfinementMetric(e.cfg.Mu, idx, ConfinementRadius))
	}

	e.logger.Info("running scenario",
		"scenario", e.cfg.Name,
		"mu", e.cfg.Mu,
		"duration", e.cfg.Duration,
		"samples", e.cfg.Samples,
		"integrator", e.cfg.Integrator.Name)

	return e.system.PropagateWith(ctx, e.cfg.Duration, e.cfg.Samples, e.cfg.PropagatorConfig(), integ, ms...)
}

// Metadata describes the scenario for storage.
func (e *Experiment) Metadata() storage.RunMetadata {
	meta := storage.RunMetadata{
		Scenario:   e.cfg.Name,
		Mu:         e.cfg.Mu,
		Duration:   e.cfg.Duration,
		Samples:    e.cfg.Samples,
		Integrator: e.cfg.Integrator.Name,
	}
	if e.system != nil {
		meta.InitState = e.system.InitialState()
		meta.Jacobi, _ = e.system.Jacobi()
	}
	return meta
}

// System returns the system built by Setup, or nil before Setup.
func (e *Experiment) System() *crtbp.System {
	return e.system
}
