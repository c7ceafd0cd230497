// Package config reads and writes restricted three-body scenarios as YAML.
package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/physics"
	"github.com/san-kum/crtbp/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMu         = 0.02
	DefaultDuration   = 30.0
	DefaultSamples    = 300
	DefaultIntegrator = "rk45"
)

type Config struct {
	Name       string           `yaml:"name"`
	Mu         float64          `yaml:"mu"`
	Duration   float64          `yaml:"duration"`
	Samples    int              `yaml:"samples"`
	InitState  InitStateConfig  `yaml:"init_state"`
	Integrator IntegratorConfig `yaml:"integrator"`
}

// InitStateConfig is the synodic initial state. When RelativeTo names a
// Lagrange point (1-5) the position is an offset from that point.
type InitStateConfig struct {
	RelativeTo int     `yaml:"relative_to,omitempty"`
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Z          float64 `yaml:"z"`
	VX         float64 `yaml:"vx"`
	VY         float64 `yaml:"vy"`
	VZ         float64 `yaml:"vz"`
}

// IntegratorConfig overrides the propagator defaults. Zero fields keep
// the default.
type IntegratorConfig struct {
	Name      string  `yaml:"name"`
	AbsTol    float64 `yaml:"abs_tol,omitempty"`
	RelTol    float64 `yaml:"rel_tol,omitempty"`
	MaxSteps  int     `yaml:"max_steps,omitempty"`
	InitialDt float64 `yaml:"initial_dt,omitempty"`
	FixedDt   float64 `yaml:"fixed_dt,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "default",
		Mu:       DefaultMu,
		Duration: DefaultDuration,
		Samples:  DefaultSamples,
		InitState: InitStateConfig{
			X: 1.1, VX: -0.1, VY: 0.2,
		},
		Integrator: IntegratorConfig{Name: DefaultIntegrator},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the scenario without propagating it.
func (c *Config) Validate() error {
	if err := dynamo.ValidateMassRatio(c.Mu); err != nil {
		return err
	}
	if c.Samples < 2 {
		return fmt.Errorf("%w: got %d", dynamo.ErrInvalidSamples, c.Samples)
	}
	if math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("duration must be finite, got %v", c.Duration)
	}
	if r := c.InitState.RelativeTo; r < 0 || r > 5 {
		return fmt.Errorf("%w: relative_to %d", dynamo.ErrInvalidIndex, r)
	}
	ic := c.Integrator
	if ic.AbsTol < 0 || ic.RelTol < 0 {
		return fmt.Errorf("tolerances must not be negative")
	}
	if ic.MaxSteps < 0 || ic.InitialDt < 0 || ic.FixedDt < 0 {
		return fmt.Errorf("integrator limits must not be negative")
	}
	return nil
}

// GetInitState returns the absolute synodic state described by the
// scenario.
func (c *Config) GetInitState() (dynamo.State, error) {
	s := c.InitState
	x := dynamo.State{s.X, s.Y, s.Z, s.VX, s.VY, s.VZ}
	if s.RelativeTo == 0 {
		return x, nil
	}
	p, err := physics.LagrangePoint(c.Mu, s.RelativeTo)
	if err != nil {
		return nil, err
	}
	x[0] += p.X
	x[1] += p.Y
	return x, nil
}

// PropagatorConfig layers the scenario overrides on sim.DefaultConfig.
func (c *Config) PropagatorConfig() sim.Config {
	cfg := sim.DefaultConfig()
	ic := c.Integrator
	if ic.AbsTol > 0 {
		cfg.Tolerance.Abs = ic.AbsTol
	}
	if ic.RelTol > 0 {
		cfg.Tolerance.Rel = ic.RelTol
	}
	if ic.MaxSteps > 0 {
		cfg.MaxSteps = ic.MaxSteps
	}
	cfg.InitialDt = ic.InitialDt
	cfg.FixedDt = ic.FixedDt
	return cfg
}
