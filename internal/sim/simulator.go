// Package sim propagates states of a dynamo.System and reports the
// trajectory sampled on a uniform time grid.
package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/crtbp/internal/dynamo"
)

type Propagator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	logger     *slog.Logger
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Propagator {
	return &Propagator{
		dyn:        dyn,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// AddMetric registers m to observe every output sample.
func (p *Propagator) AddMetric(m dynamo.Metric) { p.metrics = append(p.metrics, m) }

func (p *Propagator) SetLogger(l *slog.Logger) {
	if l != nil {
		p.logger = l
	}
}

// run is the mutable state of one Run call.
type run struct {
	x        dynamo.State
	t        float64
	dt       float64
	attempts int
	taken    int
	rejected int
}

// Run integrates x0 from time 0 to t and samples n states at t·i/(n-1).
// t may be negative. Every sample time is reached exactly. The run fails
// as a whole: it never returns a partial trajectory.
func (p *Propagator) Run(ctx context.Context, x0 dynamo.State, t float64, n int, cfg Config) (*dynamo.Result, error) {
	times, err := SampleTimes(t, n)
	if err != nil {
		return nil, err
	}
	if len(x0) != p.dyn.StateDim() {
		return nil, fmt.Errorf("%w: state has %d components, system needs %d",
			dynamo.ErrDimensionMismatch, len(x0), p.dyn.StateDim())
	}
	if !x0.IsValid() || math.IsNaN(t) || math.IsInf(t, 0) {
		return nil, fmt.Errorf("%w: non-finite initial state or span", dynamo.ErrDivergentState)
	}

	adaptive, isAdaptive := p.integrator.(dynamo.AdaptiveIntegrator)
	if err := cfg.validate(isAdaptive); err != nil {
		return nil, err
	}

	for _, m := range p.metrics {
		m.Reset()
	}

	start := time.Now()
	states := make([]dynamo.State, n)
	states[0] = x0.Clone()
	p.observe(states[0], 0)

	r := &run{x: x0.Clone(), dt: cfg.InitialDt}
	if r.dt == 0 {
		r.dt = math.Min(math.Abs(t)/float64(n-1), 0.01)
	}

	for i := 1; i < n; i++ {
		if t != 0 {
			if cfg.FixedDt > 0 || !isAdaptive {
				err = p.fixedInterval(ctx, r, times[i], cfg)
			} else {
				err = p.adaptiveInterval(ctx, adaptive, r, times[i], cfg)
			}
			if err != nil {
				p.logger.Warn("propagation failed", "span", t, "samples", n, "sample", i, "error", err)
				return nil, err
			}
		}
		states[i] = r.x.Clone()
		p.observe(states[i], times[i])
	}

	tr, err := dynamo.NewTrajectory(states, times)
	if err != nil {
		return nil, err
	}

	result := &dynamo.Result{
		Trajectory:    tr,
		Metrics:       make(map[string]float64, len(p.metrics)),
		StepsTaken:    r.taken,
		StepsRejected: r.rejected,
	}
	for _, m := range p.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	p.logger.Debug("propagation finished",
		"span", t,
		"samples", n,
		"steps", r.taken,
		"rejected", r.rejected,
		"elapsed", time.Since(start))

	return result, nil
}

func (p *Propagator) observe(x dynamo.State, t float64) {
	for _, m := range p.metrics {
		m.Observe(x, t)
	}
}

// adaptiveInterval advances r up to target, clamping the last step so the
// target is hit exactly.
func (p *Propagator) adaptiveInterval(ctx context.Context, integ dynamo.AdaptiveIntegrator, r *run, target float64, cfg Config) error {
	dir := 1.0
	if target < r.t {
		dir = -1
	}

	for r.t != target {
		if err := p.checkBudget(ctx, r, cfg); err != nil {
			return err
		}

		proposed := math.Abs(r.dt)
		h := dir * proposed
		remaining := target - r.t
		clamped := false
		if math.Abs(h) >= math.Abs(remaining) {
			h = remaining
			clamped = true
		}

		next, dtNext, accepted, err := integ.StepAdaptive(p.dyn, r.x, r.t, h, cfg.Tolerance)
		if err != nil {
			return &dynamo.SimulationError{Step: r.attempts, Time: r.t, State: r.x.Clone(), Wrapped: err}
		}

		if !accepted {
			r.rejected++
			r.dt = math.Abs(dtNext)
			if r.dt < cfg.MinDt || r.dt == 0 {
				return &dynamo.SimulationError{
					Step:    r.attempts,
					Time:    r.t,
					State:   r.x.Clone(),
					Wrapped: fmt.Errorf("%w: step size %.3g below minimum %.3g", dynamo.ErrIntegrationFailed, r.dt, cfg.MinDt),
				}
			}
			continue
		}

		if !next.IsValid() {
			return &dynamo.SimulationError{Step: r.attempts, Time: r.t, State: r.x.Clone(), Wrapped: dynamo.ErrDivergentState}
		}

		r.x = next
		r.taken++
		r.dt = math.Abs(dtNext)
		if clamped {
			r.t = target
			// A short clamped step says nothing about the natural step size.
			r.dt = math.Max(r.dt, proposed)
		} else {
			r.t += h
		}
	}
	return nil
}

// fixedInterval splits the interval up to target into equal substeps no
// longer than cfg.FixedDt.
func (p *Propagator) fixedInterval(ctx context.Context, r *run, target float64, cfg Config) error {
	span := target - r.t
	m := int(math.Ceil(math.Abs(span) / cfg.FixedDt))
	if m < 1 {
		m = 1
	}
	h := span / float64(m)
	t0 := r.t

	for k := 1; k <= m; k++ {
		if err := p.checkBudget(ctx, r, cfg); err != nil {
			return err
		}
		next, err := p.integrator.Step(p.dyn, r.x, r.t, h)
		if err != nil {
			return &dynamo.SimulationError{Step: r.attempts, Time: r.t, State: r.x.Clone(), Wrapped: err}
		}
		if !next.IsValid() {
			return &dynamo.SimulationError{Step: r.attempts, Time: r.t, State: r.x.Clone(), Wrapped: dynamo.ErrDivergentState}
		}
		r.x = next
		r.taken++
		r.t = t0 + float64(k)*h
	}
	r.t = target
	return nil
}

// checkBudget counts one step attempt and checks for cancellation.
func (p *Propagator) checkBudget(ctx context.Context, r *run, cfg Config) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
	default:
	}

	r.attempts++
	if r.attempts > cfg.MaxSteps {
		return &dynamo.SimulationError{
			Step:    r.attempts,
			Time:    r.t,
			State:   r.x.Clone(),
			Wrapped: fmt.Errorf("%w: step budget of %d exhausted", dynamo.ErrIntegrationFailed, cfg.MaxSteps),
		}
	}
	return nil
}
