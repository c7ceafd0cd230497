// Package optim searches scenario parameters for the best value of a
// propagation metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/crtbp/internal/config"
	"github.com/san-kum/crtbp/internal/experiment"
)

// ErrNoFeasiblePoint is returned when every grid point failed to propagate.
var ErrNoFeasiblePoint = errors.New("optim: no grid point propagated successfully")

// Param is one axis of the grid.
type Param struct {
	Name   string
	Values []float64
}

// Best is the outcome of a search.
type Best struct {
	Params    map[string]float64
	Value     float64
	Evaluated int
	Failed    int
}

type GridSearch struct {
	params   []Param
	maximize bool
}

func NewGridSearch(params []Param, maximize bool) *GridSearch {
	return &GridSearch{params: params, maximize: maximize}
}

// Search runs an experiment for every point of the grid and keeps the one
// with the lowest (or highest, when maximizing) value of metricName.
// Points whose experiment fails to build or propagate are counted and
// skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (*Best, error) {
	for _, p := range g.params {
		if len(p.Values) == 0 {
			return nil, fmt.Errorf("optim: parameter %q has no values", p.Name)
		}
	}

	best := &Best{Value: math.Inf(1)}
	if g.maximize {
		best.Value = math.Inf(-1)
	}

	if err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, best); err != nil {
		return nil, err
	}
	if best.Params == nil {
		return best, ErrNoFeasiblePoint
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *Best,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.params) {
		best.Evaluated++

		exp, err := buildExperiment(current)
		if err != nil {
			best.Failed++
			return nil
		}

		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			best.Failed++
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("optim: unknown metric %q", metricName)
		}
		if math.IsNaN(val) {
			best.Failed++
			return nil
		}
		if (g.maximize && val > best.Value) || (!g.maximize && val < best.Value) || best.Params == nil {
			best.Value = val
			best.Params = make(map[string]float64, len(current))
			for k, v := range current {
				best.Params[k] = v
			}
		}
		return nil
	}

	param := g.params[depth]
	for _, val := range param.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[param.Name] = val

		if err := g.searchRecursive(ctx, depth+1, next, buildExperiment, metricName, best); err != nil {
			return err
		}
	}
	return nil
}

// ScenarioBuilder returns a builder that applies grid parameters to a copy
// of base. "mu" and "time" replace the mass ratio and span; x, y, z, vx,
// vy and vz are added to the initial state.
func ScenarioBuilder(base *config.Config, registry *experiment.Registry) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		for name, v := range params {
			switch name {
			case "mu":
				cfg.Mu = v
			case "time":
				cfg.Duration = v
			case "x":
				cfg.InitState.X += v
			case "y":
				cfg.InitState.Y += v
			case "z":
				cfg.InitState.Z += v
			case "vx":
				cfg.InitState.VX += v
			case "vy":
				cfg.InitState.VY += v
			case "vz":
				cfg.InitState.VZ += v
			default:
				return nil, fmt.Errorf("optim: unknown parameter %q", name)
			}
		}

		exp := experiment.New(&cfg, registry)
		if err := exp.Setup(); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

// ParseParam parses "name=from:to:count" into an evenly spaced axis.
// A bare "name=value" gives a single value.
func ParseParam(s string) (Param, error) {
	name, axis, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return Param{}, fmt.Errorf("optim: parameter %q is not name=from:to:count", s)
	}

	parts := strings.Split(axis, ":")
	switch len(parts) {
	case 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return Param{}, fmt.Errorf("optim: parameter %q: %w", name, err)
		}
		return Param{Name: name, Values: []float64{v}}, nil
	case 3:
		from, err1 := strconv.ParseFloat(parts[0], 64)
		to, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return Param{}, fmt.Errorf("optim: parameter %q: %w", name, err)
		}
		if n < 1 {
			return Param{}, fmt.Errorf("optim: parameter %q needs a positive count", name)
		}
		values := make([]float64, n)
		for i := range values {
			if n == 1 {
				values[i] = from
				continue
			}
			values[i] = from + (to-from)*float64(i)/float64(n-1)
		}
		return Param{Name: name, Values: values}, nil
	default:
		return Param{}, fmt.Errorf("optim: parameter %q is not name=from:to:count", s)
	}
}
