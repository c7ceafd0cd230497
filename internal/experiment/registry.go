package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/integrators"
	"github.com/san-kum/crtbp/internal/metrics"
	"github.com/san-kum/crtbp/internal/physics"
)

type Registry struct {
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }

	return r
}

// GetIntegrator returns a fresh integrator. Integrators keep scratch
// space, so every propagation needs its own.
func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics are recorded on every scenario run besides the Jacobi
// drift.
func (r *Registry) DefaultMetrics(mu float64) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewClosestApproach(mu, 1),
		metrics.NewClosestApproach(mu, 2),
	}
}

// ConfinementMetric watches how long an orbit stays near Lagrange point
// index. It returns nil for an invalid index.
func (r *Registry) ConfinementMetric(mu float64, index int, radius float64) dynamo.Metric {
	p, err := physics.LagrangePoint(mu, index)
	if err != nil {
		return nil
	}
	return metrics.NewConfinement(p, radius)
}
