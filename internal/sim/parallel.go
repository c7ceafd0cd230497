package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/crtbp/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Ensemble propagates many independent initial states concurrently. Each
// run gets its own Propagator from the factory, so integrator scratch
// space and metrics are never shared.
type Ensemble struct {
	factory func() *Propagator
	limit   int
}

// NewEnsemble returns an ensemble running at most limit propagations at
// once. A limit below 1 means no bound.
func NewEnsemble(factory func() *Propagator, limit int) *Ensemble {
	return &Ensemble{factory: factory, limit: limit}
}

// Run propagates every state and fails on the first error, canceling the
// runs still in flight.
func (e *Ensemble) Run(ctx context.Context, x0s []dynamo.State, t float64, n int, cfg Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(x0s))

	g, ctx := errgroup.WithContext(ctx)
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, x0 := range x0s {
		i, x0 := i, x0
		g.Go(func() error {
			res, err := e.factory().Run(ctx, x0, t, n, cfg)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunAll propagates every state to completion and reports failures per
// run instead of aborting. errs[i] is nil exactly when results[i] is set.
func (e *Ensemble) RunAll(ctx context.Context, x0s []dynamo.State, t float64, n int, cfg Config) ([]*dynamo.Result, []error) {
	results := make([]*dynamo.Result, len(x0s))
	errs := make([]error, len(x0s))

	var g errgroup.Group
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i, x0 := range x0s {
		i, x0 := i, x0
		g.Go(func() error {
			results[i], errs[i] = e.factory().Run(ctx, x0, t, n, cfg)
			return nil
		})
	}
	_ = g.Wait()

	return results, errs
}
