// Package dynamo provides core simulation primitives for the restricted
// three-body laboratory.
//
// The package defines the fundamental interfaces and types shared by the
// physics, integrator and propagation packages:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator], [AdaptiveIntegrator]: numerical stepping
//   - [Trajectory]: immutable sampled solution
//   - [Metric]: per-sample observers such as Jacobi drift
//
// # Errors
//
// Every numerical failure is reported through one of the sentinel errors
// in errors.go and can be matched with [errors.Is]. Failures raised while
// stepping are wrapped in a [SimulationError] carrying the step index,
// time and last good state.
//
// # Thread Safety
//
// States and trajectories are plain values. A [Trajectory] is never
// mutated after construction, so concurrent readers need no locking.
package dynamo
