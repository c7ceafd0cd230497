package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is an autonomous or time-dependent ODE right-hand side.
// Derive reports an error instead of returning non-finite values.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

// Hamiltonian systems expose a conserved scalar used for drift checks.
type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, t, dt float64) (State, error)
}

// Tolerance is a mixed absolute/relative error bound: a component passes
// when |err| <= Abs + Rel*|x|.
type Tolerance struct {
	Abs float64
	Rel float64
}

// AdaptiveIntegrator attempts one step of size dt. When the step is
// rejected the returned state is nil and the returned dt is the size to
// retry with; when accepted it is the suggested next step.
type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(dyn System, x State, t, dt float64, tol Tolerance) (next State, dtNext float64, accepted bool, err error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Trajectory is an ordered sequence of states paired with their time
// stamps. It is built once and never mutated; accessors return copies.
type Trajectory struct {
	states []State
	times  []float64
}

// NewTrajectory copies states and times into a new Trajectory.
func NewTrajectory(states []State, times []float64) (*Trajectory, error) {
	if len(states) != len(times) {
		return nil, fmt.Errorf("%w: %d states for %d times", ErrDimensionMismatch, len(states), len(times))
	}
	tr := &Trajectory{
		states: make([]State, len(states)),
		times:  make([]float64, len(times)),
	}
	for i, s := range states {
		tr.states[i] = s.Clone()
	}
	copy(tr.times, times)
	return tr, nil
}

func (tr *Trajectory) Len() int { return len(tr.states) }

// State returns a copy of the i-th state.
func (tr *Trajectory) State(i int) State { return tr.states[i].Clone() }

func (tr *Trajectory) Time(i int) float64 { return tr.times[i] }

// Times returns a copy of the time stamps.
func (tr *Trajectory) Times() []float64 {
	c := make([]float64, len(tr.times))
	copy(c, tr.times)
	return c
}

// States returns copies of every state.
func (tr *Trajectory) States() []State {
	c := make([]State, len(tr.states))
	for i, s := range tr.states {
		c[i] = s.Clone()
	}
	return c
}

// Final returns a copy of the last state, or nil for an empty trajectory.
func (tr *Trajectory) Final() State {
	if len(tr.states) == 0 {
		return nil
	}
	return tr.states[len(tr.states)-1].Clone()
}

// Component returns the idx-th coordinate of every sample.
func (tr *Trajectory) Component(idx int) []float64 {
	out := make([]float64, len(tr.states))
	for i, s := range tr.states {
		if idx < len(s) {
			out[i] = s[idx]
		}
	}
	return out
}

type Result struct {
	Trajectory    *Trajectory
	Metrics       map[string]float64
	StepsTaken    int
	StepsRejected int
}
