// Package frames converts states and trajectories between the synodic
// (co-rotating) frame and the inertial frame of the restricted problem.
//
// The synodic frame rotates about +z at unit angular rate, so at time t
// it is the inertial frame turned by the angle t. Each sample of a
// trajectory is transformed independently using its own time stamp.
package frames

import (
	"fmt"
	"math"

	"github.com/san-kum/crtbp/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// parallelChunk is the smallest batch handed to a worker.
const parallelChunk = 256

// Vec3 is a Cartesian position or velocity.
type Vec3 [3]float64

// R3 rotation about the 3rd axis (frame rotation by theta).
func R3(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	})
}

func rotate(theta float64, v Vec3) Vec3 {
	var out mat.VecDense
	out.MulVec(R3(theta), mat.NewVecDense(3, []float64{v[0], v[1], v[2]}))
	return Vec3{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// zCross returns ẑ × r.
func zCross(r Vec3) Vec3 {
	return Vec3{-r[1], r[0], 0}
}

func split(x dynamo.State) (Vec3, Vec3, error) {
	if len(x) != 6 {
		return Vec3{}, Vec3{}, fmt.Errorf("%w: frame transforms need 6 components, got %d", dynamo.ErrDimensionMismatch, len(x))
	}
	r, v := vectors(x)
	return r, v, nil
}

// vectors splits a state already known to have 6 components.
func vectors(x dynamo.State) (Vec3, Vec3) {
	return Vec3{x[0], x[1], x[2]}, Vec3{x[3], x[4], x[5]}
}

func join(r, v Vec3) dynamo.State {
	return dynamo.State{r[0], r[1], r[2], v[0], v[1], v[2]}
}

// SynodicToInertialState maps a synodic state sampled at time t into the
// inertial frame: r_I = R3(-t) r_S, v_I = R3(-t) (v_S + ẑ×r_S).
func SynodicToInertialState(x dynamo.State, t float64) (dynamo.State, error) {
	r, v, err := split(x)
	if err != nil {
		return nil, err
	}
	return toInertial(r, v, t), nil
}

func toInertial(r, v Vec3, t float64) dynamo.State {
	w := zCross(r)
	return join(rotate(-t, r), rotate(-t, Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}))
}

// InertialToSynodicState is the inverse of SynodicToInertialState:
// r_S = R3(t) r_I, v_S = R3(t) v_I - ẑ×r_S.
func InertialToSynodicState(x dynamo.State, t float64) (dynamo.State, error) {
	r, v, err := split(x)
	if err != nil {
		return nil, err
	}
	return toSynodic(r, v, t), nil
}

func toSynodic(r, v Vec3, t float64) dynamo.State {
	rs := rotate(t, r)
	vs := rotate(t, v)
	w := zCross(rs)
	return join(rs, Vec3{vs[0] - w[0], vs[1] - w[1], vs[2] - w[2]})
}

// PrimaryPositions returns the inertial positions of the larger (r1) and
// smaller (r2) primary at time t.
func PrimaryPositions(mu, t float64) (Vec3, Vec3) {
	s, c := math.Sincos(t)
	return Vec3{-mu * c, -mu * s, 0}, Vec3{(1 - mu) * c, (1 - mu) * s, 0}
}

// Transformed is an inertial trajectory together with the tracks of both
// primaries at the same time stamps.
type Transformed struct {
	Primary1   []Vec3
	Primary2   []Vec3
	Trajectory *dynamo.Trajectory
}

// SynodicToInertial converts every sample of tr into the inertial frame.
func SynodicToInertial(tr *dynamo.Trajectory, mu float64) (*Transformed, error) {
	if err := dynamo.ValidateMassRatio(mu); err != nil {
		return nil, err
	}

	states, times, err := unpack(tr)
	if err != nil {
		return nil, err
	}

	out := make([]dynamo.State, len(states))
	p1 := make([]Vec3, len(states))
	p2 := make([]Vec3, len(states))

	dynamo.ParallelFor(len(states), parallelChunk, func(start, end int) {
		for i := start; i < end; i++ {
			r, v := vectors(states[i])
			out[i] = toInertial(r, v, times[i])
			p1[i], p2[i] = PrimaryPositions(mu, times[i])
		}
	})

	inertial, err := dynamo.NewTrajectory(out, times)
	if err != nil {
		return nil, err
	}
	return &Transformed{Primary1: p1, Primary2: p2, Trajectory: inertial}, nil
}

// InertialToSynodic converts every sample of tr back into the synodic frame.
func InertialToSynodic(tr *dynamo.Trajectory) (*dynamo.Trajectory, error) {
	states, times, err := unpack(tr)
	if err != nil {
		return nil, err
	}

	out := make([]dynamo.State, len(states))
	dynamo.ParallelFor(len(states), parallelChunk, func(start, end int) {
		for i := start; i < end; i++ {
			r, v := vectors(states[i])
			out[i] = toSynodic(r, v, times[i])
		}
	})

	return dynamo.NewTrajectory(out, times)
}

func unpack(tr *dynamo.Trajectory) ([]dynamo.State, []float64, error) {
	if tr == nil {
		return nil, nil, fmt.Errorf("%w: nil trajectory", dynamo.ErrDimensionMismatch)
	}
	states := tr.States()
	for i, s := range states {
		if len(s) != 6 {
			return nil, nil, fmt.Errorf("%w: sample %d has %d components", dynamo.ErrDimensionMismatch, i, len(s))
		}
	}
	return states, tr.Times(), nil
}
