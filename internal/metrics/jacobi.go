package metrics

import (
	"math"

	"github.com/san-kum/crtbp/internal/dynamo"
)

// JacobiDrift tracks the largest absolute departure of the conserved
// quantity from its value at the first observed sample. The system must
// implement dynamo.Hamiltonian; otherwise the metric stays at zero.
type JacobiDrift struct {
	name     string
	initial  float64
	current  float64
	maxDrift float64
	samples  int
	dyn      dynamo.System
}

func NewJacobiDrift(dyn dynamo.System) *JacobiDrift {
	return &JacobiDrift{
		name: "jacobi_drift",
		dyn:  dyn,
	}
}

func (j *JacobiDrift) Name() string { return j.name }

func (j *JacobiDrift) Observe(x dynamo.State, t float64) {
	h, ok := j.dyn.(dynamo.Hamiltonian)
	if !ok {
		return
	}

	c := h.Energy(x)
	if math.IsNaN(c) {
		j.maxDrift = math.Inf(1)
		return
	}

	if j.samples == 0 {
		j.initial = c
	}
	j.current = c
	j.samples++

	j.maxDrift = math.Max(j.maxDrift, math.Abs(c-j.initial))
}

func (j *JacobiDrift) Value() float64 { return j.maxDrift }

// Initial returns the value recorded at the first sample.
func (j *JacobiDrift) Initial() float64 { return j.initial }

func (j *JacobiDrift) Reset() {
	j.initial = 0
	j.current = 0
	j.maxDrift = 0
	j.samples = 0
}
