package metrics

import (
	"math"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/physics"
)

// ClosestApproach records the smallest distance to one of the primaries
// over the observed samples. Primary 1 is the larger body at (-mu, 0, 0),
// primary 2 the smaller one at (1-mu, 0, 0).
type ClosestApproach struct {
	name    string
	mu      float64
	primary int
	min     float64
}

func NewClosestApproach(mu float64, primary int) *ClosestApproach {
	name := "closest_primary1"
	if primary == 2 {
		name = "closest_primary2"
	}
	return &ClosestApproach{name: name, mu: mu, primary: primary, min: math.Inf(1)}
}

func (c *ClosestApproach) Name() string { return c.name }

func (c *ClosestApproach) Observe(x dynamo.State, t float64) {
	if len(x) < 3 {
		return
	}
	r1, r2 := physics.Distances(x, c.mu)
	r := r1
	if c.primary == 2 {
		r = r2
	}
	c.min = math.Min(c.min, r)
}

func (c *ClosestApproach) Value() float64 { return c.min }

func (c *ClosestApproach) Reset() { c.min = math.Inf(1) }

// Confinement is the fraction of samples within radius of a point in the
// x-y plane, typically a Lagrange point. 1 means the orbit never left.
type Confinement struct {
	name       string
	x, y       float64
	radius     float64
	violations int
	samples    int
}

func NewConfinement(p physics.Point, radius float64) *Confinement {
	return &Confinement{
		name:   "confinement",
		x:      p.X,
		y:      p.Y,
		radius: radius,
	}
}

func (c *Confinement) Name() string { return c.name }

func (c *Confinement) Observe(x dynamo.State, t float64) {
	if len(x) < 3 {
		return
	}
	c.samples++
	if math.Sqrt((x[0]-c.x)*(x[0]-c.x)+(x[1]-c.y)*(x[1]-c.y)+x[2]*x[2]) > c.radius {
		c.violations++
	}
}

func (c *Confinement) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Confinement) Reset() {
	c.violations = 0
	c.samples = 0
}
