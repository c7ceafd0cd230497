package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/physics"
)

// Bounds is a rectangle in the synodic x-y plane.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// DefaultBounds frames both primaries and all five Lagrange points.
var DefaultBounds = Bounds{XMin: -1.5, XMax: 1.5, YMin: -1.5, YMax: 1.5}

// Region is a grid sampling of the Hill region for a Jacobi constant.
// Forbidden[j][i] is true when the cell centre (X[i], Y[j]) cannot be
// reached with that Jacobi constant. Row 0 is the lowest y.
type Region struct {
	Mu        float64
	Jacobi    float64
	Bounds    Bounds
	X, Y      []float64
	Forbidden [][]bool
}

// ForbiddenRegion samples an nx by ny grid over b and marks the cells where
// x² + y² + 2(mu1/r1 + mu2/r2) < cj. Those cells are bounded by the
// zero-velocity curves.
func ForbiddenRegion(mu, cj float64, b Bounds, nx, ny int) (*Region, error) {
	if err := dynamo.ValidateMassRatio(mu); err != nil {
		return nil, err
	}
	if nx < 2 || ny < 2 {
		return nil, fmt.Errorf("%w: grid needs at least 2x2 cells, got %dx%d", dynamo.ErrInvalidSamples, nx, ny)
	}
	if !(b.XMax > b.XMin && b.YMax > b.YMin) {
		return nil, fmt.Errorf("analysis: empty bounds %+v", b)
	}

	r := &Region{
		Mu:        mu,
		Jacobi:    cj,
		Bounds:    b,
		X:         make([]float64, nx),
		Y:         make([]float64, ny),
		Forbidden: make([][]bool, ny),
	}
	dx := (b.XMax - b.XMin) / float64(nx-1)
	dy := (b.YMax - b.YMin) / float64(ny-1)
	for i := range r.X {
		r.X[i] = b.XMin + float64(i)*dx
	}
	for j := range r.Y {
		r.Y[j] = b.YMin + float64(j)*dy
	}

	dynamo.ParallelFor(ny, 8, func(start, end int) {
		for j := start; j < end; j++ {
			row := make([]bool, nx)
			for i, x := range r.X {
				// Omega is 1/2 of the zero-velocity Jacobi value.
				row[i] = 2*physics.Potential(x, r.Y[j], 0, mu) < cj
			}
			r.Forbidden[j] = row
		}
	})

	return r, nil
}

// ForbiddenRegionFor derives the Jacobi constant from a planar state and
// samples its forbidden region. Out-of-plane states are rejected since
// their zero-velocity surfaces do not reduce to curves in z = 0.
func ForbiddenRegionFor(x dynamo.State, mu float64, b Bounds, nx, ny int) (*Region, error) {
	if len(x) != 6 {
		return nil, fmt.Errorf("%w: expected 6 components, got %d", dynamo.ErrDimensionMismatch, len(x))
	}
	if x[2] != 0 || x[5] != 0 {
		return nil, fmt.Errorf("%w: zero-velocity curves need a planar state (z=%g, vz=%g)",
			dynamo.ErrDimensionMismatch, x[2], x[5])
	}
	cj, err := physics.Jacobi(x, mu)
	if err != nil {
		return nil, err
	}
	return ForbiddenRegion(mu, cj, b, nx, ny)
}

// Point2D is a projected sample drawn on top of a region.
type Point2D struct{ X, Y float64 }

// Fraction returns the share of grid cells that are forbidden.
func (r *Region) Fraction() float64 {
	total, n := 0, 0
	for _, row := range r.Forbidden {
		for _, f := range row {
			if f {
				n++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// Render draws the region as ASCII art, width by height characters, with
// the path and both primaries overlaid. Forbidden cells are shaded.
func (r *Region) Render(path []Point2D, width, height int) string {
	if width < 2 || height < 2 {
		return ""
	}

	b := r.Bounds
	rangeX := b.XMax - b.XMin
	rangeY := b.YMax - b.YMin

	canvas := make([][]rune, height)
	for row := range canvas {
		canvas[row] = make([]rune, width)
		y := b.YMax - float64(row)/float64(height-1)*rangeY
		j := nearest(y, b.YMin, rangeY, len(r.Y))
		for col := range canvas[row] {
			x := b.XMin + float64(col)/float64(width-1)*rangeX
			i := nearest(x, b.XMin, rangeX, len(r.X))
			if r.Forbidden[j][i] {
				canvas[row][col] = '░'
			} else {
				canvas[row][col] = ' '
			}
		}
	}

	plot := func(x, y float64, c rune) {
		col := int(math.Round((x - b.XMin) / rangeX * float64(width-1)))
		row := height - 1 - int(math.Round((y-b.YMin)/rangeY*float64(height-1)))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = c
		}
	}

	for _, p := range path {
		plot(p.X, p.Y, '•')
	}
	plot(-r.Mu, 0, '●')
	plot(1-r.Mu, 0, '○')

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

func nearest(v, lo, span float64, n int) int {
	i := int(math.Round((v - lo) / span * float64(n-1)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
