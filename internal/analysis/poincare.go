package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/crtbp/internal/dynamo"
)

// Section is a Poincaré surface of section of a planar orbit: the (x, vx)
// coordinates of every crossing of y = 0 with y increasing.
type Section struct {
	Jacobi float64
	Times  []float64
	Points []Point2D
}

// PoincareSection steps the orbit starting at x0 with a fixed step dt
// for duration and records each upward crossing of the x axis. The
// crossing point is linearly interpolated between the bracketing steps.
func PoincareSection(
	dyn dynamo.System,
	integ dynamo.Integrator,
	x0 dynamo.State,
	dt, duration float64,
) (*Section, error) {
	if len(x0) != 6 {
		return nil, fmt.Errorf("%w: surface of section needs 6 components, got %d", dynamo.ErrDimensionMismatch, len(x0))
	}
	if dt <= 0 || duration <= 0 {
		return nil, errors.New("analysis: surface of section needs a positive step and duration")
	}

	section := &Section{Jacobi: math.NaN()}
	if h, ok := dyn.(dynamo.Hamiltonian); ok {
		section.Jacobi = h.Energy(x0)
	}

	x := x0.Clone()
	t := 0.0
	steps := int(math.Ceil(duration / dt))

	for i := 1; i <= steps; i++ {
		next, err := integ.Step(dyn, x, t, dt)
		if err != nil {
			return nil, &dynamo.SimulationError{Step: i, Time: t, State: x, Wrapped: err}
		}

		if x[1] < 0 && next[1] >= 0 {
			frac := -x[1] / (next[1] - x[1])
			section.Times = append(section.Times, t+frac*dt)
			section.Points = append(section.Points, Point2D{
				X: x[0] + frac*(next[0]-x[0]),
				Y: x[3] + frac*(next[3]-x[3]),
			})
		}

		x = next
		t += dt
	}

	return section, nil
}

// Render scatters the section points on a width by height character grid
// scaled to their bounding box.
func (s *Section) Render(width, height int) string {
	if len(s.Points) == 0 {
		return "no crossings detected\n"
	}
	if width < 2 || height < 2 {
		return ""
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range s.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	canvas := make([][]rune, height)
	for row := range canvas {
		canvas[row] = []rune(strings.Repeat(" ", width))
	}
	for _, p := range s.Points {
		col := int(math.Round((p.X - minX) / rangeX * float64(width-1)))
		row := height - 1 - int(math.Round((p.Y-minY)/rangeY*float64(height-1)))
		canvas[row][col] = '•'
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	fmt.Fprintf(&sb, "x ∈ [%.6f, %.6f]  vx ∈ [%.6f, %.6f]\n", minX, maxX, minY, maxY)
	return sb.String()
}
