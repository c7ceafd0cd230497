// Package export renders trajectories as standalone SVG documents.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/crtbp/internal/dynamo"
	"github.com/san-kum/crtbp/internal/frames"
	"github.com/san-kum/crtbp/internal/physics"
)

// Options controls the SVG canvas.
type Options struct {
	Width       int
	Height      int
	StrokeColor string
	// Inertial draws the path and the primary tracks in the inertial frame.
	Inertial bool
	// Lagrange marks the five equilibria (synodic frame only).
	Lagrange bool
}

func DefaultOptions() Options {
	return Options{Width: 800, Height: 800, StrokeColor: "#00ccff", Lagrange: true}
}

type point struct{ X, Y float64 }

type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) add(p point) {
	b.minX = math.Min(b.minX, p.X)
	b.maxX = math.Max(b.maxX, p.X)
	b.minY = math.Min(b.minY, p.Y)
	b.maxY = math.Max(b.maxY, p.Y)
}

// TrajectorySVG draws the x-y projection of a synodic trajectory of the
// restricted problem with mass ratio mu, together with both primaries.
func TrajectorySVG(tr *dynamo.Trajectory, mu float64, opts Options) (string, error) {
	if err := dynamo.ValidateMassRatio(mu); err != nil {
		return "", err
	}
	if tr == nil || tr.Len() < 2 {
		return "", fmt.Errorf("%w: need at least two samples to draw", dynamo.ErrInvalidSamples)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return "", fmt.Errorf("invalid canvas %dx%d", opts.Width, opts.Height)
	}

	var path, p1, p2 []point
	var marks []physics.Point

	if opts.Inertial {
		out, err := frames.SynodicToInertial(tr, mu)
		if err != nil {
			return "", err
		}
		for i, s := range out.Trajectory.States() {
			path = append(path, point{s[0], s[1]})
			p1 = append(p1, point{out.Primary1[i][0], out.Primary1[i][1]})
			p2 = append(p2, point{out.Primary2[i][0], out.Primary2[i][1]})
		}
	} else {
		for _, s := range tr.States() {
			if len(s) < 2 {
				return "", fmt.Errorf("%w: sample has %d components", dynamo.ErrDimensionMismatch, len(s))
			}
			path = append(path, point{s[0], s[1]})
		}
		p1 = []point{{-mu, 0}}
		p2 = []point{{1 - mu, 0}}
		if opts.Lagrange {
			pts, err := physics.LagrangePoints(mu)
			if err != nil {
				return "", err
			}
			marks = pts[:]
		}
	}

	b := bounds{minX: math.Inf(1), maxX: math.Inf(-1), minY: math.Inf(1), maxY: math.Inf(-1)}
	for _, set := range [][]point{path, p1, p2} {
		for _, p := range set {
			b.add(p)
		}
	}
	for _, m := range marks {
		b.add(point{m.X, m.Y})
	}

	// Equal scale on both axes with 10% padding.
	span := math.Max(b.maxX-b.minX, b.maxY-b.minY)
	if span == 0 {
		span = 1
	}
	span *= 1.2
	cx, cy := (b.minX+b.maxX)/2, (b.minY+b.maxY)/2
	scale := math.Min(float64(opts.Width), float64(opts.Height)) / span
	project := func(p point) (float64, float64) {
		return float64(opts.Width)/2 + (p.X-cx)*scale, float64(opts.Height)/2 - (p.Y-cy)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, opts.Width, opts.Height, opts.Width, opts.Height)

	writePolyline(&sb, path, project, opts.StrokeColor, 1.5)
	if len(p1) > 1 {
		writePolyline(&sb, p1, project, "#ffcc00", 0.8)
		writePolyline(&sb, p2, project, "#888899", 0.8)
	}

	x, y := project(p1[len(p1)-1])
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"8\" fill=\"#ffcc00\"/>\n", x, y)
	x, y = project(p2[len(p2)-1])
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"5\" fill=\"#888899\"/>\n", x, y)

	for _, m := range marks {
		x, y := project(point{m.X, m.Y})
		fmt.Fprintf(&sb, "<g fill=\"#ff4444\"><circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\"/><text x=\"%.1f\" y=\"%.1f\" font-size=\"12\">L%d</text></g>\n",
			x, y, x+5, y-5, m.Index)
	}

	x, y = project(path[0])
	fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"#00ff88\"/>\n", x, y)

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

func writePolyline(sb *strings.Builder, pts []point, project func(point) (float64, float64), color string, width float64) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="%.1f" d="M`, color, width)
	for i, p := range pts {
		x, y := project(p)
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}
