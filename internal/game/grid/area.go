package grid

import (
	"fmt"
	"sort"
)

// Shape is the footprint family of an area effect.
type Shape string

const (
	ShapeCircle Shape = "circle"
	ShapeCone   Shape = "cone"
	ShapeLine   Shape = "line"
)

// Area is an area-of-effect footprint. Size is the radius for circles and
// cones and the length for lines.
type Area struct {
	Shape Shape `json:"shape" yaml:"shape"`
	Size  int   `json:"size" yaml:"size"`
}

// Validate reports a malformed area.
func (a Area) Validate() error {
	switch a.Shape {
	case ShapeCircle, ShapeCone, ShapeLine:
	default:
		return fmt.Errorf("unknown area shape %q", a.Shape)
	}
	if a.Size < 0 || (a.Shape != ShapeCircle && a.Size == 0) {
		return fmt.Errorf("area %s: invalid size %d", a.Shape, a.Size)
	}
	return nil
}

// Cells enumerates the in-bounds cells covered by area when cast from origin
// and aimed at anchor.
//
// Circles are centered on anchor and include every cell with dx²+dy² <= r²+r,
// in row-major order. Lines and cones emanate from origin toward anchor and
// exclude origin; a line lists its cells in travel order, a cone lists cells
// within 45° of the aim direction ordered by distance then row-major.
//
// Postcondition: Returns an empty slice for a line or cone aimed at origin itself.
func Cells(m *Map, origin, anchor Point, area Area) []Point {
	switch area.Shape {
	case ShapeCircle:
		return circle(m, anchor, area.Size)
	case ShapeLine:
		return line(m, origin, anchor, area.Size)
	case ShapeCone:
		return cone(m, origin, anchor, area.Size)
	}
	return nil
}

func circle(m *Map, c Point, r int) []Point {
	var out []Point
	for y := c.Y - r; y <= c.Y+r; y++ {
		for x := c.X - r; x <= c.X+r; x++ {
			dx, dy := x-c.X, y-c.Y
			p := Point{x, y}
			if dx*dx+dy*dy <= r*r+r && m.InBounds(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

func line(m *Map, origin, anchor Point, length int) []Point {
	if origin == anchor || length <= 0 {
		return nil
	}
	far := Point{
		X: origin.X + (anchor.X-origin.X)*length,
		Y: origin.Y + (anchor.Y-origin.Y)*length,
	}
	var out []Point
	for _, p := range Line(origin, far)[1:] {
		if len(out) == length || !m.InBounds(p) {
			break
		}
		out = append(out, p)
	}
	return out
}

func cone(m *Map, origin, anchor Point, r int) []Point {
	if origin == anchor || r <= 0 {
		return nil
	}
	ax, ay := anchor.X-origin.X, anchor.Y-origin.Y
	aimSq := ax*ax + ay*ay
	var out []Point
	for y := origin.Y - r; y <= origin.Y+r; y++ {
		for x := origin.X - r; x <= origin.X+r; x++ {
			p := Point{x, y}
			if p == origin || !m.InBounds(p) {
				continue
			}
			vx, vy := x-origin.X, y-origin.Y
			dot := vx*ax + vy*ay
			// cos(angle) >= cos(45°)  <=>  2·dot² >= |v|²·|aim|² with dot > 0
			if dot <= 0 || 2*dot*dot < (vx*vx+vy*vy)*aimSq {
				continue
			}
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return Chebyshev(origin, out[i]) < Chebyshev(origin, out[j])
	})
	return out
}
