package grid

// Line returns the Bresenham line of cells from a to b, both endpoints included.
func Line(a, b Point) []Point {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	err := dx + dy
	out := make([]Point, 0, max(dx, -dy)+1)
	x, y := a.X, a.Y
	for {
		out = append(out, Point{x, y})
		if x == b.X && y == b.Y {
			return out
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

// Sight traces the line from observer to target and returns the cover it gives the target.
//
// Postcondition: the result is the highest cover level along the line, excluding the observer's
// own cell and including the target's. An impassable cell strictly between the two points
// counts as full cover.
func Sight(m *Map, observer, target Point) Cover {
	line := Line(observer, target)
	cover := CoverNone
	for i, p := range line {
		if i == 0 {
			continue
		}
		t := m.Terrain(p)
		c := t.Cover()
		if i < len(line)-1 && !t.Passable() {
			c = CoverFull
		}
		if c > cover {
			cover = c
		}
	}
	return cover
}
