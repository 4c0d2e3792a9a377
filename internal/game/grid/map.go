// Package grid models the battlefield: terrain, occupancy, pathfinding, line of sight and area footprints.
package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned when a point lies outside the map.
	ErrOutOfBounds = errors.New("out of bounds")
	// ErrImpassable is returned when a point's terrain cannot be entered.
	ErrImpassable = errors.New("impassable")
	// ErrOccupied is returned when a point already holds another unit.
	ErrOccupied = errors.New("occupied")
)

// Point is an integer cell coordinate. X grows east, Y grows south.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String renders the point as "(x,y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Chebyshev returns max(|dx|,|dy|) between a and b.
func Chebyshev(a, b Point) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

type cell struct {
	terrain  Terrain
	occupant string
}

// Map is a rectangular grid of terrain cells with unit occupancy.
//
// A Map is not safe for concurrent use.
type Map struct {
	width  int
	height int
	cells  []cell
}

// NewMap creates a width×height map of open terrain.
//
// Precondition: width > 0 and height > 0.
// Postcondition: Returns a map with no occupants, or an error for non-positive dimensions.
func NewMap(width, height int) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("map dimensions must be positive, got %dx%d", width, height)
	}
	cells := make([]cell, width*height)
	for i := range cells {
		cells[i].terrain = Open
	}
	return &Map{width: width, height: height, cells: cells}, nil
}

// ParseRows builds a map from equal-length rows of terrain glyphs.
//
// Precondition: rows is non-empty and every row has the same rune count.
// Postcondition: Returns a map whose cell (x,y) has the terrain of rows[y][x].
func ParseRows(rows []string) (*Map, error) {
	if len(rows) == 0 {
		return nil, errors.New("map has no rows")
	}
	width := len([]rune(rows[0]))
	m, err := NewMap(width, len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != width {
			return nil, fmt.Errorf("row %d has width %d, want %d", y, len(runes), width)
		}
		for x, r := range runes {
			t, err := TerrainFromGlyph(r)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", y, x, err)
			}
			m.cells[y*width+x].terrain = t
		}
	}
	return m, nil
}

// Rows renders the terrain layer as glyph rows, the inverse of ParseRows.
func (m *Map) Rows() []string {
	out := make([]string, m.height)
	for y := 0; y < m.height; y++ {
		row := make([]rune, m.width)
		for x := 0; x < m.width; x++ {
			row[x] = m.cells[y*m.width+x].terrain.Glyph()
		}
		out[y] = string(row)
	}
	return out
}

// Width returns the number of columns.
func (m *Map) Width() int { return m.width }

// Height returns the number of rows.
func (m *Map) Height() int { return m.height }

// InBounds reports whether p lies on the map.
func (m *Map) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.width && p.Y < m.height
}

func (m *Map) at(p Point) *cell {
	return &m.cells[p.Y*m.width+p.X]
}

// Terrain returns the terrain at p, treating off-map points as impassable.
func (m *Map) Terrain(p Point) Terrain {
	if !m.InBounds(p) {
		return Impassable
	}
	return m.at(p).terrain
}

// SetTerrain overwrites the terrain at p.
//
// Postcondition: Returns ErrOutOfBounds for off-map points; ErrOccupied when making an occupied cell impassable.
func (m *Map) SetTerrain(p Point, t Terrain) error {
	if !m.InBounds(p) {
		return fmt.Errorf("set terrain %s: %w", p, ErrOutOfBounds)
	}
	c := m.at(p)
	if t == Impassable && c.occupant != "" {
		return fmt.Errorf("set terrain %s: %w", p, ErrOccupied)
	}
	c.terrain = t
	return nil
}

// Occupant returns the unit ID standing at p, or "" when the cell is empty or off-map.
func (m *Map) Occupant(p Point) string {
	if !m.InBounds(p) {
		return ""
	}
	return m.at(p).occupant
}

// CanEnter reports why a unit could not stand at p, or nil if it can.
func (m *Map) CanEnter(p Point) error {
	if !m.InBounds(p) {
		return ErrOutOfBounds
	}
	c := m.at(p)
	if !c.terrain.Passable() {
		return ErrImpassable
	}
	if c.occupant != "" {
		return ErrOccupied
	}
	return nil
}

// Place puts id on the empty cell p.
//
// Precondition: id is non-empty.
// Postcondition: Occupant(p) == id on success; the map is unchanged on error.
func (m *Map) Place(id string, p Point) error {
	if err := m.CanEnter(p); err != nil {
		return fmt.Errorf("place %q at %s: %w", id, p, err)
	}
	m.at(p).occupant = id
	return nil
}

// Relocate moves id from one cell to another in a single step.
//
// Precondition: Occupant(from) == id.
// Postcondition: Occupant(to) == id and Occupant(from) == "" on success; the map is unchanged on error.
func (m *Map) Relocate(id string, from, to Point) error {
	if m.Occupant(from) != id {
		return fmt.Errorf("relocate %q: not at %s", id, from)
	}
	if from == to {
		return nil
	}
	if err := m.CanEnter(to); err != nil {
		return fmt.Errorf("relocate %q to %s: %w", id, to, err)
	}
	m.at(from).occupant = ""
	m.at(to).occupant = id
	return nil
}

// Vacate clears the occupant at p if it is id.
func (m *Map) Vacate(id string, p Point) {
	if m.InBounds(p) && m.at(p).occupant == id {
		m.at(p).occupant = ""
	}
}

// Neighbors returns the in-bounds cells around p in a fixed order:
// the four orthogonal directions first, then the four diagonals.
func (m *Map) Neighbors(p Point) []Point {
	out := make([]Point, 0, 8)
	for _, d := range directions {
		n := Point{p.X + d.X, p.Y + d.Y}
		if m.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

var directions = [8]Point{
	{0, -1}, {1, 0}, {0, 1}, {-1, 0},
	{1, -1}, {1, 1}, {-1, 1}, {-1, -1},
}
