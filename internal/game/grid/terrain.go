package grid

import "fmt"

// Terrain classifies a single map cell.
type Terrain string

const (
	Open       Terrain = "open"
	Difficult  Terrain = "difficult"
	Hazardous  Terrain = "hazardous"
	Impassable Terrain = "impassable"
	HighCover  Terrain = "high_cover"
	LowCover   Terrain = "low_cover"
)

// Cover is the protection a defender receives from the cells between it and an attacker.
type Cover int

const (
	CoverNone Cover = iota
	CoverHalf
	CoverFull
)

// String returns the lowercase name of the cover level.
func (c Cover) String() string {
	switch c {
	case CoverHalf:
		return "half"
	case CoverFull:
		return "full"
	default:
		return "none"
	}
}

// ParseTerrain maps a content name to a Terrain.
//
// Postcondition: Returns an error for any name outside the closed terrain set.
func ParseTerrain(s string) (Terrain, error) {
	switch t := Terrain(s); t {
	case Open, Difficult, Hazardous, Impassable, HighCover, LowCover:
		return t, nil
	}
	return "", fmt.Errorf("unknown terrain %q", s)
}

// TerrainFromGlyph maps a single scenario map glyph to a Terrain.
//
// Glyphs: '.' open, '~' difficult, '^' hazardous, '#' impassable, 'H' high cover, 'h' low cover.
func TerrainFromGlyph(r rune) (Terrain, error) {
	switch r {
	case '.':
		return Open, nil
	case '~':
		return Difficult, nil
	case '^':
		return Hazardous, nil
	case '#':
		return Impassable, nil
	case 'H':
		return HighCover, nil
	case 'h':
		return LowCover, nil
	}
	return "", fmt.Errorf("unknown terrain glyph %q", r)
}

// Glyph is the inverse of TerrainFromGlyph.
func (t Terrain) Glyph() rune {
	switch t {
	case Difficult:
		return '~'
	case Hazardous:
		return '^'
	case Impassable:
		return '#'
	case HighCover:
		return 'H'
	case LowCover:
		return 'h'
	default:
		return '.'
	}
}

// Passable reports whether a unit may enter a cell of this terrain.
func (t Terrain) Passable() bool {
	return t != Impassable
}

// ExtraCost is the surcharge paid on top of the base step cost when entering this terrain.
func (t Terrain) ExtraCost() float64 {
	switch t {
	case Difficult:
		return 1
	case Hazardous:
		return 2
	default:
		return 0
	}
}

// Cover returns the cover level the terrain grants to a defender behind or inside it.
func (t Terrain) Cover() Cover {
	switch t {
	case LowCover:
		return CoverHalf
	case HighCover:
		return CoverFull
	default:
		return CoverNone
	}
}
