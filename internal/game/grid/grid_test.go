package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

func mustRows(t testing.TB, rows ...string) *grid.Map {
	m, err := grid.ParseRows(rows)
	require.NoError(t, err)
	return m
}

func TestParseRows_RoundTrip(t *testing.T) {
	rows := []string{"..#", "~^H", "h.."}
	m := mustRows(t, rows...)
	assert.Equal(t, 3, m.Width())
	assert.Equal(t, 3, m.Height())
	assert.Equal(t, grid.Impassable, m.Terrain(grid.Point{X: 2, Y: 0}))
	assert.Equal(t, grid.HighCover, m.Terrain(grid.Point{X: 2, Y: 1}))
	assert.Equal(t, rows, m.Rows())
}

func TestParseRows_RejectsRaggedRows(t *testing.T) {
	_, err := grid.ParseRows([]string{"...", ".."})
	assert.Error(t, err)
}

func TestParseRows_RejectsUnknownGlyph(t *testing.T) {
	_, err := grid.ParseRows([]string{".x."})
	assert.Error(t, err)
}

func TestMap_PlaceAndRelocate(t *testing.T) {
	m := mustRows(t, "...", ".#.", "...")
	require.NoError(t, m.Place("a", grid.Point{X: 0, Y: 0}))
	require.NoError(t, m.Place("b", grid.Point{X: 2, Y: 0}))

	assert.ErrorIs(t, m.Place("c", grid.Point{X: 0, Y: 0}), grid.ErrOccupied)
	assert.ErrorIs(t, m.Place("c", grid.Point{X: 1, Y: 1}), grid.ErrImpassable)
	assert.ErrorIs(t, m.Place("c", grid.Point{X: 9, Y: 9}), grid.ErrOutOfBounds)

	assert.ErrorIs(t, m.Relocate("a", grid.Point{X: 0, Y: 0}, grid.Point{X: 2, Y: 0}), grid.ErrOccupied)
	assert.Equal(t, "a", m.Occupant(grid.Point{X: 0, Y: 0}), "failed relocate must not change occupancy")

	require.NoError(t, m.Relocate("a", grid.Point{X: 0, Y: 0}, grid.Point{X: 0, Y: 2}))
	assert.Equal(t, "", m.Occupant(grid.Point{X: 0, Y: 0}))
	assert.Equal(t, "a", m.Occupant(grid.Point{X: 0, Y: 2}))

	m.Vacate("a", grid.Point{X: 0, Y: 2})
	assert.Equal(t, "", m.Occupant(grid.Point{X: 0, Y: 2}))
}

func TestFindPath_CostAccounting(t *testing.T) {
	m := mustRows(t, ".~^", "...")
	p, ok := grid.FindPath(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 1, Y: 0}, 10, nil)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.Cost, "difficult terrain adds 1")

	p, ok = grid.FindPath(m, grid.Point{X: 0, Y: 1}, grid.Point{X: 1, Y: 0}, 10, nil)
	require.True(t, ok)
	assert.Equal(t, 2.5, p.Cost, "diagonal into difficult is 1.5+1")

	p, ok = grid.FindPath(m, grid.Point{X: 1, Y: 1}, grid.Point{X: 2, Y: 0}, 10, nil)
	require.True(t, ok)
	assert.Equal(t, 3.5, p.Cost, "diagonal into hazardous is 1.5+2")
}

func TestFindPath_BudgetExcludesPartialSteps(t *testing.T) {
	// agility 3 → budget floor(3/2) = 1: one open orthogonal step only.
	m := mustRows(t, "....")
	_, ok := grid.FindPath(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 2, Y: 0}, 1, nil)
	assert.False(t, ok)

	p, ok := grid.FindPath(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 1, Y: 0}, 1, nil)
	require.True(t, ok)
	assert.Equal(t, []grid.Point{{X: 1, Y: 0}}, p.Steps)
	assert.Equal(t, 1.0, p.Cost)
}

func TestFindPath_DiagonalCannotCutImpassableCorner(t *testing.T) {
	m := mustRows(t, ".#", "..")
	p, ok := grid.FindPath(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 1, Y: 1}, 10, nil)
	require.True(t, ok)
	assert.Equal(t, 2.0, p.Cost, "must go around via (0,1)")
	assert.Equal(t, []grid.Point{{X: 0, Y: 1}, {X: 1, Y: 1}}, p.Steps)
}

func TestFindPath_OccupiedCellsBlock(t *testing.T) {
	m := mustRows(t, "...", "...")
	require.NoError(t, m.Place("mover", grid.Point{X: 0, Y: 0}))
	require.NoError(t, m.Place("wall", grid.Point{X: 1, Y: 0}))
	require.NoError(t, m.Place("wall2", grid.Point{X: 1, Y: 1}))
	_, ok := grid.FindPath(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 2, Y: 0}, 10, nil)
	assert.False(t, ok)
	_, ok = grid.FindPath(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 1, Y: 0}, 10, nil)
	assert.False(t, ok, "occupied destination is unreachable")
}

func TestFindPath_PassFuncRestricts(t *testing.T) {
	m := mustRows(t, "...")
	block := func(p grid.Point) bool { return p != grid.Point{X: 1, Y: 0} }
	_, ok := grid.FindPath(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 2, Y: 0}, 10, block)
	assert.False(t, ok)
}

func TestFindPath_SameCell(t *testing.T) {
	m := mustRows(t, "..")
	p, ok := grid.FindPath(m, grid.Point{}, grid.Point{}, 0, nil)
	assert.True(t, ok)
	assert.Empty(t, p.Steps)
}

// TestFindPath_Properties checks the path invariants on random maps: the cost
// equals the sum of step costs, never exceeds the budget, every step is adjacent
// and passable, and the path ends at the destination.
func TestFindPath_Properties(t *testing.T) {
	glyphs := []rune{'.', '.', '.', '~', '^', '#', 'h', 'H'}
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.IntRange(2, 8).Draw(rt, "w")
		h := rapid.IntRange(2, 8).Draw(rt, "h")
		rows := make([]string, h)
		for y := range rows {
			row := make([]rune, w)
			for x := range row {
				row[x] = glyphs[rapid.IntRange(0, len(glyphs)-1).Draw(rt, "g")]
			}
			rows[y] = string(row)
		}
		m, err := grid.ParseRows(rows)
		require.NoError(rt, err)
		from := grid.Point{X: rapid.IntRange(0, w-1).Draw(rt, "fx"), Y: rapid.IntRange(0, h-1).Draw(rt, "fy")}
		to := grid.Point{X: rapid.IntRange(0, w-1).Draw(rt, "tx"), Y: rapid.IntRange(0, h-1).Draw(rt, "ty")}
		budget := float64(rapid.IntRange(0, 12).Draw(rt, "budget"))
		p, ok := grid.FindPath(m, from, to, budget, nil)
		if !ok {
			return
		}
		assert.LessOrEqual(rt, p.Cost, budget)
		sum := 0.0
		prev := from
		for _, s := range p.Steps {
			assert.Equal(rt, 1, grid.Chebyshev(prev, s))
			assert.True(rt, m.Terrain(s).Passable())
			sum += m.StepCost(prev, s)
			prev = s
		}
		assert.Equal(rt, sum, p.Cost)
		assert.Equal(rt, to, prev)
	})
}

func TestReachable_AgreesWithFindPath(t *testing.T) {
	m := mustRows(t, "..~..", ".#...", "..^..")
	from := grid.Point{X: 0, Y: 0}
	for _, r := range grid.Reachable(m, from, 3, nil) {
		p, ok := grid.FindPath(m, from, r.Point, 3, nil)
		require.True(t, ok, "reachable cell %s must have a path", r.Point)
		assert.Equal(t, r.Cost, p.Cost)
	}
}

func TestLine_Endpoints(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := grid.Point{X: rapid.IntRange(-20, 20).Draw(rt, "ax"), Y: rapid.IntRange(-20, 20).Draw(rt, "ay")}
		b := grid.Point{X: rapid.IntRange(-20, 20).Draw(rt, "bx"), Y: rapid.IntRange(-20, 20).Draw(rt, "by")}
		l := grid.Line(a, b)
		assert.Equal(rt, a, l[0])
		assert.Equal(rt, b, l[len(l)-1])
		assert.Len(rt, l, grid.Chebyshev(a, b)+1)
	})
}

func TestSight_ImpassableGivesFullCover(t *testing.T) {
	m := mustRows(t, ".#..")
	assert.Equal(t, grid.CoverFull, grid.Sight(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 3, Y: 0}))
	assert.Equal(t, grid.CoverNone, grid.Sight(m, grid.Point{X: 2, Y: 0}, grid.Point{X: 3, Y: 0}))
}

func TestSight_CoverLevels(t *testing.T) {
	m := mustRows(t, "h.h.H.")
	cover := grid.Sight(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 1, Y: 0})
	assert.Equal(t, grid.CoverNone, cover, "attacker's own cell grants no cover")

	cover = grid.Sight(m, grid.Point{X: 1, Y: 0}, grid.Point{X: 3, Y: 0})
	assert.Equal(t, grid.CoverHalf, cover)

	cover = grid.Sight(m, grid.Point{X: 1, Y: 0}, grid.Point{X: 5, Y: 0})
	assert.Equal(t, grid.CoverFull, cover)

	cover = grid.Sight(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 2, Y: 0})
	assert.Equal(t, grid.CoverHalf, cover, "defender's own cell counts")
}

func TestCells_CircleRadiusOne(t *testing.T) {
	m := mustRows(t, ".....", ".....", ".....")
	cells := grid.Cells(m, grid.Point{}, grid.Point{X: 2, Y: 1}, grid.Area{Shape: grid.ShapeCircle, Size: 1})
	assert.Len(t, cells, 9)
	assert.Equal(t, grid.Point{X: 1, Y: 0}, cells[0], "row-major order")
}

func TestCells_CircleClipsToMap(t *testing.T) {
	m := mustRows(t, "...", "...")
	cells := grid.Cells(m, grid.Point{}, grid.Point{}, grid.Area{Shape: grid.ShapeCircle, Size: 1})
	assert.Len(t, cells, 4)
}

func TestCells_Line(t *testing.T) {
	m := mustRows(t, "......")
	cells := grid.Cells(m, grid.Point{X: 0, Y: 0}, grid.Point{X: 1, Y: 0}, grid.Area{Shape: grid.ShapeLine, Size: 3})
	assert.Equal(t, []grid.Point{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}, cells)

	cells = grid.Cells(m, grid.Point{X: 4, Y: 0}, grid.Point{X: 5, Y: 0}, grid.Area{Shape: grid.ShapeLine, Size: 3})
	assert.Equal(t, []grid.Point{{X: 5, Y: 0}}, cells, "line stops at the map edge")

	assert.Empty(t, grid.Cells(m, grid.Point{}, grid.Point{}, grid.Area{Shape: grid.ShapeLine, Size: 3}))
}

func TestCells_Cone(t *testing.T) {
	m := mustRows(t, ".....", ".....", ".....", ".....", ".....")
	origin := grid.Point{X: 0, Y: 2}
	cells := grid.Cells(m, origin, grid.Point{X: 1, Y: 2}, grid.Area{Shape: grid.ShapeCone, Size: 2})
	assert.Equal(t, []grid.Point{
		{X: 1, Y: 1}, {X: 1, Y: 2}, {X: 1, Y: 3},
		{X: 2, Y: 0}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 2, Y: 3}, {X: 2, Y: 4},
	}, cells)
	for _, c := range cells {
		assert.NotEqual(t, origin, c)
	}
}

func TestArea_Validate(t *testing.T) {
	assert.NoError(t, grid.Area{Shape: grid.ShapeCircle, Size: 0}.Validate())
	assert.Error(t, grid.Area{Shape: grid.ShapeLine, Size: 0}.Validate())
	assert.Error(t, grid.Area{Shape: "blob", Size: 2}.Validate())
}
