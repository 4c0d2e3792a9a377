package battle

import (
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Sightline describes what an observer can see of a cell.
type Sightline struct {
	Distance int
	// Concealed is true when the target cell is high cover or smoke and the observer is not adjacent.
	Concealed bool
	Cover     grid.Cover
}

// Targetable reports whether a ranged option can pick the cell.
func (l Sightline) Targetable() bool {
	return !l.Concealed
}

// SightTo traces the sightline from observer to target.
//
// Postcondition: Adjacent (and same-cell) targets are never concealed.
func (s *State) SightTo(observer, target grid.Point) Sightline {
	d := grid.Chebyshev(observer, target)
	cover := grid.Sight(s.Map, observer, target)
	if d <= 1 {
		return Sightline{Distance: d, Cover: cover}
	}
	concealed := s.Map.Terrain(target) == grid.HighCover || s.InSmoke(target)
	return Sightline{Distance: d, Concealed: concealed, Cover: cover}
}

// CheckReach validates that an option with reach rng can be aimed from observer at target.
//
// Postcondition: Returns an out_of_range error beyond rng and a no_line_of_sight error when
// a ranged option (rng > 1) aims at a concealed target; nil otherwise.
func (s *State) CheckReach(observer, target grid.Point, rng int) (Sightline, error) {
	line := s.SightTo(observer, target)
	if line.Distance > rng {
		return line, combat.Illegal(combat.ReasonOutOfRange, "distance %d exceeds range %d", line.Distance, rng)
	}
	if rng > 1 && !line.Targetable() {
		return line, combat.Illegal(combat.ReasonNoLineOfSight, "%s cannot see %s", observer, target)
	}
	return line, nil
}
