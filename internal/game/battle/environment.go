package battle

import (
	"fmt"
	"slices"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// EnvKind is the closed set of environmental effects.
type EnvKind string

const (
	Smoke EnvKind = "smoke"
	Fire  EnvKind = "fire"
	Acid  EnvKind = "acid"
)

// Environmental is a terrain-bound effect with a footprint and a lifetime in rounds.
type Environmental struct {
	ID        string       `json:"id"`
	Kind      EnvKind      `json:"kind"`
	Cells     []grid.Point `json:"cells"`
	Remaining int          `json:"remaining"`
	Magnitude int          `json:"magnitude"`
}

// Covers reports whether p is inside the footprint.
func (e *Environmental) Covers(p grid.Point) bool {
	return slices.Contains(e.Cells, p)
}

// NewEnvironmental builds an effect whose footprint is the circle of radius around center, clipped to m.
//
// Precondition: radius >= 0; remaining >= 1.
// Postcondition: Returns an error for an unknown kind, an off-map center or a non-positive lifetime.
func NewEnvironmental(m *grid.Map, id string, kind EnvKind, center grid.Point, radius, remaining, magnitude int) (*Environmental, error) {
	switch kind {
	case Smoke, Fire, Acid:
	default:
		return nil, fmt.Errorf("unknown environmental effect %q", kind)
	}
	if !m.InBounds(center) {
		return nil, fmt.Errorf("%s %q: center %s: %w", kind, id, center, grid.ErrOutOfBounds)
	}
	if remaining < 1 || radius < 0 || magnitude < 0 {
		return nil, fmt.Errorf("%s %q: remaining must be >= 1 and radius, magnitude >= 0", kind, id)
	}
	cells := grid.Cells(m, center, center, grid.Area{Shape: grid.ShapeCircle, Size: radius})
	return &Environmental{ID: id, Kind: kind, Cells: cells, Remaining: remaining, Magnitude: magnitude}, nil
}

// AddEnvironment registers e on the battlefield.
func (s *State) AddEnvironment(e *Environmental) {
	s.Environment = append(s.Environment, e)
}

// InSmoke reports whether p lies inside any smoke cloud.
func (s *State) InSmoke(p grid.Point) bool {
	for _, e := range s.Environment {
		if e.Kind == Smoke && e.Covers(p) {
			return true
		}
	}
	return false
}

// TickEnvironment resolves one round of environmental effects in registration order:
// fire damages occupants, acid applies a one-turn suppression of its magnitude,
// smoke only conceals. Every effect then ages by one round and is removed at zero.
//
// Postcondition: Emits environment_damage, status_applied and environment_expired events as they occur.
func (s *State) TickEnvironment() error {
	for _, e := range s.Environment {
		for _, p := range e.Cells {
			u, ok := s.UnitAt(p)
			if !ok {
				continue
			}
			switch e.Kind {
			case Fire:
				d := s.Damage(u, e.Magnitude, "")
				pos := p
				s.Emit(Event{Type: EventEnvironmentDamage, TargetID: u.ID, Amount: d.Dealt, Absorbed: d.Absorbed, Position: &pos, Detail: string(e.Kind)})
			case Acid:
				if e.Magnitude == 0 {
					continue
				}
				in := condition.Instance{Kind: condition.Suppression, Remaining: 1, Magnitude: e.Magnitude, SourceID: e.ID}
				if err := s.ApplyStatus(u, in, ""); err != nil {
					return err
				}
			}
		}
	}
	kept := s.Environment[:0]
	for _, e := range s.Environment {
		e.Remaining--
		if e.Remaining <= 0 {
			s.Emit(Event{Type: EventEnvironmentExpired, Detail: string(e.Kind), TargetID: e.ID})
			continue
		}
		kept = append(kept, e)
	}
	s.Environment = kept
	return nil
}
