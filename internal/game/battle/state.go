// Package battle holds the mutable state shared by every rules component
// during one encounter: the unit arena, the map, environmental effects and
// the event log.
package battle

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// State is the battlefield. Units live in an arena slice in setup order and
// are addressed by ID.
//
// A State is not safe for concurrent use; the owning encounter serialises access.
type State struct {
	Map         *grid.Map
	Environment []*Environmental
	Conditions  *condition.Registry
	// Round is stamped onto every emitted event.
	Round int

	units  []*unit.Unit
	index  map[string]int
	events []Event
	seq    int
}

// NewState creates an empty battlefield over m. A nil reg uses condition.DefaultRegistry.
//
// Precondition: m must not be nil.
func NewState(m *grid.Map, reg *condition.Registry) *State {
	if reg == nil {
		reg = condition.DefaultRegistry()
	}
	return &State{Map: m, Conditions: reg, Round: 1, index: make(map[string]int)}
}

// AddUnit appends u to the arena. Living units occupy their cell.
//
// Postcondition: Returns an error for a duplicate ID or an unplaceable position; the state is unchanged on error.
func (s *State) AddUnit(u *unit.Unit) error {
	if u.ID == "" {
		return fmt.Errorf("unit has no id")
	}
	if _, dup := s.index[u.ID]; dup {
		return fmt.Errorf("duplicate unit id %q", u.ID)
	}
	if u.Alive() {
		if err := s.Map.Place(u.ID, u.Position); err != nil {
			return err
		}
	}
	s.index[u.ID] = len(s.units)
	s.units = append(s.units, u)
	return nil
}

// Unit returns the unit with id, living or dead.
func (s *State) Unit(id string) (*unit.Unit, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.units[i], true
}

// Units returns every unit in arena order. The slice is a copy; the units are shared.
func (s *State) Units() []*unit.Unit {
	out := make([]*unit.Unit, len(s.units))
	copy(out, s.units)
	return out
}

// Living returns the living units of side in arena order. An empty side matches every side.
func (s *State) Living(side unit.Side) []*unit.Unit {
	var out []*unit.Unit
	for _, u := range s.units {
		if u.Alive() && (side == "" || u.Side == side) {
			out = append(out, u)
		}
	}
	return out
}

// UnitAt returns the living unit standing at p.
func (s *State) UnitAt(p grid.Point) (*unit.Unit, bool) {
	id := s.Map.Occupant(p)
	if id == "" {
		return nil, false
	}
	return s.Unit(id)
}

// Emit stamps ev with the next sequence number and the current round and appends it to the log.
func (s *State) Emit(ev Event) Event {
	s.seq++
	ev.Seq = s.seq
	ev.Round = s.Round
	s.events = append(s.events, ev)
	return ev
}

// Events returns the full event log.
func (s *State) Events() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// EventsSince returns the events with Seq > seq.
func (s *State) EventsSince(seq int) []Event {
	for i, ev := range s.events {
		if ev.Seq > seq {
			out := make([]Event, len(s.events)-i)
			copy(out, s.events[i:])
			return out
		}
	}
	return nil
}

// Seq returns the sequence number of the last emitted event.
func (s *State) Seq() int { return s.seq }

// SetSeq restores the event counter after a snapshot restore.
func (s *State) SetSeq(seq int) { s.seq = seq }

// Damage applies amount to target through its shields and records the result.
// A killed unit releases its cell.
//
// Precondition: amount >= 0.
// Postcondition: Emits shield_absorbed when shields absorbed anything and unit_died when the target died.
func (s *State) Damage(target *unit.Unit, amount int, sourceID string) combat.Damage {
	d := combat.ApplyDamage(target, amount)
	if d.Absorbed > 0 {
		s.Emit(Event{Type: EventShieldAbsorbed, ActorID: sourceID, TargetID: target.ID, Absorbed: d.Absorbed})
	}
	if d.Killed {
		s.kill(target, sourceID)
	}
	return d
}

// Drain removes amount HP from target, bypassing shields.
//
// Postcondition: Returns true and emits unit_died when the target died.
func (s *State) Drain(target *unit.Unit, amount int, sourceID string) bool {
	if target.LoseHP(amount) {
		s.kill(target, sourceID)
		return true
	}
	return false
}

func (s *State) kill(u *unit.Unit, sourceID string) {
	s.Map.Vacate(u.ID, u.Position)
	pos := u.Position
	s.Emit(Event{Type: EventUnitDied, ActorID: sourceID, TargetID: u.ID, Position: &pos})
}

// ApplyStatus adds in to target under the registry's stacking policy and re-derives its stats.
//
// Postcondition: Emits status_applied on success.
func (s *State) ApplyStatus(target *unit.Unit, in condition.Instance, abilityID string) error {
	got, _, err := target.Statuses.Apply(s.Conditions, in)
	if err != nil {
		return fmt.Errorf("applying %s to %q: %w", in.Kind, target.ID, err)
	}
	target.RecomputeStats()
	s.Emit(Event{
		Type:      EventStatusApplied,
		ActorID:   in.SourceID,
		TargetID:  target.ID,
		AbilityID: abilityID,
		Status:    got.Kind,
		Amount:    got.Magnitude,
		Remaining: got.Remaining,
	})
	return nil
}

// Relocate moves u to to, keeping occupancy in step with the unit's position.
func (s *State) Relocate(u *unit.Unit, to grid.Point) error {
	if err := s.Map.Relocate(u.ID, u.Position, to); err != nil {
		return err
	}
	u.Position = to
	return nil
}
