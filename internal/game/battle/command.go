package battle

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// CommandKind is the closed set of command variants.
type CommandKind string

const (
	KindMove        CommandKind = "move"
	KindAttack      CommandKind = "attack"
	KindUseAbility  CommandKind = "use_ability"
	KindEndMovement CommandKind = "end_movement"
	KindEndTurn     CommandKind = "end_turn"
)

// Command is an instruction issued by a player or the AI for the acting unit.
// The set of implementations is closed.
type Command interface {
	Kind() CommandKind
	Actor() string
	command()
}

// Move walks UnitID to Destination along the cheapest affordable path.
type Move struct {
	UnitID      string
	Destination grid.Point
}

// Attack fires the weapon in WeaponSlot at TargetID.
type Attack struct {
	UnitID     string
	TargetID   string
	WeaponSlot int
}

// Target addresses an ability at a unit or at a cell. Exactly one is set.
type Target struct {
	UnitID string      `json:"unit_id,omitempty"`
	Point  *grid.Point `json:"point,omitempty"`
}

// UnitTarget targets a unit.
func UnitTarget(id string) Target { return Target{UnitID: id} }

// PointTarget targets a cell.
func PointTarget(p grid.Point) Target { return Target{Point: &p} }

// UseAbility activates AbilityID aimed at Target.
type UseAbility struct {
	UnitID    string
	AbilityID string
	Target    Target
}

// EndMovement closes the movement phase without acting.
type EndMovement struct {
	UnitID string
}

// EndTurn closes the acting unit's turn.
type EndTurn struct {
	UnitID string
}

func (Move) Kind() CommandKind        { return KindMove }
func (Attack) Kind() CommandKind      { return KindAttack }
func (UseAbility) Kind() CommandKind  { return KindUseAbility }
func (EndMovement) Kind() CommandKind { return KindEndMovement }
func (EndTurn) Kind() CommandKind     { return KindEndTurn }

func (c Move) Actor() string        { return c.UnitID }
func (c Attack) Actor() string      { return c.UnitID }
func (c UseAbility) Actor() string  { return c.UnitID }
func (c EndMovement) Actor() string { return c.UnitID }
func (c EndTurn) Actor() string     { return c.UnitID }

func (Move) command()        {}
func (Attack) command()      {}
func (UseAbility) command()  {}
func (EndMovement) command() {}
func (EndTurn) command()     {}

// Record is the flat serialized form of a Command, used by the command journal.
type Record struct {
	Kind        CommandKind `json:"kind"`
	UnitID      string      `json:"unit_id"`
	Destination *grid.Point `json:"destination,omitempty"`
	TargetID    string      `json:"target_id,omitempty"`
	WeaponSlot  int         `json:"weapon_slot,omitempty"`
	AbilityID   string      `json:"ability_id,omitempty"`
	Target      *Target     `json:"target,omitempty"`
}

// RecordOf flattens c.
func RecordOf(c Command) Record {
	r := Record{Kind: c.Kind(), UnitID: c.Actor()}
	switch v := c.(type) {
	case Move:
		d := v.Destination
		r.Destination = &d
	case Attack:
		r.TargetID = v.TargetID
		r.WeaponSlot = v.WeaponSlot
	case UseAbility:
		t := v.Target
		r.AbilityID = v.AbilityID
		r.Target = &t
	}
	return r
}

// Command rebuilds the command r was flattened from.
//
// Postcondition: Returns an error for an unknown kind or missing variant fields.
func (r Record) Command() (Command, error) {
	switch r.Kind {
	case KindMove:
		if r.Destination == nil {
			return nil, fmt.Errorf("move record for %q has no destination", r.UnitID)
		}
		return Move{UnitID: r.UnitID, Destination: *r.Destination}, nil
	case KindAttack:
		return Attack{UnitID: r.UnitID, TargetID: r.TargetID, WeaponSlot: r.WeaponSlot}, nil
	case KindUseAbility:
		if r.Target == nil {
			return nil, fmt.Errorf("ability record for %q has no target", r.UnitID)
		}
		return UseAbility{UnitID: r.UnitID, AbilityID: r.AbilityID, Target: *r.Target}, nil
	case KindEndMovement:
		return EndMovement{UnitID: r.UnitID}, nil
	case KindEndTurn:
		return EndTurn{UnitID: r.UnitID}, nil
	}
	return nil, fmt.Errorf("unknown command kind %q", r.Kind)
}
