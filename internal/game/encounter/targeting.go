package encounter

import (
	"context"
	"errors"

	"github.com/cory-johannsen/skirmish/internal/game/ability"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// ErrTargetingClosed is returned by a Targeting that was cancelled or already confirmed.
var ErrTargetingClosed = errors.New("targeting closed")

// Targeting is a pending ability activation while a player picks its aim point.
// Nothing in the encounter changes until Confirm.
type Targeting struct {
	enc       *Encounter
	unitID    string
	abilityID string
	target    *battle.Target
	closed    bool
}

// BeginTargeting opens target selection for the current unit's ability.
//
// Postcondition: Returns an *combat.ActionError when the unit may not act now or lacks the ability.
func (e *Encounter) BeginTargeting(unitID, abilityID string) (*Targeting, error) {
	if e.Resolved() {
		return nil, combat.Illegal(combat.ReasonEncounterOver, "outcome %s", e.outcome)
	}
	if unitID != e.queue.Current() {
		return nil, combat.Illegal(combat.ReasonNotYourTurn, "%q acts now", e.queue.Current())
	}
	actor, _ := e.state.Unit(unitID)
	if _, ok := actor.Ability(abilityID); !ok {
		return nil, combat.Illegal(combat.ReasonUnknownAbility, "%q", abilityID)
	}
	return &Targeting{enc: e, unitID: unitID, abilityID: abilityID}, nil
}

// Aim previews the activation against target without committing it.
//
// Postcondition: On success the target is remembered for Confirm and the plan lists every unit it would affect.
func (t *Targeting) Aim(target battle.Target) (ability.UsePlan, error) {
	if t.closed {
		return ability.UsePlan{}, ErrTargetingClosed
	}
	actor, ok := t.enc.state.Unit(t.unitID)
	if !ok || t.enc.queue.Current() != t.unitID {
		return ability.UsePlan{}, combat.Illegal(combat.ReasonNotYourTurn, "%q no longer acts", t.unitID)
	}
	plan, err := t.enc.engine.CheckUse(t.enc.state, actor, t.command(target))
	if err != nil {
		return ability.UsePlan{}, err
	}
	t.target = &target
	return plan, nil
}

// Cancel abandons selection. It never changes the encounter.
func (t *Targeting) Cancel() { t.closed = true }

// Confirm submits the activation at the last successful aim.
func (t *Targeting) Confirm(ctx context.Context) ([]battle.Event, error) {
	if t.closed {
		return nil, ErrTargetingClosed
	}
	if t.target == nil {
		return nil, combat.Illegal(combat.ReasonNoTarget, "%q has not been aimed", t.abilityID)
	}
	events, err := t.enc.Submit(ctx, t.command(*t.target))
	if err == nil {
		t.closed = true
	}
	return events, err
}

func (t *Targeting) command(target battle.Target) battle.UseAbility {
	return battle.UseAbility{UnitID: t.unitID, AbilityID: t.abilityID, Target: target}
}
