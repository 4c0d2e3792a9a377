// Package ability resolves weapon attacks and ability activations against the battlefield.
package ability

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// Engine validates and resolves attack and ability commands.
// Validation methods never draw from the roller and never mutate state.
type Engine struct {
	roller combat.Roller
}

// NewEngine creates an Engine drawing from r.
//
// Precondition: r must not be nil.
func NewEngine(r combat.Roller) *Engine {
	return &Engine{roller: r}
}

// AttackPlan is a validated weapon attack.
type AttackPlan struct {
	Target *unit.Unit
	Weapon *unit.Weapon
	Line   battle.Sightline
}

// CheckAttack validates cmd for actor without changing anything.
//
// Postcondition: Returns an *combat.ActionError describing the first failed rule, or a plan.
func (e *Engine) CheckAttack(s *battle.State, actor *unit.Unit, cmd battle.Attack) (AttackPlan, error) {
	w, ok := actor.Weapon(cmd.WeaponSlot)
	if !ok {
		return AttackPlan{}, combat.Illegal(combat.ReasonUnknownWeapon, "slot %d", cmd.WeaponSlot)
	}
	target, err := lookupTarget(s, cmd.TargetID)
	if err != nil {
		return AttackPlan{}, err
	}
	if actor.AP < w.APCost {
		return AttackPlan{}, combat.Illegal(combat.ReasonInsufficientAP, "need %d AP, have %d", w.APCost, actor.AP)
	}
	line, err := s.CheckReach(actor.Position, target.Position, w.Range)
	if err != nil {
		return AttackPlan{}, err
	}
	return AttackPlan{Target: target, Weapon: w, Line: line}, nil
}

// Attack validates and resolves cmd: AP is deducted, then hit and critical are rolled.
//
// Precondition: actor is the acting unit.
// Postcondition: On error nothing changed. On success emits one attack event,
// followed by shield and death events when they occur.
func (e *Engine) Attack(s *battle.State, actor *unit.Unit, cmd battle.Attack) (combat.Result, error) {
	plan, err := e.CheckAttack(s, actor, cmd)
	if err != nil {
		return combat.Result{}, err
	}
	if err := actor.SpendAP(plan.Weapon.APCost); err != nil {
		return combat.Result{}, combat.Illegal(combat.ReasonInsufficientAP, "%v", err)
	}
	res := combat.Resolve(actor, plan.Target, combat.WeaponStrike(actor, plan.Weapon), plan.Line.Cover, e.roller)
	s.Emit(battle.Event{
		Type:      battle.EventAttack,
		ActorID:   actor.ID,
		TargetID:  plan.Target.ID,
		Outcome:   outcomeOf(res),
		HitChance: res.HitChance,
		HitRoll:   res.HitRoll,
		CritRoll:  res.CritRoll,
		Amount:    res.Damage,
		Detail:    plan.Weapon.ID,
	})
	if res.Hit {
		s.Damage(plan.Target, res.Damage, actor.ID)
	}
	return res, nil
}

// UsePlan is a validated ability activation.
type UsePlan struct {
	Ability *unit.Ability
	// Anchor is the aim point: the target unit's cell or the chosen cell.
	Anchor  grid.Point
	Targets []*unit.Unit
}

// CheckUse validates cmd for actor and gathers its targets without changing anything.
// The ability's own definition is checked too, so that resolving the plan cannot fail
// half way through.
//
// Postcondition: Returns an *combat.ActionError describing the first failed rule, a wrapped
// error for a malformed ability, or a plan with at least one living target in enumeration order.
func (e *Engine) CheckUse(s *battle.State, actor *unit.Unit, cmd battle.UseAbility) (UsePlan, error) {
	ab, ok := actor.Ability(cmd.AbilityID)
	if !ok {
		return UsePlan{}, combat.Illegal(combat.ReasonUnknownAbility, "%q", cmd.AbilityID)
	}
	if err := ab.Validate(); err != nil {
		return UsePlan{}, fmt.Errorf("unit %q: %w", actor.ID, err)
	}
	if !ab.Ready() {
		return UsePlan{}, combat.Illegal(combat.ReasonCooldown, "%q ready in %d turns", ab.ID, ab.CurrentCooldown)
	}
	if actor.AP < ab.APCost {
		return UsePlan{}, combat.Illegal(combat.ReasonInsufficientAP, "need %d AP, have %d", ab.APCost, actor.AP)
	}
	if ab.Area == nil {
		return e.checkSingle(s, actor, ab, cmd.Target)
	}
	return e.checkArea(s, actor, ab, cmd.Target)
}

func (e *Engine) checkSingle(s *battle.State, actor *unit.Unit, ab *unit.Ability, t battle.Target) (UsePlan, error) {
	id := t.UnitID
	if id == "" && t.Point != nil {
		id = s.Map.Occupant(*t.Point)
	}
	if id == "" {
		return UsePlan{}, combat.Illegal(combat.ReasonNoTarget, "%q needs a unit target", ab.ID)
	}
	target, err := lookupTarget(s, id)
	if err != nil {
		return UsePlan{}, err
	}
	if ab.Supportive() && !actor.AllyOf(target) {
		return UsePlan{}, combat.Invalid(combat.ReasonFactionRule, "%q only targets allies", ab.ID)
	}
	if _, err := s.CheckReach(actor.Position, target.Position, ab.Range); err != nil {
		return UsePlan{}, err
	}
	return UsePlan{Ability: ab, Anchor: target.Position, Targets: []*unit.Unit{target}}, nil
}

func (e *Engine) checkArea(s *battle.State, actor *unit.Unit, ab *unit.Ability, t battle.Target) (UsePlan, error) {
	var anchor grid.Point
	switch {
	case t.Point != nil:
		anchor = *t.Point
	case t.UnitID != "":
		u, err := lookupTarget(s, t.UnitID)
		if err != nil {
			return UsePlan{}, err
		}
		anchor = u.Position
	default:
		return UsePlan{}, combat.Illegal(combat.ReasonNoTarget, "%q needs an aim point", ab.ID)
	}
	if !s.Map.InBounds(anchor) {
		return UsePlan{}, combat.Illegal(combat.ReasonOutOfBounds, "%s", anchor)
	}
	if d := grid.Chebyshev(actor.Position, anchor); d > ab.Range {
		return UsePlan{}, combat.Illegal(combat.ReasonOutOfRange, "distance %d exceeds range %d", d, ab.Range)
	}
	var targets []*unit.Unit
	for _, p := range grid.Cells(s.Map, actor.Position, anchor, *ab.Area) {
		if u, ok := s.UnitAt(p); ok && u.Alive() {
			targets = append(targets, u)
		}
	}
	if len(targets) == 0 {
		return UsePlan{}, combat.Illegal(combat.ReasonNoTarget, "no units in %s %d at %s", ab.Area.Shape, ab.Area.Size, anchor)
	}
	return UsePlan{Ability: ab, Anchor: anchor, Targets: targets}, nil
}

// Use validates and resolves cmd. AP is deducted and the cooldown set before
// any target is processed; targets are processed in enumeration order.
//
// Postcondition: On error nothing changed. On success emits exactly one ability event
// per target, each followed by the healing, status, shield and death events it caused.
func (e *Engine) Use(s *battle.State, actor *unit.Unit, cmd battle.UseAbility) (UsePlan, error) {
	plan, err := e.CheckUse(s, actor, cmd)
	if err != nil {
		return UsePlan{}, err
	}
	ab := plan.Ability
	if err := actor.SpendAP(ab.APCost); err != nil {
		return UsePlan{}, combat.Illegal(combat.ReasonInsufficientAP, "%v", err)
	}
	ab.CurrentCooldown = ab.Cooldown
	for _, target := range plan.Targets {
		if err := e.applyEffect(s, actor, ab, target); err != nil {
			return plan, err
		}
	}
	return plan, nil
}

func (e *Engine) applyEffect(s *battle.State, actor *unit.Unit, ab *unit.Ability, target *unit.Unit) error {
	fx := ab.Effect
	if target.Dead {
		return nil
	}
	ev := battle.Event{Type: battle.EventAbility, ActorID: actor.ID, TargetID: target.ID, AbilityID: ab.ID, Outcome: battle.OutcomeApplied}
	var res combat.Result
	if fx.Damage > 0 || fx.Accuracy > 0 {
		cover := s.SightTo(actor.Position, target.Position).Cover
		res = combat.Resolve(actor, target, combat.EffectStrike(fx), cover, e.roller)
		ev.Outcome = outcomeOf(res)
		ev.HitChance, ev.HitRoll, ev.CritRoll = res.HitChance, res.HitRoll, res.CritRoll
		if fx.Damage > 0 {
			ev.Amount = res.Damage
		}
	}
	s.Emit(ev)
	if ev.Outcome == battle.OutcomeMiss {
		return nil
	}
	if fx.Damage > 0 {
		if s.Damage(target, res.Damage, actor.ID).Killed {
			return nil
		}
	}
	if fx.Healing > 0 {
		n := target.Heal(fx.Healing)
		s.Emit(battle.Event{Type: battle.EventHealed, ActorID: actor.ID, TargetID: target.ID, AbilityID: ab.ID, Amount: n})
	}
	if fx.Buff != nil {
		in := condition.Instance{Kind: condition.Buff, Remaining: fx.Duration, Modifier: *fx.Buff, SourceID: actor.ID}
		if err := s.ApplyStatus(target, in, ab.ID); err != nil {
			return err
		}
	}
	if fx.Debuff != nil {
		in := condition.Instance{Kind: condition.Debuff, Remaining: fx.Duration, Modifier: *fx.Debuff, SourceID: actor.ID}
		if err := s.ApplyStatus(target, in, ab.ID); err != nil {
			return err
		}
	}
	if fx.Status != "" {
		in := condition.Instance{Kind: fx.Status, Remaining: fx.Duration, Magnitude: fx.Magnitude, SourceID: actor.ID}
		if err := s.ApplyStatus(target, in, ab.ID); err != nil {
			return err
		}
	}
	return nil
}

func lookupTarget(s *battle.State, id string) (*unit.Unit, error) {
	u, ok := s.Unit(id)
	if !ok {
		return nil, combat.Invalid(combat.ReasonUnknownUnit, "%q", id)
	}
	if u.Dead {
		return nil, combat.Invalid(combat.ReasonTargetDead, "%q", id)
	}
	return u, nil
}

func outcomeOf(r combat.Result) battle.Outcome {
	switch {
	case !r.Hit:
		return battle.OutcomeMiss
	case r.Critical:
		return battle.OutcomeCritical
	default:
		return battle.OutcomeHit
	}
}
