package ai

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/skirmish/internal/game/ability"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// ScriptCaller is the interface required by the Evaluator to evaluate Lua preconditions.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// Step is one stage of the decision pipeline. The set is closed.
type Step int

const (
	StepBossOverride Step = iota
	StepSupport
	StepAttack
	StepAdvance
	StepTakeCover
	StepPass
)

// Pipeline is the fixed evaluation order.
var Pipeline = []Step{StepBossOverride, StepSupport, StepAttack, StepAdvance, StepTakeCover, StepPass}

// String returns the lowercase step name.
func (s Step) String() string {
	switch s {
	case StepBossOverride:
		return "boss_override"
	case StepSupport:
		return "support"
	case StepAttack:
		return "attack"
	case StepAdvance:
		return "advance"
	case StepTakeCover:
		return "take_cover"
	case StepPass:
		return "pass"
	default:
		return "unknown"
	}
}

// Settings are the configured defaults a profile may override.
type Settings struct {
	SupportRadius     int
	LowHealthFraction float64
}

// Decision is the single command chosen by one evaluation.
type Decision struct {
	Step    Step
	Command battle.Command
	// Detail names the override, ability or weapon behind the choice.
	Detail string
}

// Evaluator produces one command per invocation for units using its profile.
//
// Invariant: profile, engine and caller must not be nil.
type Evaluator struct {
	profile  *Profile
	settings Settings
	engine   *ability.Engine
	caller   ScriptCaller
	scope    string
}

// NewEvaluator constructs an Evaluator. The engine is used only for its read-only checks.
//
// Precondition: profile, engine and caller must not be nil.
func NewEvaluator(profile *Profile, settings Settings, engine *ability.Engine, caller ScriptCaller, scope string) *Evaluator {
	if profile == nil {
		panic("ai.NewEvaluator: profile must not be nil")
	}
	if engine == nil {
		panic("ai.NewEvaluator: engine must not be nil")
	}
	if caller == nil {
		panic("ai.NewEvaluator: caller must not be nil")
	}
	if profile.SupportRadius > 0 {
		settings.SupportRadius = profile.SupportRadius
	}
	if profile.LowHealthFraction > 0 {
		settings.LowHealthFraction = profile.LowHealthFraction
	}
	return &Evaluator{profile: profile, settings: settings, engine: engine, caller: caller, scope: scope}
}

// Profile returns the evaluator's profile.
func (e *Evaluator) Profile() *Profile { return e.profile }

// Decide walks the pipeline and returns the first applicable command.
//
// Precondition: ws, ws.State and ws.Self must not be nil.
// Postcondition: returns exactly one command for ws.Self; never mutates ws. Lua failures
// are treated as precondition-false.
func (e *Evaluator) Decide(ws *WorldState) (Decision, error) {
	if ws == nil || ws.State == nil || ws.Self == nil {
		return Decision{}, fmt.Errorf("ai.Evaluator.Decide: state and self must not be nil")
	}
	for _, step := range Pipeline {
		var (
			d  Decision
			ok bool
		)
		switch step {
		case StepBossOverride:
			d, ok = e.bossOverride(ws)
		case StepSupport:
			d, ok = e.support(ws)
		case StepAttack:
			d, ok = e.attack(ws)
		case StepAdvance:
			d, ok = e.advance(ws)
		case StepTakeCover:
			d, ok = e.takeCover(ws)
		case StepPass:
			d, ok = Decision{Command: battle.EndTurn{UnitID: ws.Self.ID}}, true
		}
		if ok {
			d.Step = step
			return d, nil
		}
	}
	return Decision{}, fmt.Errorf("ai.Evaluator.Decide: no step applied for %q", ws.Self.ID)
}

func (e *Evaluator) bossOverride(ws *WorldState) (Decision, bool) {
	if ws.Self.Tier != unit.Boss {
		return Decision{}, false
	}
	for _, o := range e.profile.Overrides {
		if o.HealthBelow > 0 && ws.Self.HealthFraction() >= o.HealthBelow {
			continue
		}
		target := e.selectTarget(ws, o.Target)
		if target == nil {
			continue
		}
		cmd := battle.UseAbility{UnitID: ws.Self.ID, AbilityID: o.Ability, Target: battle.UnitTarget(target.ID)}
		if _, err := e.engine.CheckUse(ws.State, ws.Self, cmd); err != nil {
			continue
		}
		if o.Precondition != "" {
			val, _ := e.caller.CallHook(e.scope, o.Precondition, lua.LString(ws.Self.ID))
			if val != lua.LTrue {
				continue
			}
		}
		return Decision{Command: cmd, Detail: o.ID}, true
	}
	return Decision{}, false
}

func (e *Evaluator) selectTarget(ws *WorldState, selector string) *unit.Unit {
	switch selector {
	case TargetSelf:
		return ws.Self
	case TargetNearestEnemy:
		return ws.NearestEnemy()
	case TargetWeakestEnemy:
		return ws.WeakestEnemy()
	case TargetMostWoundedAlly:
		return ws.MostWoundedAlly()
	}
	return nil
}

func (e *Evaluator) support(ws *WorldState) (Decision, bool) {
	var patient *unit.Unit
	for _, a := range ws.Allies() {
		if grid.Chebyshev(ws.Self.Position, a.Position) > e.settings.SupportRadius {
			continue
		}
		if a.HealthFraction() >= e.settings.LowHealthFraction {
			continue
		}
		if patient == nil || a.HealthFraction() < patient.HealthFraction() {
			patient = a
		}
	}
	if patient == nil {
		return Decision{}, false
	}
	// Heals are preferred over buffs; within a type, declaration order wins.
	for _, want := range []unit.AbilityType{unit.Healing, unit.BuffAbility} {
		for i := range ws.Self.Abilities {
			ab := &ws.Self.Abilities[i]
			if ab.Type != want {
				continue
			}
			cmd := battle.UseAbility{UnitID: ws.Self.ID, AbilityID: ab.ID, Target: battle.UnitTarget(patient.ID)}
			if _, err := e.engine.CheckUse(ws.State, ws.Self, cmd); err == nil {
				return Decision{Command: cmd, Detail: ab.ID}, true
			}
		}
	}
	return Decision{}, false
}

// attackOption is the best command available against one enemy.
type attackOption struct {
	target *unit.Unit
	cmd    battle.Command
	detail string
}

func (e *Evaluator) attack(ws *WorldState) (Decision, bool) {
	var best *attackOption
	for _, enemy := range ws.Enemies() {
		opt, ok := e.bestOptionAgainst(ws, enemy)
		if !ok {
			continue
		}
		if best == nil || weaker(enemy, best.target) {
			best = &opt
		}
	}
	if best == nil {
		return Decision{}, false
	}
	return Decision{Command: best.cmd, Detail: best.detail}, true
}

// weaker orders enemies by current toughness, then HP.
func weaker(a, b *unit.Unit) bool {
	if a.Current.Toughness != b.Current.Toughness {
		return a.Current.Toughness < b.Current.Toughness
	}
	return a.HP < b.HP
}

func (e *Evaluator) bestOptionAgainst(ws *WorldState, enemy *unit.Unit) (attackOption, bool) {
	var (
		bestAbility *unit.Ability
		bestCmd     battle.Command
	)
	for i := range ws.Self.Abilities {
		ab := &ws.Self.Abilities[i]
		if ab.Effect.Damage <= 0 || ab.Supportive() {
			continue
		}
		cmd := battle.UseAbility{UnitID: ws.Self.ID, AbilityID: ab.ID, Target: battle.UnitTarget(enemy.ID)}
		plan, err := e.engine.CheckUse(ws.State, ws.Self, cmd)
		if err != nil || hitsAlly(ws.Self, plan.Targets) {
			continue
		}
		if bestAbility == nil || ab.Effect.Damage > bestAbility.Effect.Damage {
			bestAbility, bestCmd = ab, cmd
		}
	}
	if bestAbility != nil {
		return attackOption{target: enemy, cmd: bestCmd, detail: bestAbility.ID}, true
	}
	for slot := range ws.Self.Weapons {
		cmd := battle.Attack{UnitID: ws.Self.ID, TargetID: enemy.ID, WeaponSlot: slot}
		if _, err := e.engine.CheckAttack(ws.State, ws.Self, cmd); err == nil {
			return attackOption{target: enemy, cmd: cmd, detail: ws.Self.Weapons[slot].ID}, true
		}
	}
	return attackOption{}, false
}

func hitsAlly(self *unit.Unit, targets []*unit.Unit) bool {
	for _, t := range targets {
		if self.AllyOf(t) {
			return true
		}
	}
	return false
}

func (e *Evaluator) advance(ws *WorldState) (Decision, bool) {
	if !ws.CanMove {
		return Decision{}, false
	}
	nearest := ws.NearestEnemy()
	if nearest == nil {
		return Decision{}, false
	}
	bestD := grid.Chebyshev(ws.Self.Position, nearest.Position)
	var (
		dest  grid.Point
		found bool
		cost  float64
	)
	for _, r := range grid.Reachable(ws.State.Map, ws.Self.Position, ws.Self.Movement, nil) {
		d := grid.Chebyshev(r.Point, nearest.Position)
		if d < bestD || (found && d == bestD && r.Cost < cost) {
			dest, bestD, cost, found = r.Point, d, r.Cost, true
		}
	}
	if !found {
		return Decision{}, false
	}
	return Decision{Command: battle.Move{UnitID: ws.Self.ID, Destination: dest}, Detail: nearest.ID}, true
}

func (e *Evaluator) takeCover(ws *WorldState) (Decision, bool) {
	if !ws.CanMove || ws.State.Map.Terrain(ws.Self.Position).Cover() != grid.CoverNone {
		return Decision{}, false
	}
	var (
		dest  grid.Point
		cover grid.Cover
	)
	for _, r := range grid.Reachable(ws.State.Map, ws.Self.Position, ws.Self.Movement, nil) {
		if grid.Chebyshev(ws.Self.Position, r.Point) != 1 {
			continue
		}
		if c := ws.State.Map.Terrain(r.Point).Cover(); c > cover {
			dest, cover = r.Point, c
		}
	}
	if cover == grid.CoverNone {
		return Decision{}, false
	}
	return Decision{Command: battle.Move{UnitID: ws.Self.ID, Destination: dest}}, true
}
