// Package encounter implements the turn scheduler: it owns one battle, rolls
// initiative, walks each unit-turn through its phases and dispatches commands
// to the movement, attack and ability rules.
package encounter

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/ability"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

var tracer = otel.Tracer("github.com/cory-johannsen/skirmish/internal/game/encounter")

// Outcome is the terminal result of an encounter.
type Outcome string

const (
	OutcomeNone          Outcome = ""
	OutcomePlayerVictory Outcome = "player_victory"
	OutcomeEnemyVictory  Outcome = "enemy_victory"
	OutcomeDraw          Outcome = "draw"
)

// Config holds the rules tunables of one encounter.
type Config struct {
	// HazardDamage is dealt to a unit that ends its movement phase on hazardous terrain.
	HazardDamage int `json:"hazard_damage"`
	// MaxRounds ends the encounter in a draw once exceeded; 0 means unlimited.
	MaxRounds int `json:"max_rounds"`
	// Scenario names the scenario the encounter was built from, if any.
	Scenario string `json:"scenario,omitempty"`
}

// DefaultConfig returns the standard rules tunables.
func DefaultConfig() Config {
	return Config{HazardDamage: 1, MaxRounds: 50}
}

// Setup describes the battlefield an encounter starts from.
type Setup struct {
	// ID identifies the encounter; empty generates a random one.
	ID          string
	Map         *grid.Map
	Units       []*unit.Unit
	Environment []*battle.Environmental
	Conditions  *condition.Registry
	Seed        uint64
}

// Encounter is the aggregate that exclusively owns one battle.
//
// An Encounter is not safe for concurrent use.
type Encounter struct {
	id         string
	seed       uint64
	cfg        Config
	state      *battle.State
	queue      *TurnQueue
	initiative []combat.Initiative
	phase      *phaseMachine
	rng        *dice.Seeded
	engine     *ability.Engine
	outcome    Outcome
	journal    []battle.Record
	// journalBase is the number of commands accepted before a restore.
	journalBase int
	logger      *zap.Logger
}

// New validates setup, places every unit, rolls initiative in setup order and starts the first turn.
//
// Precondition: logger must not be nil.
// Postcondition: Returns an ordinary wrapped error for a bad map, a malformed unit, ability or
// equipment item, duplicate IDs, overlapping or blocked placements, or a side with no units.
// On success the first unit is in its movement phase.
func New(setup Setup, cfg Config, logger *zap.Logger) (*Encounter, error) {
	if setup.Map == nil {
		return nil, errors.New("encounter: setup has no map")
	}
	if cfg.HazardDamage < 0 || cfg.MaxRounds < 0 {
		return nil, fmt.Errorf("encounter: hazard_damage and max_rounds must be >= 0")
	}
	id := setup.ID
	if id == "" {
		id = uuid.NewString()
	}
	s := battle.NewState(setup.Map, setup.Conditions)
	sides := map[unit.Side]int{}
	for i, u := range setup.Units {
		if u == nil {
			return nil, fmt.Errorf("encounter %s: unit %d is nil", id, i)
		}
		if err := u.Prepare(); err != nil {
			return nil, fmt.Errorf("encounter %s: %w", id, err)
		}
		if err := s.AddUnit(u); err != nil {
			return nil, fmt.Errorf("encounter %s: placing %q: %w", id, u.ID, err)
		}
		if u.Alive() {
			sides[u.Side]++
		}
	}
	if sides[unit.Player] == 0 || sides[unit.Enemy] == 0 {
		return nil, fmt.Errorf("encounter %s: both sides need at least one living unit", id)
	}
	for _, env := range setup.Environment {
		s.AddEnvironment(env)
	}

	rng := dice.NewSeeded(setup.Seed)
	e := &Encounter{
		id:     id,
		seed:   setup.Seed,
		cfg:    cfg,
		state:  s,
		phase:  newPhaseMachine(PhaseAwaitingInitiative),
		rng:    rng,
		logger: logger.With(zap.String("encounter", id)),
	}
	e.wire()

	e.initiative = combat.RollInitiative(s.Units(), dice.NewLoggedRoller(rng, e.logger))
	e.queue = NewTurnQueue(e.initiative)
	e.logger.Info("encounter started",
		zap.Uint64("seed", setup.Seed),
		zap.Int("units", len(setup.Units)),
		zap.Strings("order", e.queue.Order),
	)
	if err := e.phase.fire(eventStart); err != nil {
		return nil, err
	}
	if err := e.beginTurn(); err != nil {
		return nil, err
	}
	return e, nil
}

// wire builds the collaborators that draw from the encounter's generator.
func (e *Encounter) wire() {
	e.engine = ability.NewEngine(dice.NewLoggedRoller(e.rng, e.logger))
}

// ID returns the encounter identifier.
func (e *Encounter) ID() string { return e.id }

// Seed returns the seed the generator started from.
func (e *Encounter) Seed() uint64 { return e.seed }

// Config returns the rules tunables.
func (e *Encounter) Config() Config { return e.cfg }

// State exposes the battlefield for read-only inspection.
func (e *Encounter) State() *battle.State { return e.state }

// Engine exposes the ability engine for read-only legality checks.
func (e *Encounter) Engine() *ability.Engine { return e.engine }

// Phase returns the current phase.
func (e *Encounter) Phase() Phase { return e.phase.Current() }

// Round returns the current round, starting at 1.
func (e *Encounter) Round() int { return e.queue.Round }

// Initiative returns the initiative results in turn order.
func (e *Encounter) Initiative() []combat.Initiative {
	return append([]combat.Initiative(nil), e.initiative...)
}

// Order returns the unit IDs in the queue.
func (e *Encounter) Order() []string { return append([]string(nil), e.queue.Order...) }

// Current returns the unit whose turn it is, or nil once resolved.
func (e *Encounter) Current() *unit.Unit {
	if e.Resolved() {
		return nil
	}
	u, _ := e.state.Unit(e.queue.Current())
	return u
}

// Resolved reports whether the encounter has ended.
func (e *Encounter) Resolved() bool { return e.phase.Current() == PhaseResolved }

// Outcome returns the terminal result, or OutcomeNone while running.
func (e *Encounter) Outcome() Outcome { return e.outcome }

// Events returns the full event log.
func (e *Encounter) Events() []battle.Event { return e.state.Events() }

// Journal returns the commands this instance accepted, in submission order.
func (e *Encounter) Journal() []battle.Record {
	return append([]battle.Record(nil), e.journal...)
}

// JournalLen is the total number of commands accepted over the encounter's lifetime,
// including those accepted before it was restored.
func (e *Encounter) JournalLen() int {
	return e.journalBase + len(e.journal)
}

// Submit validates cmd against the current phase and state and, if legal, resolves it to completion.
//
// Precondition: ctx must not be nil.
// Postcondition: On error the encounter is unchanged and the error is a *combat.ActionError
// (or wraps an internal failure). On success returns the events the command produced,
// including any turn transitions it triggered, and the command is appended to the journal.
func (e *Encounter) Submit(ctx context.Context, cmd battle.Command) ([]battle.Event, error) {
	_, span := tracer.Start(ctx, "encounter.submit", trace.WithAttributes(
		attribute.String("encounter.id", e.id),
		attribute.String("unit.id", cmd.Actor()),
		attribute.String("command.kind", string(cmd.Kind())),
		attribute.Int("encounter.round", e.queue.Round),
	))
	defer span.End()

	before := e.state.Seq()
	if err := e.dispatch(cmd); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Debug("command rejected",
			zap.String("unit", cmd.Actor()),
			zap.String("kind", string(cmd.Kind())),
			zap.Error(err),
		)
		return nil, err
	}
	e.journal = append(e.journal, battle.RecordOf(cmd))
	events := e.state.EventsSince(before)
	span.SetAttributes(attribute.Int("events", len(events)))
	e.logger.Debug("command accepted",
		zap.String("unit", cmd.Actor()),
		zap.String("kind", string(cmd.Kind())),
		zap.Int("events", len(events)),
	)
	return events, nil
}

// dispatch validates cmd fully before mutating anything.
func (e *Encounter) dispatch(cmd battle.Command) error {
	if e.Resolved() {
		return combat.Illegal(combat.ReasonEncounterOver, "outcome %s", e.outcome)
	}
	actor, ok := e.state.Unit(cmd.Actor())
	if !ok {
		return combat.Invalid(combat.ReasonUnknownUnit, "%q", cmd.Actor())
	}
	if actor.ID != e.queue.Current() {
		return combat.Illegal(combat.ReasonNotYourTurn, "%q acts now", e.queue.Current())
	}
	phase := e.phase.Current()

	switch c := cmd.(type) {
	case battle.Move:
		if phase != PhaseMovement {
			return combat.Illegal(combat.ReasonWrongPhase, "cannot move during %s", phase)
		}
		path, err := e.checkMove(actor, c.Destination)
		if err != nil {
			return err
		}
		return e.move(actor, path)

	case battle.Attack:
		if phase != PhaseMovement && phase != PhaseAction {
			return combat.Illegal(combat.ReasonWrongPhase, "cannot attack during %s", phase)
		}
		if _, err := e.engine.CheckAttack(e.state, actor, c); err != nil {
			return err
		}
		if done, err := e.enterAction(actor); done || err != nil {
			return err
		}
		if _, err := e.engine.Attack(e.state, actor, c); err != nil {
			return err
		}
		return e.afterAction(actor)

	case battle.UseAbility:
		if phase != PhaseMovement && phase != PhaseAction {
			return combat.Illegal(combat.ReasonWrongPhase, "cannot use abilities during %s", phase)
		}
		if _, err := e.engine.CheckUse(e.state, actor, c); err != nil {
			return err
		}
		if done, err := e.enterAction(actor); done || err != nil {
			return err
		}
		if _, err := e.engine.Use(e.state, actor, c); err != nil {
			return err
		}
		return e.afterAction(actor)

	case battle.EndMovement:
		if phase != PhaseMovement {
			return combat.Illegal(combat.ReasonWrongPhase, "movement already closed")
		}
		_, err := e.enterAction(actor)
		return err

	case battle.EndTurn:
		if phase != PhaseMovement && phase != PhaseAction {
			return combat.Illegal(combat.ReasonWrongPhase, "cannot end turn during %s", phase)
		}
		if phase == PhaseMovement {
			if done, err := e.enterAction(actor); done || err != nil {
				return err
			}
		}
		return e.finishTurn(false)
	}
	return fmt.Errorf("encounter: unsupported command %T", cmd)
}

// checkMove validates a destination and finds the cheapest affordable path.
func (e *Encounter) checkMove(actor *unit.Unit, dest grid.Point) (grid.Path, error) {
	m := e.state.Map
	switch {
	case !m.InBounds(dest):
		return grid.Path{}, combat.Illegal(combat.ReasonOutOfBounds, "%s", dest)
	case !m.Terrain(dest).Passable():
		return grid.Path{}, combat.Illegal(combat.ReasonImpassable, "%s", dest)
	case dest == actor.Position:
		return grid.Path{}, combat.Illegal(combat.ReasonUnreachable, "already at %s", dest)
	}
	if occ := m.Occupant(dest); occ != "" {
		return grid.Path{}, combat.Illegal(combat.ReasonOccupied, "%s holds %q", dest, occ)
	}
	path, ok := grid.FindPath(m, actor.Position, dest, actor.Movement, nil)
	if !ok {
		return grid.Path{}, combat.Illegal(combat.ReasonUnreachable, "%s within %.1f movement", dest, actor.Movement)
	}
	return path, nil
}

// move relocates actor along path and closes movement once no step is affordable.
func (e *Encounter) move(actor *unit.Unit, path grid.Path) error {
	dest, _ := path.Destination()
	from := actor.Position
	if err := e.state.Relocate(actor, dest); err != nil {
		return fmt.Errorf("encounter: relocating %q: %w", actor.ID, err)
	}
	actor.Movement -= path.Cost
	e.state.Emit(battle.Event{
		Type:     battle.EventMoved,
		ActorID:  actor.ID,
		Path:     append([]grid.Point{from}, path.Steps...),
		Position: &dest,
		Cost:     path.Cost,
	})
	if actor.Movement < 1 {
		_, err := e.enterAction(actor)
		return err
	}
	return nil
}

// enterAction closes the movement phase, applying hazard damage when the actor stands on
// hazardous terrain. If the hazard kills the actor the turn is finished and done is true.
func (e *Encounter) enterAction(actor *unit.Unit) (done bool, err error) {
	if e.phase.Current() != PhaseMovement {
		return false, nil
	}
	if err := e.phase.fire(eventCloseMovement); err != nil {
		return false, err
	}
	if e.state.Map.Terrain(actor.Position) == grid.Hazardous && e.cfg.HazardDamage > 0 {
		pos := actor.Position
		e.state.Emit(battle.Event{Type: battle.EventHazard, TargetID: actor.ID, Amount: e.cfg.HazardDamage, Position: &pos})
		e.state.Damage(actor, e.cfg.HazardDamage, "")
		if !actor.Alive() {
			return true, e.afterAction(actor)
		}
	}
	return false, nil
}

// afterAction ends the turn when the actor died or has no action points left,
// or resolves the encounter when a side was eliminated.
func (e *Encounter) afterAction(actor *unit.Unit) error {
	if e.checkOutcome() {
		return e.resolve()
	}
	if !actor.Alive() || actor.AP == 0 {
		return e.finishTurn(false)
	}
	return nil
}
