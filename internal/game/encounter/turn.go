package encounter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// beginTurn refills the current unit and opens its movement phase. A stunned
// unit skips straight to the end phase, and so on until a unit can act.
//
// Precondition: the phase is movement.
func (e *Encounter) beginTurn() error {
	u := e.Current()
	if u == nil {
		return fmt.Errorf("encounter %s: no unit at cursor", e.id)
	}
	u.StartTurn()
	e.state.Emit(battle.Event{Type: battle.EventTurnStarted, ActorID: u.ID})
	if u.Statuses.Has(condition.Stun) {
		e.state.Emit(battle.Event{Type: battle.EventTurnSkipped, ActorID: u.ID, Detail: string(condition.Stun)})
		return e.finishTurn(true)
	}
	return nil
}

// finishTurn runs the end-phase bookkeeping for the current unit and hands the turn on.
// A skipped turn still ages the unit's statuses but not its cooldowns.
//
// Postcondition: either the encounter is resolved or the next living unit is in its movement phase.
func (e *Encounter) finishTurn(skipped bool) error {
	if err := e.phase.fire(eventEndTurn); err != nil {
		return err
	}
	u := e.Current()
	if u.Alive() {
		e.tickStatuses(u)
		if !skipped && u.Alive() {
			u.TickCooldowns()
		}
	}
	e.state.Emit(battle.Event{Type: battle.EventTurnEnded, ActorID: u.ID})

	alive := e.alive
	if e.queue.LastOfRound(alive) {
		if err := e.state.TickEnvironment(); err != nil {
			return fmt.Errorf("encounter %s: environment: %w", e.id, err)
		}
	}
	if e.checkOutcome() {
		return e.resolve()
	}

	wrapped, ok := e.queue.Advance(alive)
	if !ok {
		e.outcome = OutcomeDraw
		return e.resolve()
	}
	if wrapped {
		e.state.Round = e.queue.Round
		e.state.Emit(battle.Event{Type: battle.EventRoundAdvanced})
		e.logger.Info("round advanced", zap.Int("round", e.queue.Round))
		if e.cfg.MaxRounds > 0 && e.queue.Round > e.cfg.MaxRounds {
			e.outcome = OutcomeDraw
			return e.resolve()
		}
	}
	if err := e.phase.fire(eventNextTurn); err != nil {
		return err
	}
	return e.beginTurn()
}

// tickStatuses resolves one turn of u's statuses in application order.
func (e *Encounter) tickStatuses(u *unit.Unit) {
	for _, t := range u.Statuses.Advance() {
		in := t.Instance
		ev := battle.Event{
			Type:      battle.EventStatusTicked,
			ActorID:   in.SourceID,
			TargetID:  u.ID,
			Status:    in.Kind,
			Remaining: in.Remaining - 1,
		}
		poison := in.Kind == condition.Poison && u.Alive()
		if poison {
			ev.Amount = in.Magnitude
		}
		e.state.Emit(ev)
		if poison {
			e.state.Drain(u, in.Magnitude, in.SourceID)
		}
		if t.Expired {
			e.state.Emit(battle.Event{Type: battle.EventStatusExpired, TargetID: u.ID, Status: in.Kind})
		}
	}
	u.RecomputeStats()
}

func (e *Encounter) alive(id string) bool {
	u, ok := e.state.Unit(id)
	return ok && u.Alive()
}

// checkOutcome records the result once a side has been eliminated.
func (e *Encounter) checkOutcome() bool {
	players := len(e.state.Living(unit.Player))
	enemies := len(e.state.Living(unit.Enemy))
	switch {
	case players == 0 && enemies == 0:
		e.outcome = OutcomeDraw
	case enemies == 0:
		e.outcome = OutcomePlayerVictory
	case players == 0:
		e.outcome = OutcomeEnemyVictory
	default:
		return false
	}
	return true
}

// resolve moves the encounter to its terminal phase.
func (e *Encounter) resolve() error {
	if err := e.phase.fire(eventResolve); err != nil {
		return err
	}
	e.state.Emit(battle.Event{Type: battle.EventEncounterResolved, Detail: string(e.outcome)})
	e.logger.Info("encounter resolved",
		zap.String("outcome", string(e.outcome)),
		zap.Int("round", e.queue.Round),
	)
	return nil
}
