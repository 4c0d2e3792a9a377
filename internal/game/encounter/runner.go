package encounter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// AutoPlayer drives computer-controlled turns through Submit, exactly as a
// human client would.
type AutoPlayer struct {
	registry    *ai.Registry
	maxCommands int
	logger      *zap.Logger
}

// NewAutoPlayer creates an AutoPlayer that makes at most maxCommands decisions per turn.
//
// Precondition: registry and logger must not be nil; maxCommands >= 1.
func NewAutoPlayer(registry *ai.Registry, maxCommands int, logger *zap.Logger) *AutoPlayer {
	if maxCommands < 1 {
		maxCommands = 1
	}
	return &AutoPlayer{registry: registry, maxCommands: maxCommands, logger: logger}
}

// PlayTurn decides and submits commands for the current unit until its turn ends
// or the decision limit is reached, then ends the turn.
//
// Postcondition: the unit that held the turn on entry no longer holds it, unless the encounter
// was already resolved.
func (p *AutoPlayer) PlayTurn(ctx context.Context, e *Encounter) error {
	actor := e.Current()
	if actor == nil {
		return nil
	}
	eval, ok := p.registry.EvaluatorFor(actor.AIProfile)
	if !ok {
		p.logger.Warn("unknown ai profile, using default",
			zap.String("unit", actor.ID),
			zap.String("profile", actor.AIProfile),
		)
		eval, _ = p.registry.EvaluatorFor("")
	}
	for range p.maxCommands {
		if !p.holds(e, actor) {
			return nil
		}
		ws, err := ai.BuildWorldState(e.State(), actor.ID, e.Phase() == PhaseMovement)
		if err != nil {
			return fmt.Errorf("encounter.AutoPlayer: %w", err)
		}
		d, err := eval.Decide(ws)
		if err != nil {
			return fmt.Errorf("encounter.AutoPlayer: %w", err)
		}
		p.logger.Debug("ai decision",
			zap.String("unit", actor.ID),
			zap.String("step", d.Step.String()),
			zap.String("kind", string(d.Command.Kind())),
			zap.String("detail", d.Detail),
		)
		if _, err := e.Submit(ctx, d.Command); err != nil {
			p.logger.Warn("ai command rejected", zap.String("unit", actor.ID), zap.Error(err))
			break
		}
		if d.Step == ai.StepPass {
			return nil
		}
	}
	if !p.holds(e, actor) {
		return nil
	}
	if _, err := e.Submit(ctx, battle.EndTurn{UnitID: actor.ID}); err != nil {
		return fmt.Errorf("encounter.AutoPlayer: ending turn for %q: %w", actor.ID, err)
	}
	return nil
}

func (p *AutoPlayer) holds(e *Encounter, actor *unit.Unit) bool {
	cur := e.Current()
	return cur != nil && cur.ID == actor.ID && (e.Phase() == PhaseMovement || e.Phase() == PhaseAction)
}

// Run plays turns until the encounter resolves.
//
// Precondition: every unit is computer-controlled.
// Postcondition: e.Resolved() is true unless ctx is cancelled or a turn fails.
func (p *AutoPlayer) Run(ctx context.Context, e *Encounter) error {
	for !e.Resolved() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.PlayTurn(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
