package encounter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
)

// Replay restores snap and resubmits journal in order.
//
// Precondition: journal holds the commands accepted after snap was taken.
// Postcondition: Returns an error naming the first record that no longer applies.
func Replay(ctx context.Context, snap *Snapshot, journal []battle.Record, reg *condition.Registry, logger *zap.Logger) (*Encounter, error) {
	e, err := Restore(snap, reg, logger)
	if err != nil {
		return nil, err
	}
	for i, rec := range journal {
		cmd, err := rec.Command()
		if err != nil {
			return nil, fmt.Errorf("encounter %s: journal entry %d: %w", e.id, i, err)
		}
		if _, err := e.Submit(ctx, cmd); err != nil {
			return nil, fmt.Errorf("encounter %s: replaying entry %d (%s by %q): %w", e.id, i, rec.Kind, rec.UnitID, err)
		}
	}
	return e, nil
}
