package ai

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

// BuildWorldState constructs the evaluator's view for the unit identified by actorID.
//
// Precondition: s must not be nil.
// Postcondition: ws.Self.ID == actorID; returns an error for an unknown or dead actor.
func BuildWorldState(s *battle.State, actorID string, canMove bool) (*WorldState, error) {
	self, ok := s.Unit(actorID)
	if !ok {
		return nil, fmt.Errorf("ai.BuildWorldState: unknown unit %q", actorID)
	}
	if self.Dead {
		return nil, fmt.Errorf("ai.BuildWorldState: unit %q is dead", actorID)
	}
	return &WorldState{State: s, Self: self, CanMove: canMove && self.Movement > 0}, nil
}
