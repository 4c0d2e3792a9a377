package encounter

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// Phase is the position of the current unit-turn in the scheduler's state machine.
type Phase string

const (
	PhaseAwaitingInitiative Phase = "awaiting_initiative"
	PhaseMovement           Phase = "movement"
	PhaseAction             Phase = "action"
	PhaseEnd                Phase = "end"
	PhaseResolved           Phase = "resolved"
)

// Transition names.
const (
	eventStart         = "start"
	eventCloseMovement = "close_movement"
	eventEndTurn       = "end_turn"
	eventNextTurn      = "next_turn"
	eventResolve       = "resolve"
)

// phaseMachine wraps the fsm with the scheduler's fixed transition table.
type phaseMachine struct {
	f *fsm.FSM
}

func newPhaseMachine(initial Phase) *phaseMachine {
	live := []string{string(PhaseAwaitingInitiative), string(PhaseMovement), string(PhaseAction), string(PhaseEnd)}
	return &phaseMachine{f: fsm.NewFSM(
		string(initial),
		fsm.Events{
			{Name: eventStart, Src: []string{string(PhaseAwaitingInitiative)}, Dst: string(PhaseMovement)},
			{Name: eventCloseMovement, Src: []string{string(PhaseMovement)}, Dst: string(PhaseAction)},
			{Name: eventEndTurn, Src: []string{string(PhaseMovement), string(PhaseAction)}, Dst: string(PhaseEnd)},
			{Name: eventNextTurn, Src: []string{string(PhaseEnd)}, Dst: string(PhaseMovement)},
			{Name: eventResolve, Src: live, Dst: string(PhaseResolved)},
		},
		fsm.Callbacks{},
	)}
}

// Current returns the active phase.
func (p *phaseMachine) Current() Phase { return Phase(p.f.Current()) }

// fire performs the named transition.
//
// Postcondition: Returns an error and leaves the phase unchanged when the transition is not allowed.
func (p *phaseMachine) fire(event string) error {
	if err := p.f.Event(context.Background(), event); err != nil {
		return fmt.Errorf("phase %s: %s: %w", p.Current(), event, err)
	}
	return nil
}
