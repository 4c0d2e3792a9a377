package encounter

import (
	"github.com/cory-johannsen/skirmish/internal/game/combat"
)

// TurnQueue is the initiative-ordered rotation of unit IDs.
//
// Invariant: Round >= 1; 0 <= Cursor < len(Order) whenever Order is non-empty.
// Dead units stay in Order until the round in which they died completes.
type TurnQueue struct {
	Order  []string `json:"order"`
	Cursor int      `json:"cursor"`
	Round  int      `json:"round"`
}

// NewTurnQueue builds a queue in initiative order at round 1.
func NewTurnQueue(order []combat.Initiative) *TurnQueue {
	q := &TurnQueue{Order: make([]string, 0, len(order)), Round: 1}
	for _, in := range order {
		q.Order = append(q.Order, in.UnitID)
	}
	return q
}

// Current returns the unit ID at the cursor, or "" for an empty queue.
func (q *TurnQueue) Current() string {
	if len(q.Order) == 0 {
		return ""
	}
	return q.Order[q.Cursor]
}

// LastOfRound reports whether no living unit follows the cursor in this round.
func (q *TurnQueue) LastOfRound(alive func(id string) bool) bool {
	for _, id := range q.Order[q.Cursor+1:] {
		if alive(id) {
			return false
		}
	}
	return true
}

// Advance moves the cursor to the next living unit. Passing the end of the
// order completes the round: dead units are pruned and Round increments.
//
// Postcondition: ok is false iff no living unit remains; wrapped is true iff a round completed.
func (q *TurnQueue) Advance(alive func(id string) bool) (wrapped, ok bool) {
	for range 2*len(q.Order) + 1 {
		q.Cursor++
		if q.Cursor >= len(q.Order) {
			q.prune(alive)
			q.Cursor = 0
			q.Round++
			wrapped = true
			if len(q.Order) == 0 {
				return wrapped, false
			}
		}
		if alive(q.Order[q.Cursor]) {
			return wrapped, true
		}
	}
	return wrapped, false
}

func (q *TurnQueue) prune(alive func(id string) bool) {
	kept := q.Order[:0]
	for _, id := range q.Order {
		if alive(id) {
			kept = append(kept, id)
		}
	}
	q.Order = kept
}
