package ai

import (
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// WorldState is the read-only view the evaluator decides from.
//
// Invariant: State and Self must not be nil. The evaluator never mutates either.
type WorldState struct {
	State *battle.State
	Self  *unit.Unit
	// CanMove is true while the acting unit is still in its movement phase with budget left.
	CanMove bool
}

// Enemies returns the living units opposing Self, in arena order.
func (ws *WorldState) Enemies() []*unit.Unit {
	var out []*unit.Unit
	for _, u := range ws.State.Living("") {
		if !ws.Self.AllyOf(u) {
			out = append(out, u)
		}
	}
	return out
}

// Allies returns the living units on Self's side, Self included, in arena order.
func (ws *WorldState) Allies() []*unit.Unit {
	return ws.State.Living(ws.Self.Side)
}

// NearestEnemy returns the living enemy closest to Self by Chebyshev distance, or nil.
//
// Postcondition: ties broken by arena order.
func (ws *WorldState) NearestEnemy() *unit.Unit {
	var best *unit.Unit
	bestD := 0
	for _, e := range ws.Enemies() {
		d := grid.Chebyshev(ws.Self.Position, e.Position)
		if best == nil || d < bestD {
			best, bestD = e, d
		}
	}
	return best
}

// WeakestEnemy returns the living enemy with the lowest health fraction, or nil.
//
// Postcondition: ties broken by arena order.
func (ws *WorldState) WeakestEnemy() *unit.Unit {
	var best *unit.Unit
	for _, e := range ws.Enemies() {
		if best == nil || e.HealthFraction() < best.HealthFraction() {
			best = e
		}
	}
	return best
}

// MostWoundedAlly returns the living ally (Self included) with the lowest health fraction.
//
// Postcondition: ties broken by arena order; never nil while Self is alive.
func (ws *WorldState) MostWoundedAlly() *unit.Unit {
	var best *unit.Unit
	for _, a := range ws.Allies() {
		if best == nil || a.HealthFraction() < best.HealthFraction() {
			best = a
		}
	}
	return best
}
