package combat

import (
	"sort"

	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// InitiativeRoller is the subset of dice.Roller used for initiative.
type InitiativeRoller interface {
	D20(purpose string) int
}

// Initiative is one unit's initiative result.
type Initiative struct {
	UnitID string `json:"unit_id"`
	Roll   int    `json:"roll"`
	Total  int    `json:"total"`
}

// RollInitiative rolls initiative for every living unit in setup order and returns the turn order.
// Formula: d20 + current agility.
//
// Precondition: units must be non-nil; r must be non-nil.
// Postcondition: Returns one entry per living unit sorted by Total descending;
// equal totals keep setup order.
func RollInitiative(units []*unit.Unit, r InitiativeRoller) []Initiative {
	out := make([]Initiative, 0, len(units))
	for _, u := range units {
		if !u.Alive() {
			continue
		}
		roll := r.D20("initiative")
		out = append(out, Initiative{UnitID: u.ID, Roll: roll, Total: roll + u.Current.Agility})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}
