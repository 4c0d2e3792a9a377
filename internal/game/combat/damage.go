package combat

import "github.com/cory-johannsen/skirmish/internal/game/unit"

// Damage is what a unit actually suffered from one application of damage.
type Damage struct {
	Dealt    int
	Absorbed int
	Killed   bool
}

// ApplyDamage routes amount through target's shields into its HP.
//
// Precondition: amount >= 0.
// Postcondition: Dealt + Absorbed == amount; Killed is true iff target died from this call.
// The caller must release the dead unit's cell.
func ApplyDamage(target *unit.Unit, amount int) Damage {
	dealt, absorbed, killed := target.TakeDamage(amount)
	return Damage{Dealt: dealt, Absorbed: absorbed, Killed: killed}
}
