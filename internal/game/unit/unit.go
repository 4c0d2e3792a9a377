// Package unit models combat participants: stats, equipment, abilities and statuses.
package unit

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Type is the closed set of unit archetypes.
type Type string

const (
	SpaceMarine Type = "space_marine"
	Guardsman   Type = "guardsman"
	Commissar   Type = "commissar"
	TechPriest  Type = "tech_priest"
	OrkBoy      Type = "ork_boy"
	OrkNob      Type = "ork_nob"
	Weirdboy    Type = "weirdboy"
	Cultist     Type = "cultist"
	ChaosMarine Type = "chaos_marine"
	Daemon      Type = "daemon"
)

// Faction is the lore allegiance of a unit.
type Faction string

const (
	Imperial Faction = "imperial"
	Ork      Faction = "ork"
	Chaos    Faction = "chaos"
)

// Side decides who is an ally. Units on the same side are allies.
type Side string

const (
	Player Side = "player"
	Enemy  Side = "enemy"
)

// Tier grades a unit's threat; bosses get scripted AI overrides.
type Tier string

const (
	Regular Tier = "regular"
	Elite   Tier = "elite"
	Boss    Tier = "boss"
)

// Unit is one participant in an encounter.
//
// A Unit is owned by the encounter that spawned it and is not safe for concurrent use.
type Unit struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      Type           `json:"type"`
	Faction   Faction        `json:"faction"`
	Side      Side           `json:"side"`
	Tier      Tier           `json:"tier"`
	Level     int            `json:"level"`
	Base      Stats          `json:"base_stats"`
	Current   Stats          `json:"current_stats"`
	HP        int            `json:"hp"`
	AP        int            `json:"ap"`
	Movement  float64        `json:"movement"`
	Position  grid.Point     `json:"position"`
	Abilities []Ability      `json:"abilities"`
	Weapons   []Weapon       `json:"weapons"`
	Armor     *Armor         `json:"armor,omitempty"`
	Statuses  *condition.Set `json:"statuses"`
	AIProfile string         `json:"ai_profile,omitempty"`
	Dead      bool           `json:"dead"`
}

// Alive reports whether the unit can still act and be targeted.
func (u *Unit) Alive() bool {
	return !u.Dead
}

// AllyOf reports whether o fights on the same side as u.
func (u *Unit) AllyOf(o *Unit) bool {
	return u.Side == o.Side
}

// HealthFraction returns HP / max health in [0,1].
func (u *Unit) HealthFraction() float64 {
	if u.Current.MaxHealth <= 0 {
		return 0
	}
	return float64(u.HP) / float64(u.Current.MaxHealth)
}

// RecomputeStats derives Current from Base, the worn armor and every active status.
//
// Postcondition: Current.MaxAction == MaxActionFor(Current.Agility); 0 <= AP <= Current.MaxAction;
// HP <= Current.MaxHealth.
func (u *Unit) RecomputeStats() {
	mod := condition.Modifiers(u.Statuses)
	if u.Armor != nil {
		mod.Toughness += u.Armor.ToughnessBonus
		mod.Agility -= u.Armor.AgilityPenalty
	}
	u.Current = u.Base.With(mod)
	u.AP = min(max(0, u.AP), u.Current.MaxAction)
	u.HP = min(u.HP, u.Current.MaxHealth)
}

// StartTurn refills action points and the movement budget.
//
// Postcondition: AP == Current.MaxAction; Movement == MovementFor(Current.Agility).
func (u *Unit) StartTurn() {
	u.RecomputeStats()
	u.AP = u.Current.MaxAction
	u.Movement = MovementFor(u.Current.Agility)
}

// SpendAP deducts cost from AP.
//
// Precondition: cost >= 0.
// Postcondition: Returns an error and leaves AP unchanged when AP < cost.
func (u *Unit) SpendAP(cost int) error {
	if cost > u.AP {
		return fmt.Errorf("unit %q: need %d AP, have %d", u.ID, cost, u.AP)
	}
	u.AP -= cost
	return nil
}

// TakeDamage routes dmg through the unit's shields, then subtracts the rest from HP.
//
// Precondition: dmg >= 0.
// Postcondition: dealt + absorbed == dmg; HP >= 0; killed is true iff this call took HP to zero.
func (u *Unit) TakeDamage(dmg int) (dealt, absorbed int, killed bool) {
	dealt, absorbed = u.Statuses.Absorb(dmg)
	return dealt, absorbed, u.LoseHP(dealt)
}

// LoseHP subtracts n from HP without consulting shields.
//
// Postcondition: HP >= 0; returns true iff the unit was alive and is now dead.
func (u *Unit) LoseHP(n int) bool {
	if u.Dead || n <= 0 {
		return false
	}
	u.HP = max(0, u.HP-n)
	if u.HP == 0 {
		u.Dead = true
		u.AP = 0
		return true
	}
	return false
}

// Heal restores up to n HP.
//
// Postcondition: HP <= Current.MaxHealth; returns the amount actually restored.
func (u *Unit) Heal(n int) int {
	if u.Dead || n <= 0 {
		return 0
	}
	before := u.HP
	u.HP = min(u.Current.MaxHealth, u.HP+n)
	return u.HP - before
}

// Ability returns the ability with id.
func (u *Unit) Ability(id string) (*Ability, bool) {
	for i := range u.Abilities {
		if u.Abilities[i].ID == id {
			return &u.Abilities[i], true
		}
	}
	return nil, false
}

// Weapon returns the weapon in slot.
func (u *Unit) Weapon(slot int) (*Weapon, bool) {
	if slot < 0 || slot >= len(u.Weapons) {
		return nil, false
	}
	return &u.Weapons[slot], true
}

// TickCooldowns lowers every ability's cooldown by one.
func (u *Unit) TickCooldowns() {
	for i := range u.Abilities {
		u.Abilities[i].TickCooldown()
	}
}

// EquipArmor swaps the worn armor and returns the previous piece, if any.
//
// Postcondition: Current reflects the new armor.
func (u *Unit) EquipArmor(a *Armor) *Armor {
	old := u.Armor
	u.Armor = a
	u.RecomputeStats()
	return old
}

// EquipWeapon adds w to the next free slot and returns the slot index.
//
// Postcondition: every ability w grants whose ID the unit does not already have is added
// with a ready cooldown.
func (u *Unit) EquipWeapon(w Weapon) int {
	u.Weapons = append(u.Weapons, w)
	u.grantAbilities(&u.Weapons[len(u.Weapons)-1])
	return len(u.Weapons) - 1
}

// UnequipWeapon removes and returns the weapon in slot; later slots shift down.
//
// Postcondition: abilities granted by the weapon are removed unless another equipped
// weapon with the same ID still grants them.
func (u *Unit) UnequipWeapon(slot int) (Weapon, bool) {
	if slot < 0 || slot >= len(u.Weapons) {
		return Weapon{}, false
	}
	w := u.Weapons[slot]
	u.Weapons = append(u.Weapons[:slot], u.Weapons[slot+1:]...)
	for i := range u.Weapons {
		if u.Weapons[i].ID == w.ID {
			return w, true
		}
	}
	kept := u.Abilities[:0]
	for _, a := range u.Abilities {
		if a.GrantedBy != w.ID {
			kept = append(kept, a)
		}
	}
	u.Abilities = kept
	return w, true
}

func (u *Unit) grantAbilities(w *Weapon) {
	for _, a := range w.AbilitiesGranted {
		if _, ok := u.Ability(a.ID); ok {
			continue
		}
		a.GrantedBy = w.ID
		a.CurrentCooldown = 0
		u.Abilities = append(u.Abilities, a)
	}
}

// Validate checks that the unit can take part in an encounter.
//
// Postcondition: Returns nil iff ID is set, the side is known, base max health is >= 1,
// HP and AP are non-negative, cooldowns are non-negative, ability IDs are unique, and every
// ability, weapon and armor validates; returns an error on the first violation otherwise.
func (u *Unit) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("unit: id must not be empty")
	}
	switch u.Side {
	case Player, Enemy:
	default:
		return fmt.Errorf("unit %q: unknown side %q", u.ID, u.Side)
	}
	if u.Base.MaxHealth < 1 {
		return fmt.Errorf("unit %q: max_health must be >= 1", u.ID)
	}
	if u.HP < 0 || u.AP < 0 || u.Movement < 0 {
		return fmt.Errorf("unit %q: hp, ap and movement must be >= 0", u.ID)
	}
	seen := make(map[string]bool, len(u.Abilities))
	for i := range u.Abilities {
		a := &u.Abilities[i]
		if err := a.Validate(); err != nil {
			return fmt.Errorf("unit %q: %w", u.ID, err)
		}
		if a.CurrentCooldown < 0 {
			return fmt.Errorf("unit %q: ability %q: negative cooldown", u.ID, a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("unit %q: duplicate ability %q", u.ID, a.ID)
		}
		seen[a.ID] = true
	}
	for i := range u.Weapons {
		if err := u.Weapons[i].Validate(); err != nil {
			return fmt.Errorf("unit %q: %w", u.ID, err)
		}
	}
	if u.Armor != nil {
		if err := u.Armor.Validate(); err != nil {
			return fmt.Errorf("unit %q: %w", u.ID, err)
		}
	}
	return nil
}

// Prepare makes a hand-built or decoded unit ready for an encounter: a missing status
// set is created and current stats are re-derived.
//
// Postcondition: Statuses is non-nil; Current reflects Base, armor and statuses.
func (u *Unit) Prepare() error {
	if u.Statuses == nil {
		u.Statuses = condition.NewSet()
	}
	if err := u.Validate(); err != nil {
		return err
	}
	u.RecomputeStats()
	return nil
}
