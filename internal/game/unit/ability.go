package unit

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// AbilityType is the family an ability belongs to.
type AbilityType string

const (
	RangedAttack  AbilityType = "ranged"
	MeleeAttack   AbilityType = "melee"
	PsychicBlast  AbilityType = "psychic"
	Healing       AbilityType = "heal"
	BuffAbility   AbilityType = "buff"
	DebuffAbility AbilityType = "debuff"
	Summon        AbilityType = "summon"
	Special       AbilityType = "special"
)

// Effect is the payload an ability applies to each target.
type Effect struct {
	Damage         int                     `json:"damage,omitempty" yaml:"damage"`
	Accuracy       float64                 `json:"accuracy,omitempty" yaml:"accuracy"` // 0 = never misses
	CriticalChance float64                 `json:"critical_chance,omitempty" yaml:"critical_chance"`
	ArmorPiercing  float64                 `json:"armor_piercing,omitempty" yaml:"armor_piercing"`
	Healing        int                     `json:"healing,omitempty" yaml:"healing"`
	Buff           *condition.StatModifier `json:"buff,omitempty" yaml:"buff"`
	Debuff         *condition.StatModifier `json:"debuff,omitempty" yaml:"debuff"`
	Status         condition.Kind          `json:"status,omitempty" yaml:"status"`
	Magnitude      int                     `json:"magnitude,omitempty" yaml:"magnitude"`
	Duration       int                     `json:"duration,omitempty" yaml:"duration"`
}

// Ability is a named action with an AP cost and a cooldown.
type Ability struct {
	ID              string      `json:"id" yaml:"id"`
	Name            string      `json:"name" yaml:"name"`
	Description     string      `json:"description,omitempty" yaml:"description"`
	Type            AbilityType `json:"type" yaml:"type"`
	APCost          int         `json:"ap_cost" yaml:"ap_cost"`
	Cooldown        int         `json:"cooldown" yaml:"cooldown"`
	CurrentCooldown int         `json:"current_cooldown" yaml:"-"`
	Range           int         `json:"range" yaml:"range"`
	Area            *grid.Area  `json:"area,omitempty" yaml:"area"`
	Effect          Effect      `json:"effect" yaml:"effect"`
	// GrantedBy is the ID of the weapon that grants the ability; empty for innate abilities.
	GrantedBy string `json:"granted_by,omitempty" yaml:"-"`
}

// Ready reports whether the ability is off cooldown.
func (a *Ability) Ready() bool {
	return a.CurrentCooldown == 0
}

// TickCooldown lowers the current cooldown by one, floored at zero.
//
// Postcondition: CurrentCooldown >= 0.
func (a *Ability) TickCooldown() {
	if a.CurrentCooldown > 0 {
		a.CurrentCooldown--
	}
}

// Supportive reports whether the ability targets allies.
func (a *Ability) Supportive() bool {
	return a.Type == Healing || a.Type == BuffAbility
}

// Validate checks the ability's numeric ranges and closed-set fields.
//
// Postcondition: Returns nil iff the type is known, costs and range are non-negative,
// probabilities lie in [0,1], the area (if any) is well formed, and any status or
// stat modifier carries a positive duration.
func (a *Ability) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("ability: id must not be empty")
	}
	switch a.Type {
	case RangedAttack, MeleeAttack, PsychicBlast, Healing, BuffAbility, DebuffAbility, Summon, Special:
	default:
		return fmt.Errorf("ability %q: unknown type %q", a.ID, a.Type)
	}
	if a.APCost < 0 || a.Cooldown < 0 || a.Range < 0 {
		return fmt.Errorf("ability %q: ap_cost, cooldown and range must be >= 0", a.ID)
	}
	if a.Area != nil {
		if err := a.Area.Validate(); err != nil {
			return fmt.Errorf("ability %q: %w", a.ID, err)
		}
	}
	e := a.Effect
	if e.Damage < 0 || e.Healing < 0 || e.Magnitude < 0 {
		return fmt.Errorf("ability %q: damage, healing and magnitude must be >= 0", a.ID)
	}
	for name, p := range map[string]float64{"accuracy": e.Accuracy, "critical_chance": e.CriticalChance, "armor_piercing": e.ArmorPiercing} {
		if err := checkProbability(p); err != nil {
			return fmt.Errorf("ability %q: %s: %w", a.ID, name, err)
		}
	}
	if e.Status != "" {
		if _, err := condition.ParseKind(string(e.Status)); err != nil {
			return fmt.Errorf("ability %q: %w", a.ID, err)
		}
	}
	if (e.Status != "" || e.Buff != nil || e.Debuff != nil) && e.Duration <= 0 {
		return fmt.Errorf("ability %q: status and modifier effects need duration >= 1", a.ID)
	}
	return nil
}
