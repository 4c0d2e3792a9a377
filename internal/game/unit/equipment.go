package unit

import "fmt"

// WeaponTier grades a weapon's quality.
type WeaponTier string

const (
	Basic         WeaponTier = "basic"
	Advanced      WeaponTier = "advanced"
	MasterCrafted WeaponTier = "master_crafted"
)

// ArmorTier grades a suit of armor.
type ArmorTier string

const (
	Flak       ArmorTier = "flak"
	Carapace   ArmorTier = "carapace"
	PowerArmor ArmorTier = "power_armor"
)

// Weapon is an equipped attack option addressed by slot index.
type Weapon struct {
	ID             string     `json:"id" yaml:"id"`
	Name           string     `json:"name" yaml:"name"`
	Tier           WeaponTier `json:"tier" yaml:"tier"`
	Damage         int        `json:"damage" yaml:"damage"`
	Accuracy       float64    `json:"accuracy" yaml:"accuracy"`
	Range          int        `json:"range" yaml:"range"`
	ArmorPiercing  float64    `json:"armor_piercing" yaml:"armor_piercing"`
	APCost         int        `json:"ap_cost" yaml:"ap_cost"`
	CriticalChance float64    `json:"critical_chance" yaml:"critical_chance"`
	// AbilitiesGranted are added to the wielder's abilities while the weapon is equipped.
	AbilitiesGranted []Ability `json:"abilities_granted,omitempty" yaml:"abilities_granted"`
}

// Validate checks the weapon's ranges.
//
// Postcondition: Returns nil iff ID is set, the tier is known, damage, range and AP cost
// are non-negative, range >= 1, every probability lies in [0,1] and every granted ability validates.
func (w *Weapon) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("weapon: id must not be empty")
	}
	switch w.Tier {
	case Basic, Advanced, MasterCrafted:
	default:
		return fmt.Errorf("weapon %q: unknown tier %q", w.ID, w.Tier)
	}
	if w.Damage < 0 || w.APCost < 0 {
		return fmt.Errorf("weapon %q: damage and ap_cost must be >= 0", w.ID)
	}
	if w.Range < 1 {
		return fmt.Errorf("weapon %q: range must be >= 1", w.ID)
	}
	if err := checkProbability(w.Accuracy); err != nil {
		return fmt.Errorf("weapon %q: accuracy: %w", w.ID, err)
	}
	if err := checkProbability(w.ArmorPiercing); err != nil {
		return fmt.Errorf("weapon %q: armor_piercing: %w", w.ID, err)
	}
	if err := checkProbability(w.CriticalChance); err != nil {
		return fmt.Errorf("weapon %q: critical_chance: %w", w.ID, err)
	}
	for i := range w.AbilitiesGranted {
		if err := w.AbilitiesGranted[i].Validate(); err != nil {
			return fmt.Errorf("weapon %q: granted %w", w.ID, err)
		}
	}
	return nil
}

// Armor adjusts the wearer's current toughness and agility.
type Armor struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Tier           ArmorTier `json:"tier" yaml:"tier"`
	ToughnessBonus int       `json:"toughness_bonus" yaml:"toughness_bonus"`
	AgilityPenalty int       `json:"agility_penalty" yaml:"agility_penalty"`
}

// Validate checks the armor's tier and that both adjustments are non-negative.
func (a *Armor) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("armor: id must not be empty")
	}
	switch a.Tier {
	case Flak, Carapace, PowerArmor:
	default:
		return fmt.Errorf("armor %q: unknown tier %q", a.ID, a.Tier)
	}
	if a.ToughnessBonus < 0 || a.AgilityPenalty < 0 {
		return fmt.Errorf("armor %q: toughness_bonus and agility_penalty must be >= 0", a.ID)
	}
	return nil
}

func checkProbability(p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("%v not in [0,1]", p)
	}
	return nil
}
