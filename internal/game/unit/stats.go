package unit

import "github.com/cory-johannsen/skirmish/internal/game/condition"

// Stats holds the attribute block of a unit.
type Stats struct {
	Strength   int `json:"strength" yaml:"strength"`
	Toughness  int `json:"toughness" yaml:"toughness"`
	Agility    int `json:"agility" yaml:"agility"`
	Intellect  int `json:"intellect" yaml:"intellect"`
	Willpower  int `json:"willpower" yaml:"willpower"`
	Fellowship int `json:"fellowship" yaml:"fellowship"`
	MaxHealth  int `json:"max_health" yaml:"max_health"`
	// MaxAction is always derived from Agility; templates never set it.
	MaxAction int `json:"max_action" yaml:"-"`
}

// MaxActionFor returns the action point ceiling for an agility score.
//
// Postcondition: Returns max(1, floor(agility/2)); negative agility counts as 0.
func MaxActionFor(agility int) int {
	return max(1, max(0, agility)/2)
}

// MovementFor returns the per-turn movement budget for an agility score.
//
// Postcondition: Returns floor(agility/2) as a float64, never negative.
func MovementFor(agility int) float64 {
	return float64(max(0, agility) / 2)
}

// With returns s adjusted by m, with MaxAction re-derived from the resulting agility.
func (s Stats) With(m condition.StatModifier) Stats {
	out := Stats{
		Strength:   s.Strength + m.Strength,
		Toughness:  s.Toughness + m.Toughness,
		Agility:    s.Agility + m.Agility,
		Intellect:  s.Intellect + m.Intellect,
		Willpower:  s.Willpower + m.Willpower,
		Fellowship: s.Fellowship + m.Fellowship,
		MaxHealth:  max(1, s.MaxHealth+m.MaxHealth),
	}
	out.MaxAction = MaxActionFor(out.Agility)
	return out
}
