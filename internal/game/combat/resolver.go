// Package combat implements hit, damage and critical resolution for grid skirmishes.
package combat

import (
	"math"

	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// Roller is the subset of dice.Roller used by the resolver.
// Using a local interface keeps the resolver testable with scripted rolls.
type Roller interface {
	D100(purpose string) int
}

// Strike describes one damage-dealing attempt independent of its source.
type Strike struct {
	// Base is the pre-mitigation damage.
	Base int
	// Accuracy in [0,1]; ignored when AutoHit is set.
	Accuracy float64
	// AutoHit skips the hit roll entirely.
	AutoHit bool
	// CriticalChance in [0,1].
	CriticalChance float64
	// RollCritical draws the critical roll on a hit even when CriticalChance is zero.
	RollCritical  bool
	ArmorPiercing float64
}

// WeaponStrike describes an attack with w by attacker.
func WeaponStrike(attacker *unit.Unit, w *unit.Weapon) Strike {
	return Strike{
		Base:           w.Damage + attacker.Current.Strength,
		Accuracy:       w.Accuracy,
		CriticalChance: w.CriticalChance,
		RollCritical:   true,
		ArmorPiercing:  w.ArmorPiercing,
	}
}

// EffectStrike describes the damage part of an ability effect. Zero accuracy
// never misses; the critical roll is drawn only for a positive critical chance.
func EffectStrike(e unit.Effect) Strike {
	return Strike{
		Base:           e.Damage,
		Accuracy:       e.Accuracy,
		AutoHit:        e.Accuracy == 0,
		CriticalChance: e.CriticalChance,
		RollCritical:   e.CriticalChance > 0,
		ArmorPiercing:  e.ArmorPiercing,
	}
}

// Result is the outcome of one Strike against one defender.
type Result struct {
	AttackerID string
	TargetID   string
	HitChance  int
	// HitRoll is 0 when no hit roll was drawn.
	HitRoll int
	Hit     bool
	// CritRoll is 0 when no critical roll was drawn.
	CritRoll int
	Critical bool
	// Damage is the final pre-shield damage; 0 on a miss.
	Damage int
}

// Percent converts a probability to a whole percentage, rounding half away from zero.
func Percent(p float64) int {
	return int(math.Round(p * 100))
}

// HitChance computes the clamped percentage chance to hit.
//
// Postcondition: Returns clamp((attackerAgility + round(accuracy*100)) - (defenderAgility + cover*10), 0, 100).
func HitChance(attackerAgility int, accuracy float64, defenderAgility int, cover grid.Cover) int {
	v := (attackerAgility + Percent(accuracy)) - (defenderAgility + int(cover)*10)
	return min(100, max(0, v))
}

// EffectiveToughness applies armor piercing to toughness.
//
// Postcondition: Returns floor(toughness * (1 - armorPiercing)) computed in whole percent.
func EffectiveToughness(toughness int, armorPiercing float64) int {
	if armorPiercing <= 0 || toughness <= 0 {
		return toughness
	}
	return toughness * (100 - Percent(armorPiercing)) / 100
}

// RawDamage applies mitigation to base damage.
//
// Postcondition: Returns max(1, base - EffectiveToughness(toughness, armorPiercing)).
func RawDamage(base, toughness int, armorPiercing float64) int {
	return max(1, base-EffectiveToughness(toughness, armorPiercing))
}

// Resolve rolls s against defender. The hit roll is drawn before the critical roll.
//
// Precondition: attacker and defender are non-nil; r is non-nil.
// Postcondition: Result.Hit implies Result.Damage >= 1; Result.Critical implies the damage
// is exactly twice the uncritical value. No unit state is modified.
func Resolve(attacker, defender *unit.Unit, s Strike, cover grid.Cover, r Roller) Result {
	res := Result{AttackerID: attacker.ID, TargetID: defender.ID, HitChance: 100, Hit: true}
	if !s.AutoHit {
		res.HitChance = HitChance(attacker.Current.Agility, s.Accuracy, defender.Current.Agility, cover)
		res.HitRoll = r.D100("hit")
		res.Hit = res.HitRoll <= res.HitChance
	}
	if !res.Hit {
		return res
	}
	res.Damage = RawDamage(s.Base, defender.Current.Toughness, s.ArmorPiercing)
	if s.RollCritical {
		res.CritRoll = r.D100("critical")
		if res.CritRoll <= Percent(s.CriticalChance) {
			res.Critical = true
			res.Damage *= 2
		}
	}
	return res
}
