package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// scripted returns D100 values from a fixed list and records each purpose.
type scripted struct {
	rolls    []int
	purposes []string
}

func (s *scripted) D100(purpose string) int {
	s.purposes = append(s.purposes, purpose)
	v := s.rolls[0]
	s.rolls = s.rolls[1:]
	return v
}

func (s *scripted) D20(purpose string) int { return s.D100(purpose) }

func fighter(id string, str, tough, agi int, armor *unit.Armor) *unit.Unit {
	tmpl := &unit.Template{
		ID: id, Name: id, Type: unit.Guardsman, Faction: unit.Imperial, Level: 1,
		Stats: unit.Stats{Strength: str, Toughness: tough, Agility: agi, MaxHealth: 20},
		Armor: armor,
	}
	return tmpl.Spawn(id, unit.Player, grid.Point{})
}

func TestHitChance_Scenario85(t *testing.T) {
	att := fighter("a", 0, 0, 3, nil)
	def := fighter("d", 0, 0, 3, nil)
	w := &unit.Weapon{ID: "w", Damage: 10, Accuracy: 0.85, Range: 5, APCost: 1}
	assert.Equal(t, 85, combat.HitChance(3, 0.85, 3, grid.CoverNone))

	r := &scripted{rolls: []int{85, 100}}
	res := combat.Resolve(att, def, combat.WeaponStrike(att, w), grid.CoverNone, r)
	assert.True(t, res.Hit, "roll == hit chance hits")

	r = &scripted{rolls: []int{86}}
	res = combat.Resolve(att, def, combat.WeaponStrike(att, w), grid.CoverNone, r)
	assert.False(t, res.Hit)
	assert.Equal(t, 0, res.Damage)
	assert.Equal(t, []string{"hit"}, r.purposes, "a miss draws no critical roll")
}

func TestHitChance_CoverAndClamp(t *testing.T) {
	assert.Equal(t, 75, combat.HitChance(3, 0.85, 3, grid.CoverHalf))
	assert.Equal(t, 65, combat.HitChance(3, 0.85, 3, grid.CoverFull))
	assert.Equal(t, 0, combat.HitChance(0, 0.1, 50, grid.CoverFull))
	assert.Equal(t, 100, combat.HitChance(50, 1, 0, grid.CoverNone))
}

func TestHitChance_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(-10, 200).Draw(rt, "a")
		d := rapid.IntRange(-10, 200).Draw(rt, "d")
		acc := rapid.Float64Range(0, 1).Draw(rt, "acc")
		c := grid.Cover(rapid.IntRange(0, 2).Draw(rt, "cover"))
		hc := combat.HitChance(a, acc, d, c)
		assert.GreaterOrEqual(rt, hc, 0)
		assert.LessOrEqual(rt, hc, 100)
	})
}

func TestRawDamage_ArmorPiercingScenario(t *testing.T) {
	armor := &unit.Armor{ID: "flak", Tier: unit.Flak, ToughnessBonus: 3}
	att := fighter("a", 5, 0, 3, nil)
	def := fighter("d", 0, 5, 3, armor)
	require.Equal(t, 8, def.Current.Toughness)
	w := &unit.Weapon{ID: "w", Damage: 4, Accuracy: 1, Range: 5, APCost: 1, ArmorPiercing: 0.2}

	assert.Equal(t, 6, combat.EffectiveToughness(8, 0.2))
	assert.Equal(t, 3, combat.RawDamage(9, 8, 0.2))

	r := &scripted{rolls: []int{1, 100}}
	res := combat.Resolve(att, def, combat.WeaponStrike(att, w), grid.CoverNone, r)
	assert.True(t, res.Hit)
	assert.False(t, res.Critical)
	assert.Equal(t, 3, res.Damage)
}

func TestResolve_CriticalDoubles(t *testing.T) {
	att := fighter("a", 5, 0, 3, nil)
	def := fighter("d", 0, 2, 3, nil)
	w := &unit.Weapon{ID: "w", Damage: 4, Accuracy: 1, Range: 5, APCost: 1, CriticalChance: 0.1}
	r := &scripted{rolls: []int{50, 10}}
	res := combat.Resolve(att, def, combat.WeaponStrike(att, w), grid.CoverNone, r)
	assert.True(t, res.Critical, "crit roll == threshold crits")
	assert.Equal(t, 14, res.Damage)
	assert.Equal(t, []string{"hit", "critical"}, r.purposes)

	r = &scripted{rolls: []int{50, 11}}
	res = combat.Resolve(att, def, combat.WeaponStrike(att, w), grid.CoverNone, r)
	assert.False(t, res.Critical)
	assert.Equal(t, 7, res.Damage)
}

// TestResolve_Property checks that hits deal at least 1, crits exactly double the
// uncritical damage, and misses deal nothing.
func TestResolve_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		att := fighter("a", rapid.IntRange(0, 10).Draw(rt, "str"), 0, rapid.IntRange(0, 10).Draw(rt, "aagi"), nil)
		def := fighter("d", 0, rapid.IntRange(0, 15).Draw(rt, "tough"), rapid.IntRange(0, 10).Draw(rt, "dagi"), nil)
		w := &unit.Weapon{
			ID: "w", Range: 1,
			Damage:         rapid.IntRange(0, 12).Draw(rt, "dmg"),
			Accuracy:       rapid.Float64Range(0, 1).Draw(rt, "acc"),
			ArmorPiercing:  rapid.Float64Range(0, 1).Draw(rt, "ap"),
			CriticalChance: rapid.Float64Range(0, 1).Draw(rt, "crit"),
		}
		hit := rapid.IntRange(1, 100).Draw(rt, "hitRoll")
		crit := rapid.IntRange(1, 100).Draw(rt, "critRoll")
		s := combat.WeaponStrike(att, w)
		res := combat.Resolve(att, def, s, grid.CoverNone, &scripted{rolls: []int{hit, crit}})
		if !res.Hit {
			assert.Equal(rt, 0, res.Damage)
			return
		}
		raw := combat.RawDamage(s.Base, def.Current.Toughness, w.ArmorPiercing)
		assert.GreaterOrEqual(rt, res.Damage, 1)
		if res.Critical {
			assert.Equal(rt, raw*2, res.Damage)
		} else {
			assert.Equal(rt, raw, res.Damage)
		}
	})
}

func TestEffectStrike_AutoHitWithoutCritRoll(t *testing.T) {
	att := fighter("a", 9, 0, 3, nil)
	def := fighter("d", 0, 1, 3, nil)
	r := &scripted{}
	res := combat.Resolve(att, def, combat.EffectStrike(unit.Effect{Damage: 3}), grid.CoverFull, r)
	assert.True(t, res.Hit)
	assert.Equal(t, 2, res.Damage, "ability damage has no strength bonus")
	assert.Empty(t, r.purposes, "no rolls drawn")
}

func TestEffectStrike_AccuracyRolls(t *testing.T) {
	att := fighter("a", 0, 0, 0, nil)
	def := fighter("d", 0, 0, 0, nil)
	r := &scripted{rolls: []int{60}}
	res := combat.Resolve(att, def, combat.EffectStrike(unit.Effect{Damage: 3, Accuracy: 0.5}), grid.CoverNone, r)
	assert.False(t, res.Hit)
	assert.Equal(t, 50, res.HitChance)
}

func TestApplyDamage_Shielded(t *testing.T) {
	def := fighter("d", 0, 0, 0, nil)
	_, _, err := def.Statuses.Apply(nil, condition.Instance{Kind: condition.Shield, Remaining: 1, Magnitude: 3})
	require.NoError(t, err)
	d := combat.ApplyDamage(def, 5)
	assert.Equal(t, combat.Damage{Dealt: 2, Absorbed: 3}, d)
	d = combat.ApplyDamage(def, 100)
	assert.True(t, d.Killed)
	assert.True(t, def.Dead)
}

func TestRollInitiative_SortedStable(t *testing.T) {
	a := fighter("a", 0, 0, 2, nil)
	b := fighter("b", 0, 0, 4, nil)
	c := fighter("c", 0, 0, 2, nil)
	dead := fighter("x", 0, 0, 9, nil)
	dead.Dead = true
	r := &scripted{rolls: []int{10, 8, 10}}
	order := combat.RollInitiative([]*unit.Unit{a, b, c, dead}, r)
	require.Len(t, order, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{order[0].UnitID, order[1].UnitID, order[2].UnitID},
		"12, 12, 12 keeps setup order")
	assert.Equal(t, 12, order[0].Total)
}
