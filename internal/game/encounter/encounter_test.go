package encounter_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

var (
	sureShot = unit.Weapon{ID: "sure", Name: "Sure Shot", Tier: unit.Basic, Damage: 3, Accuracy: 1, Range: 10, APCost: 1}
	grenade  = unit.Ability{
		ID: "grenade", Name: "Grenade", Type: unit.RangedAttack, APCost: 1, Cooldown: 2, Range: 6,
		Area: &grid.Area{Shape: grid.ShapeCircle, Size: 1}, Effect: unit.Effect{Damage: 4},
	}
)

func newUnit(id string, side unit.Side, p grid.Point, agility int) *unit.Unit {
	tmpl := &unit.Template{
		ID: id, Name: id, Type: unit.Guardsman, Faction: unit.Imperial, Level: 1,
		Stats:     unit.Stats{Strength: 1, Toughness: 0, Agility: agility, MaxHealth: 10},
		Weapons:   []unit.Weapon{sureShot},
		Abilities: []unit.Ability{grenade},
	}
	return tmpl.Spawn(id, side, p)
}

type tb interface {
	require.TestingT
	Helper()
}

func newEncounter(t tb, logger *zap.Logger, rows []string, cfg encounter.Config, units ...*unit.Unit) *encounter.Encounter {
	t.Helper()
	m, err := grid.ParseRows(rows)
	require.NoError(t, err)
	e, err := encounter.New(encounter.Setup{ID: "test", Map: m, Units: units, Seed: 42}, cfg, logger)
	require.NoError(t, err)
	return e
}

var field = []string{
	".......",
	"^.....^",
	".......",
}

// duel returns a started encounter and its two units, current actor first.
func duel(t *testing.T, cfg encounter.Config, agility int) (*encounter.Encounter, *unit.Unit, *unit.Unit) {
	t.Helper()
	p := newUnit("p", unit.Player, grid.Point{X: 1, Y: 1}, agility)
	x := newUnit("x", unit.Enemy, grid.Point{X: 5, Y: 1}, agility)
	e := newEncounter(t, zaptest.NewLogger(t), field, cfg, p, x)
	if e.Current().ID == "p" {
		return e, p, x
	}
	return e, x, p
}

func eventTypes(evs []battle.Event) []battle.EventType {
	out := make([]battle.EventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func TestNew_RejectsBadSetup(t *testing.T) {
	m, err := grid.ParseRows(field)
	require.NoError(t, err)
	logger := zaptest.NewLogger(t)

	_, err = encounter.New(encounter.Setup{Map: m, Units: []*unit.Unit{newUnit("p", unit.Player, grid.Point{X: 1, Y: 1}, 4)}}, encounter.DefaultConfig(), logger)
	assert.Error(t, err, "one side only")

	m, _ = grid.ParseRows(field)
	_, err = encounter.New(encounter.Setup{Map: m, Units: []*unit.Unit{
		newUnit("p", unit.Player, grid.Point{X: 1, Y: 1}, 4),
		newUnit("x", unit.Enemy, grid.Point{X: 1, Y: 1}, 4),
	}}, encounter.DefaultConfig(), logger)
	assert.ErrorIs(t, err, grid.ErrOccupied)

	_, err = encounter.New(encounter.Setup{}, encounter.DefaultConfig(), logger)
	assert.Error(t, err)
}

func TestNew_StartsFirstTurn(t *testing.T) {
	e, first, _ := duel(t, encounter.DefaultConfig(), 4)
	assert.NotEmpty(t, e.ID())
	assert.Equal(t, encounter.PhaseMovement, e.Phase())
	assert.Equal(t, 1, e.Round())
	require.Len(t, e.Initiative(), 2)
	assert.GreaterOrEqual(t, e.Initiative()[0].Total, e.Initiative()[1].Total)
	assert.Equal(t, e.Initiative()[0].UnitID, first.ID)
	evs := e.Events()
	require.NotEmpty(t, evs)
	assert.Equal(t, battle.EventTurnStarted, evs[len(evs)-1].Type)
	assert.Equal(t, first.ID, evs[len(evs)-1].ActorID)
}

func TestSubmit_NotYourTurn(t *testing.T) {
	e, _, second := duel(t, encounter.DefaultConfig(), 4)
	before := e.State().Seq()
	_, err := e.Submit(context.Background(), battle.EndTurn{UnitID: second.ID})
	require.ErrorIs(t, err, combat.ErrIllegalAction)
	reason, _ := combat.ReasonOf(err)
	assert.Equal(t, combat.ReasonNotYourTurn, reason)
	assert.Equal(t, before, e.State().Seq())
	assert.Empty(t, e.Journal())

	_, err = e.Submit(context.Background(), battle.EndTurn{UnitID: "ghost"})
	require.ErrorIs(t, err, combat.ErrInvalidTarget)
}

func TestSubmit_GuardsmanCannotMoveTwoTiles(t *testing.T) {
	e, first, _ := duel(t, encounter.DefaultConfig(), 3)
	require.InDelta(t, 1.0, first.Movement, 1e-9)
	start := first.Position
	dx := 1
	if start.X > 3 {
		dx = -1
	}
	_, err := e.Submit(context.Background(), battle.Move{UnitID: first.ID, Destination: grid.Point{X: start.X + 2*dx, Y: start.Y}})
	reason, _ := combat.ReasonOf(err)
	require.Equal(t, combat.ReasonUnreachable, reason)
	assert.Equal(t, start, first.Position)

	evs, err := e.Submit(context.Background(), battle.Move{UnitID: first.ID, Destination: grid.Point{X: start.X + dx, Y: start.Y}})
	require.NoError(t, err)
	assert.Equal(t, battle.EventMoved, evs[0].Type)
	assert.InDelta(t, 1.0, evs[0].Cost, 1e-9)
	assert.InDelta(t, 0.0, first.Movement, 1e-9)
	assert.Equal(t, encounter.PhaseAction, e.Phase(), "exhausted budget closes movement")
	assert.Equal(t, first.ID, e.State().Map.Occupant(first.Position))
	assert.Empty(t, e.State().Map.Occupant(start))
}

func TestSubmit_MoveRejections(t *testing.T) {
	e, first, second := duel(t, encounter.DefaultConfig(), 6)
	ctx := context.Background()
	cases := []struct {
		dest   grid.Point
		reason combat.Reason
	}{
		{grid.Point{X: -1, Y: 0}, combat.ReasonOutOfBounds},
		{second.Position, combat.ReasonOccupied},
		{first.Position, combat.ReasonUnreachable},
	}
	for _, c := range cases {
		_, err := e.Submit(ctx, battle.Move{UnitID: first.ID, Destination: c.dest})
		reason, _ := combat.ReasonOf(err)
		assert.Equal(t, c.reason, reason, "dest %s", c.dest)
	}

	_, err := e.Submit(ctx, battle.EndMovement{UnitID: first.ID})
	require.NoError(t, err)
	_, err = e.Submit(ctx, battle.Move{UnitID: first.ID, Destination: grid.Point{X: 3, Y: 0}})
	reason, _ := combat.ReasonOf(err)
	assert.Equal(t, combat.ReasonWrongPhase, reason)
}

func TestSubmit_HazardDamageWhenMovementEnds(t *testing.T) {
	cfg := encounter.DefaultConfig()
	cfg.HazardDamage = 2
	e, first, _ := duel(t, cfg, 6)
	hazard := grid.Point{X: 0, Y: 1}
	if first.Position.X > 3 {
		hazard = grid.Point{X: 6, Y: 1}
	}
	evs, err := e.Submit(context.Background(), battle.Move{UnitID: first.ID, Destination: hazard})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, evs[0].Cost, 1e-9, "orthogonal step plus hazardous surcharge")
	assert.Equal(t, encounter.PhaseAction, e.Phase())
	assert.Equal(t, []battle.EventType{battle.EventMoved, battle.EventHazard}, eventTypes(evs))
	assert.Equal(t, 8, first.HP)
}

func TestSubmit_AttackSpendsAPAndEndsTurnAtZero(t *testing.T) {
	e, first, second := duel(t, encounter.DefaultConfig(), 4)
	require.Equal(t, 2, first.AP)
	ctx := context.Background()

	evs, err := e.Submit(ctx, battle.Attack{UnitID: first.ID, TargetID: second.ID})
	require.NoError(t, err)
	require.Equal(t, battle.EventAttack, evs[0].Type)
	assert.Equal(t, 100, evs[0].HitChance)
	assert.Equal(t, 4, evs[0].Amount)
	assert.Equal(t, 6, second.HP)
	assert.Equal(t, 1, first.AP)
	assert.Equal(t, encounter.PhaseAction, e.Phase())

	evs, err = e.Submit(ctx, battle.Attack{UnitID: first.ID, TargetID: second.ID})
	require.NoError(t, err)
	assert.Contains(t, eventTypes(evs), battle.EventTurnEnded)
	assert.Equal(t, second.ID, e.Current().ID)
	assert.Equal(t, encounter.PhaseMovement, e.Phase())
	assert.Len(t, e.Journal(), 2)
}

func TestSubmit_RejectedCommandChangesNothing(t *testing.T) {
	e, first, second := duel(t, encounter.DefaultConfig(), 4)
	first.Abilities[0].CurrentCooldown = 1
	before, err := e.Snapshot()
	require.NoError(t, err)

	_, err = e.Submit(context.Background(), battle.UseAbility{UnitID: first.ID, AbilityID: "grenade", Target: battle.UnitTarget(second.ID)})
	reason, _ := combat.ReasonOf(err)
	require.Equal(t, combat.ReasonCooldown, reason)

	after, err := e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestNew_RejectsMalformedUnits(t *testing.T) {
	cases := []struct {
		name  string
		spoil func(u *unit.Unit)
	}{
		{"status without duration", func(u *unit.Unit) {
			u.Abilities[0].Effect = unit.Effect{Status: condition.Poison, Magnitude: 2}
		}},
		{"unknown ability type", func(u *unit.Unit) { u.Abilities[0].Type = "dance" }},
		{"duplicate ability", func(u *unit.Unit) { u.Abilities = append(u.Abilities, u.Abilities[0]) }},
		{"weapon without range", func(u *unit.Unit) { u.Weapons[0].Range = 0 }},
		{"unknown armor tier", func(u *unit.Unit) { u.Armor = &unit.Armor{ID: "paper", Tier: "paper"} }},
		{"unknown side", func(u *unit.Unit) { u.Side = "neutral" }},
		{"no health", func(u *unit.Unit) { u.Base.MaxHealth = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := grid.ParseRows(field)
			require.NoError(t, err)
			bad := newUnit("p", unit.Player, grid.Point{X: 1, Y: 1}, 4)
			tc.spoil(bad)
			_, err = encounter.New(encounter.Setup{Map: m, Units: []*unit.Unit{
				bad, newUnit("x", unit.Enemy, grid.Point{X: 5, Y: 1}, 4),
			}}, encounter.DefaultConfig(), zaptest.NewLogger(t))
			assert.Error(t, err)
		})
	}

	m, err := grid.ParseRows(field)
	require.NoError(t, err)
	_, err = encounter.New(encounter.Setup{Map: m, Units: []*unit.Unit{
		nil, newUnit("x", unit.Enemy, grid.Point{X: 5, Y: 1}, 4),
	}}, encounter.DefaultConfig(), zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNew_PreparesHandBuiltUnits(t *testing.T) {
	p := newUnit("p", unit.Player, grid.Point{X: 1, Y: 1}, 4)
	p.Statuses = nil
	p.Armor = &unit.Armor{ID: "flak", Tier: unit.Flak, ToughnessBonus: 2}
	x := newUnit("x", unit.Enemy, grid.Point{X: 5, Y: 1}, 4)
	newEncounter(t, zaptest.NewLogger(t), field, encounter.DefaultConfig(), p, x)

	require.NotNil(t, p.Statuses)
	assert.Equal(t, 2, p.Current.Toughness, "armor is folded into current stats")
}

func TestSubmit_MalformedAbilityChangesNothing(t *testing.T) {
	e, first, second := duel(t, encounter.DefaultConfig(), 4)
	first.Abilities[0].Effect = unit.Effect{Status: condition.Poison, Magnitude: 2}
	before, err := json.Marshal(mustSnapshot(t, e))
	require.NoError(t, err)

	_, err = e.Submit(context.Background(), battle.UseAbility{UnitID: first.ID, AbilityID: "grenade", Target: battle.PointTarget(second.Position)})
	require.Error(t, err)

	after, err := json.Marshal(mustSnapshot(t, e))
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Empty(t, e.Journal())
	assert.Equal(t, 0, first.Abilities[0].CurrentCooldown)
}

func mustSnapshot(t tb, e *encounter.Encounter) *encounter.Snapshot {
	t.Helper()
	snap, err := e.Snapshot()
	require.NoError(t, err)
	return snap
}

// drawCommand produces an arbitrary, often illegal, command.
func drawCommand(rt *rapid.T, current string) battle.Command {
	ids := []string{"p1", "p2", "x1", "x2", "ghost", current, current}
	actor := rapid.SampledFrom(ids).Draw(rt, "actor")
	p := grid.Point{X: rapid.IntRange(-1, 7).Draw(rt, "x"), Y: rapid.IntRange(-1, 4).Draw(rt, "y")}
	switch rapid.IntRange(0, 4).Draw(rt, "kind") {
	case 0:
		return battle.Move{UnitID: actor, Destination: p}
	case 1:
		return battle.Attack{UnitID: actor, TargetID: rapid.SampledFrom(ids).Draw(rt, "target"), WeaponSlot: rapid.IntRange(-1, 1).Draw(rt, "slot")}
	case 2:
		target := battle.PointTarget(p)
		if rapid.Bool().Draw(rt, "unit_target") {
			target = battle.UnitTarget(rapid.SampledFrom(ids).Draw(rt, "target"))
		}
		return battle.UseAbility{UnitID: actor, AbilityID: rapid.SampledFrom([]string{"grenade", "nope"}).Draw(rt, "ability"), Target: target}
	case 3:
		return battle.EndMovement{UnitID: actor}
	default:
		return battle.EndTurn{UnitID: actor}
	}
}

func TestProperty_RejectedSubmitLeavesEncounterUnchanged(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e, err := encounter.New(squad(rapid.Uint64().Draw(rt, "seed")), encounter.DefaultConfig(), zap.NewNop())
		require.NoError(rt, err)
		if rapid.Bool().Draw(rt, "spoil") {
			// A definition broken after setup must still be rejected cleanly.
			for _, u := range e.State().Units() {
				u.Abilities[0].Effect.Status = condition.Stun
			}
		}
		for i := 0; i < 40 && !e.Resolved(); i++ {
			cmd := drawCommand(rt, e.Current().ID)
			before, err := json.Marshal(mustSnapshot(rt, e))
			require.NoError(rt, err)
			seq, journal := e.State().Seq(), e.JournalLen()

			if _, err := e.Submit(context.Background(), cmd); err == nil {
				require.Equal(rt, journal+1, e.JournalLen())
				continue
			}
			after, err := json.Marshal(mustSnapshot(rt, e))
			require.NoError(rt, err)
			require.JSONEq(rt, string(before), string(after), "rejected %T changed the encounter", cmd)
			require.Equal(rt, seq, e.State().Seq())
			require.Equal(rt, journal, e.JournalLen())
		}
	})
}

func TestSubmit_VictoryResolvesEncounter(t *testing.T) {
	e, first, second := duel(t, encounter.DefaultConfig(), 4)
	second.HP = 1
	evs, err := e.Submit(context.Background(), battle.Attack{UnitID: first.ID, TargetID: second.ID})
	require.NoError(t, err)
	assert.Equal(t, []battle.EventType{battle.EventAttack, battle.EventUnitDied, battle.EventEncounterResolved}, eventTypes(evs))
	assert.True(t, e.Resolved())
	want := encounter.OutcomePlayerVictory
	if first.Side == unit.Enemy {
		want = encounter.OutcomeEnemyVictory
	}
	assert.Equal(t, want, e.Outcome())
	assert.Nil(t, e.Current())

	_, err = e.Submit(context.Background(), battle.EndTurn{UnitID: first.ID})
	reason, _ := combat.ReasonOf(err)
	assert.Equal(t, combat.ReasonEncounterOver, reason)
}

func TestSubmit_MaxRoundsDraw(t *testing.T) {
	cfg := encounter.DefaultConfig()
	cfg.MaxRounds = 1
	e, first, second := duel(t, cfg, 4)
	ctx := context.Background()
	_, err := e.Submit(ctx, battle.EndTurn{UnitID: first.ID})
	require.NoError(t, err)
	evs, err := e.Submit(ctx, battle.EndTurn{UnitID: second.ID})
	require.NoError(t, err)
	assert.Contains(t, eventTypes(evs), battle.EventRoundAdvanced)
	assert.True(t, e.Resolved())
	assert.Equal(t, encounter.OutcomeDraw, e.Outcome())
}

func TestEndTurn_TicksCooldownsAndPoison(t *testing.T) {
	e, first, _ := duel(t, encounter.DefaultConfig(), 4)
	first.Abilities[0].CurrentCooldown = 2
	_, _, err := first.Statuses.Apply(e.State().Conditions, condition.Instance{Kind: condition.Poison, Remaining: 2, Magnitude: 3, SourceID: "witch"})
	require.NoError(t, err)

	evs, err := e.Submit(context.Background(), battle.EndTurn{UnitID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Abilities[0].CurrentCooldown)
	assert.Equal(t, 7, first.HP)
	var tick battle.Event
	for _, ev := range evs {
		if ev.Type == battle.EventStatusTicked {
			tick = ev
		}
	}
	assert.Equal(t, condition.Poison, tick.Status)
	assert.Equal(t, 3, tick.Amount)
	assert.Equal(t, 1, tick.Remaining)
	assert.Equal(t, "witch", tick.ActorID)
}

func TestStunnedUnitSkipsWithoutCooldownTick(t *testing.T) {
	e, first, second := duel(t, encounter.DefaultConfig(), 4)
	second.Abilities[0].CurrentCooldown = 2
	_, _, err := second.Statuses.Apply(e.State().Conditions, condition.Instance{Kind: condition.Stun, Remaining: 1})
	require.NoError(t, err)

	evs, err := e.Submit(context.Background(), battle.EndTurn{UnitID: first.ID})
	require.NoError(t, err)
	types := eventTypes(evs)
	assert.Contains(t, types, battle.EventTurnSkipped)
	assert.Contains(t, types, battle.EventStatusExpired)
	assert.False(t, second.Statuses.Has(condition.Stun))
	assert.Equal(t, 2, second.Abilities[0].CurrentCooldown, "cooldowns do not tick on a skipped turn")
	assert.Equal(t, first.ID, e.Current().ID)
	assert.Equal(t, 2, e.Round())
}

func TestEnvironmentTicksAfterLastActor(t *testing.T) {
	m, err := grid.ParseRows(field)
	require.NoError(t, err)
	p := newUnit("p", unit.Player, grid.Point{X: 1, Y: 1}, 4)
	x := newUnit("x", unit.Enemy, grid.Point{X: 5, Y: 1}, 4)
	fire, err := battle.NewEnvironmental(m, "fire-1", battle.Fire, p.Position, 0, 1, 2)
	require.NoError(t, err)
	e, err := encounter.New(encounter.Setup{Map: m, Units: []*unit.Unit{p, x}, Environment: []*battle.Environmental{fire}, Seed: 3}, encounter.DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	first := e.Current().ID
	evs, err := e.Submit(ctx, battle.EndTurn{UnitID: first})
	require.NoError(t, err)
	assert.NotContains(t, eventTypes(evs), battle.EventEnvironmentDamage)

	evs, err = e.Submit(ctx, battle.EndTurn{UnitID: e.Current().ID})
	require.NoError(t, err)
	types := eventTypes(evs)
	assert.Contains(t, types, battle.EventEnvironmentDamage)
	assert.Contains(t, types, battle.EventEnvironmentExpired)
	assert.Equal(t, 8, p.HP)
	assert.Empty(t, e.State().Environment)
}

func TestTargeting_CancelLeavesNoTrace(t *testing.T) {
	e, first, second := duel(t, encounter.DefaultConfig(), 4)
	before, err := e.Snapshot()
	require.NoError(t, err)

	tg, err := e.BeginTargeting(first.ID, "grenade")
	require.NoError(t, err)
	plan, err := tg.Aim(battle.PointTarget(second.Position))
	require.NoError(t, err)
	require.Len(t, plan.Targets, 1)
	tg.Cancel()

	after, err := e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	_, err = tg.Confirm(context.Background())
	assert.True(t, errors.Is(err, encounter.ErrTargetingClosed))
}

func TestTargeting_ConfirmSubmits(t *testing.T) {
	e, first, second := duel(t, encounter.DefaultConfig(), 4)
	tg, err := e.BeginTargeting(first.ID, "grenade")
	require.NoError(t, err)
	_, err = tg.Confirm(context.Background())
	require.ErrorIs(t, err, combat.ErrIllegalAction)

	_, err = tg.Aim(battle.PointTarget(second.Position))
	require.NoError(t, err)
	evs, err := tg.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, battle.EventAbility, evs[0].Type)
	assert.Equal(t, grenade.Cooldown, first.Abilities[0].CurrentCooldown)

	_, err = e.BeginTargeting(second.ID, "grenade")
	reason, _ := combat.ReasonOf(err)
	assert.Equal(t, combat.ReasonNotYourTurn, reason)
}

type nopCaller struct{}

func (nopCaller) CallHook(string, string, ...lua.LValue) (lua.LValue, error) { return lua.LNil, nil }

func squad(seed uint64) encounter.Setup {
	m, _ := grid.ParseRows([]string{
		"..h....",
		".#..~..",
		"...H..^",
		".......",
	})
	return encounter.Setup{
		ID:  "replay",
		Map: m,
		Units: []*unit.Unit{
			newUnit("p1", unit.Player, grid.Point{X: 0, Y: 0}, 4),
			newUnit("p2", unit.Player, grid.Point{X: 0, Y: 3}, 6),
			newUnit("x1", unit.Enemy, grid.Point{X: 6, Y: 0}, 4),
			newUnit("x2", unit.Enemy, grid.Point{X: 6, Y: 3}, 5),
		},
		Seed: seed,
	}
}

func autoPlayer(e *encounter.Encounter, logger *zap.Logger) *encounter.AutoPlayer {
	reg := ai.NewRegistry(ai.Settings{SupportRadius: 3, LowHealthFraction: 0.5}, e.Engine(), nopCaller{}, "test")
	return encounter.NewAutoPlayer(reg, 3, logger)
}

func TestSnapshot_ResumeIsDeterministic(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	cfg := encounter.Config{HazardDamage: 1, MaxRounds: 30}
	e, err := encounter.New(squad(99), cfg, logger)
	require.NoError(t, err)
	player := autoPlayer(e, logger)
	for range 3 {
		require.NoError(t, player.PlayTurn(ctx, e))
	}

	snap, err := e.Snapshot()
	require.NoError(t, err)
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	mark, seq := len(e.Journal()), e.State().Seq()

	require.NoError(t, player.Run(ctx, e))
	require.True(t, e.Resolved())

	var decoded encounter.Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, mark, decoded.Journal)
	replayed, err := encounter.Replay(ctx, &decoded, e.Journal()[mark:], nil, logger)
	require.NoError(t, err)

	assert.Equal(t, e.State().EventsSince(seq), replayed.Events())
	assert.Equal(t, e.Outcome(), replayed.Outcome())
	want, err := e.Snapshot()
	require.NoError(t, err)
	got, err := replayed.Snapshot()
	require.NoError(t, err)
	got.Journal = want.Journal
	assert.Equal(t, want, got)
}

func TestProperty_ReplayFromStartReproducesBattle(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed := rapid.Uint64().Draw(rt, "seed")
		logger := zap.NewNop()
		ctx := context.Background()
		cfg := encounter.Config{HazardDamage: 1, MaxRounds: 10}

		e, err := encounter.New(squad(seed), cfg, logger)
		require.NoError(rt, err)
		start, err := e.Snapshot()
		require.NoError(rt, err)
		seq := e.State().Seq()
		require.NoError(rt, autoPlayer(e, logger).Run(ctx, e))

		replayed, err := encounter.Replay(ctx, start, e.Journal(), nil, logger)
		require.NoError(rt, err)
		require.Equal(rt, e.State().EventsSince(seq), replayed.Events())
		require.Equal(rt, e.Outcome(), replayed.Outcome())
	})
}

func TestRestore_RejectsCorruptSnapshot(t *testing.T) {
	e, _, _ := duel(t, encounter.DefaultConfig(), 4)
	snap, err := e.Snapshot()
	require.NoError(t, err)

	bad := *snap
	bad.Version = 99
	_, err = encounter.Restore(&bad, nil, zaptest.NewLogger(t))
	assert.Error(t, err)

	bad = *snap
	bad.Phase = encounter.PhaseEnd
	_, err = encounter.Restore(&bad, nil, zaptest.NewLogger(t))
	assert.Error(t, err)

	bad = *snap
	bad.RNG = []byte("nope")
	_, err = encounter.Restore(&bad, nil, zaptest.NewLogger(t))
	assert.Error(t, err)
}
