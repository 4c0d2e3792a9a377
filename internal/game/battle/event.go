package battle

import (
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// EventType names a discrete thing that happened during an encounter.
type EventType string

const (
	EventMoved              EventType = "moved"
	EventAttack             EventType = "attack"
	EventAbility            EventType = "ability"
	EventHealed             EventType = "healed"
	EventStatusApplied      EventType = "status_applied"
	EventStatusTicked       EventType = "status_ticked"
	EventStatusExpired      EventType = "status_expired"
	EventShieldAbsorbed     EventType = "shield_absorbed"
	EventHazard             EventType = "hazard"
	EventEnvironmentDamage  EventType = "environment_damage"
	EventEnvironmentExpired EventType = "environment_expired"
	EventUnitDied           EventType = "unit_died"
	EventTurnStarted        EventType = "turn_started"
	EventTurnSkipped        EventType = "turn_skipped"
	EventTurnEnded          EventType = "turn_ended"
	EventRoundAdvanced      EventType = "round_advanced"
	EventEncounterResolved  EventType = "encounter_resolved"
)

// Outcome qualifies attack and ability events.
type Outcome string

const (
	OutcomeHit      Outcome = "hit"
	OutcomeMiss     Outcome = "miss"
	OutcomeCritical Outcome = "critical"
	OutcomeApplied  Outcome = "applied"
)

// Event is one semantic record in the encounter log. Only fields relevant to
// the Type are set.
type Event struct {
	Seq       int            `json:"seq"`
	Type      EventType      `json:"type"`
	Round     int            `json:"round"`
	ActorID   string         `json:"actor_id,omitempty"`
	TargetID  string         `json:"target_id,omitempty"`
	AbilityID string         `json:"ability_id,omitempty"`
	Outcome   Outcome        `json:"outcome,omitempty"`
	HitChance int            `json:"hit_chance,omitempty"`
	HitRoll   int            `json:"hit_roll,omitempty"`
	CritRoll  int            `json:"crit_roll,omitempty"`
	Amount    int            `json:"amount,omitempty"`
	Absorbed  int            `json:"absorbed,omitempty"`
	Status    condition.Kind `json:"status,omitempty"`
	Remaining int            `json:"remaining,omitempty"`
	Path      []grid.Point   `json:"path,omitempty"`
	Position  *grid.Point    `json:"position,omitempty"`
	Cost      float64        `json:"cost,omitempty"`
	Detail    string         `json:"detail,omitempty"`
}
