package encounter

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// SnapshotVersion is the current snapshot format.
const SnapshotVersion = 1

// ErrSnapshotNotFound is returned by snapshot stores when no snapshot exists for an encounter.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the complete resumable state of an encounter.
type Snapshot struct {
	Version     int                     `json:"version"`
	ID          string                  `json:"id"`
	Seed        uint64                  `json:"seed"`
	RNG         []byte                  `json:"rng"`
	Config      Config                  `json:"config"`
	Rows        []string                `json:"rows"`
	Units       []*unit.Unit            `json:"units"`
	Environment []*battle.Environmental `json:"environment"`
	Initiative  []combat.Initiative     `json:"initiative"`
	Queue       TurnQueue               `json:"queue"`
	Phase       Phase                   `json:"phase"`
	Outcome     Outcome                 `json:"outcome,omitempty"`
	Seq         int                     `json:"seq"`
	// Journal is the number of commands accepted before the snapshot was taken.
	Journal int `json:"journal"`
}

type roster struct {
	Units       []*unit.Unit            `json:"units"`
	Environment []*battle.Environmental `json:"environment"`
}

// copyRoster deep-copies r through its JSON form.
func copyRoster(r roster) (roster, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return roster{}, fmt.Errorf("encoding units: %w", err)
	}
	var out roster
	if err := json.Unmarshal(raw, &out); err != nil {
		return roster{}, fmt.Errorf("decoding units: %w", err)
	}
	return out, nil
}

// Snapshot captures the encounter so that Restore resumes it exactly.
//
// Postcondition: the returned snapshot shares no mutable memory with e.
func (e *Encounter) Snapshot() (*Snapshot, error) {
	rng, err := e.rng.State()
	if err != nil {
		return nil, fmt.Errorf("encounter %s: %w", e.id, err)
	}
	parts, err := copyRoster(roster{Units: e.state.Units(), Environment: e.state.Environment})
	if err != nil {
		return nil, fmt.Errorf("encounter %s: %w", e.id, err)
	}
	q := *e.queue
	q.Order = append([]string(nil), e.queue.Order...)
	return &Snapshot{
		Version:     SnapshotVersion,
		ID:          e.id,
		Seed:        e.seed,
		RNG:         rng,
		Config:      e.cfg,
		Rows:        e.state.Map.Rows(),
		Units:       parts.Units,
		Environment: parts.Environment,
		Initiative:  e.Initiative(),
		Queue:       q,
		Phase:       e.phase.Current(),
		Outcome:     e.outcome,
		Seq:         e.state.Seq(),
		Journal:     e.JournalLen(),
	}, nil
}

// Restore rebuilds an encounter from snap. Condition definitions are content, not state,
// and are supplied by the caller; nil uses the defaults.
//
// Precondition: snap must come from (*Encounter).Snapshot, possibly via JSON; logger must not be nil.
// Postcondition: the restored encounter produces the same future events as the original
// for the same command sequence. The event log and journal start empty.
func Restore(snap *Snapshot, reg *condition.Registry, logger *zap.Logger) (*Encounter, error) {
	if snap == nil {
		return nil, errors.New("encounter: nil snapshot")
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("encounter %s: unsupported snapshot version %d", snap.ID, snap.Version)
	}
	m, err := grid.ParseRows(snap.Rows)
	if err != nil {
		return nil, fmt.Errorf("encounter %s: map: %w", snap.ID, err)
	}
	parts, err := copyRoster(roster{Units: snap.Units, Environment: snap.Environment})
	if err != nil {
		return nil, fmt.Errorf("encounter %s: %w", snap.ID, err)
	}
	s := battle.NewState(m, reg)
	for _, u := range parts.Units {
		if err := u.Prepare(); err != nil {
			return nil, fmt.Errorf("encounter %s: %w", snap.ID, err)
		}
		if err := s.AddUnit(u); err != nil {
			return nil, fmt.Errorf("encounter %s: restoring %q: %w", snap.ID, u.ID, err)
		}
	}
	for _, env := range parts.Environment {
		s.AddEnvironment(env)
	}
	s.Round = snap.Queue.Round
	s.SetSeq(snap.Seq)

	rng, err := dice.RestoreSeeded(snap.RNG)
	if err != nil {
		return nil, fmt.Errorf("encounter %s: %w", snap.ID, err)
	}
	q := snap.Queue
	q.Order = append([]string(nil), snap.Queue.Order...)
	if snap.Journal < 0 || q.Round < 1 || (len(q.Order) > 0 && (q.Cursor < 0 || q.Cursor >= len(q.Order))) {
		return nil, fmt.Errorf("encounter %s: corrupt turn queue or journal position", snap.ID)
	}
	switch snap.Phase {
	case PhaseMovement, PhaseAction, PhaseResolved:
	default:
		return nil, fmt.Errorf("encounter %s: cannot resume in phase %q", snap.ID, snap.Phase)
	}

	e := &Encounter{
		id:          snap.ID,
		seed:        snap.Seed,
		cfg:         snap.Config,
		state:       s,
		queue:       &q,
		initiative:  append([]combat.Initiative(nil), snap.Initiative...),
		phase:       newPhaseMachine(snap.Phase),
		rng:         rng,
		outcome:     snap.Outcome,
		journalBase: snap.Journal,
		logger:      logger.With(zap.String("encounter", snap.ID)),
	}
	e.wire()
	e.logger.Info("encounter restored",
		zap.Int("round", q.Round),
		zap.String("phase", string(snap.Phase)),
		zap.Int("seq", snap.Seq),
	)
	return e, nil
}
