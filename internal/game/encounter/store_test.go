package encounter_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
)

type memStore struct {
	snaps   map[string]*encounter.Snapshot
	journal map[string][]battle.Record
}

func newMemStore() *memStore {
	return &memStore{snaps: map[string]*encounter.Snapshot{}, journal: map[string][]battle.Record{}}
}

func (m *memStore) SaveSnapshot(_ context.Context, snap *encounter.Snapshot) error {
	if cur, ok := m.snaps[snap.ID]; !ok || snap.Journal >= cur.Journal {
		m.snaps[snap.ID] = snap
	}
	return nil
}

func (m *memStore) LatestSnapshot(_ context.Context, id string) (*encounter.Snapshot, error) {
	snap, ok := m.snaps[id]
	if !ok {
		return nil, encounter.ErrSnapshotNotFound
	}
	return snap, nil
}

func (m *memStore) AppendJournal(_ context.Context, id string, from int, records []battle.Record) error {
	for i, rec := range records {
		if from+i >= len(m.journal[id]) {
			m.journal[id] = append(m.journal[id], rec)
		}
	}
	return nil
}

func (m *memStore) Journal(_ context.Context, id string) ([]battle.Record, error) {
	return m.journal[id], nil
}

func TestCheckpoint_RejectsPositionOutsideJournal(t *testing.T) {
	e, first, _ := duel(t, encounter.DefaultConfig(), 4)
	_, err := e.Submit(context.Background(), battle.EndTurn{UnitID: first.ID})
	require.NoError(t, err)

	store := newMemStore()
	_, err = encounter.Checkpoint(context.Background(), store, e, 2)
	assert.Error(t, err)
	_, err = encounter.Checkpoint(context.Background(), store, e, -1)
	assert.Error(t, err)

	pos, err := encounter.Checkpoint(context.Background(), store, e, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
}

func TestResume_NothingSaved(t *testing.T) {
	_, _, err := encounter.Resume(context.Background(), newMemStore(), "missing")
	assert.ErrorIs(t, err, encounter.ErrSnapshotNotFound)
}

func TestResume_SnapshotAheadOfJournal(t *testing.T) {
	e, first, _ := duel(t, encounter.DefaultConfig(), 4)
	_, err := e.Submit(context.Background(), battle.EndTurn{UnitID: first.ID})
	require.NoError(t, err)
	snap, err := e.Snapshot()
	require.NoError(t, err)

	store := newMemStore()
	require.NoError(t, store.SaveSnapshot(context.Background(), snap))
	_, _, err = encounter.Resume(context.Background(), store, e.ID())
	assert.ErrorContains(t, err, "ahead of journal")
}

func TestResume_RestoredEncounterContinuesJournal(t *testing.T) {
	ctx := context.Background()
	e, first, second := duel(t, encounter.DefaultConfig(), 4)
	store := newMemStore()
	_, err := e.Submit(ctx, battle.EndTurn{UnitID: first.ID})
	require.NoError(t, err)
	pos, err := encounter.Checkpoint(ctx, store, e, 0)
	require.NoError(t, err)

	snap, tail, err := encounter.Resume(ctx, store, e.ID())
	require.NoError(t, err)
	restored, err := encounter.Replay(ctx, snap, tail, nil, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, restored.JournalLen())
	assert.Empty(t, restored.Journal())

	_, err = restored.Submit(ctx, battle.EndTurn{UnitID: second.ID})
	require.NoError(t, err)
	pos, err = encounter.Checkpoint(ctx, store, restored, pos)
	require.NoError(t, err)
	assert.Equal(t, 2, pos)
	journal, _ := store.Journal(ctx, e.ID())
	require.Len(t, journal, 2)
	assert.Equal(t, second.ID, journal[1].UnitID)
}
