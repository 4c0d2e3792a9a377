package encounter

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
)

// Store persists encounter snapshots and command journals.
type Store interface {
	// SaveSnapshot stores snap; a second save at the same journal position replaces the first.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	// LatestSnapshot returns the snapshot with the highest journal position, or ErrSnapshotNotFound.
	LatestSnapshot(ctx context.Context, encounterID string) (*Snapshot, error)
	// AppendJournal stores records at positions from, from+1, ... Existing positions are left untouched.
	AppendJournal(ctx context.Context, encounterID string, from int, records []battle.Record) error
	// Journal returns every stored record in position order.
	Journal(ctx context.Context, encounterID string) ([]battle.Record, error)
}

// Checkpoint writes the journal entries accepted since lifetime position from and a fresh snapshot.
//
// Precondition: store must not be nil; from lies within the commands this instance accepted,
// that is e.JournalLen()-len(e.Journal()) <= from <= e.JournalLen().
// Postcondition: Returns the journal position now persisted.
func Checkpoint(ctx context.Context, store Store, e *Encounter, from int) (int, error) {
	journal := e.Journal()
	base := e.journalBase
	if from < base || from > base+len(journal) {
		return from, fmt.Errorf("encounter %s: checkpoint from %d outside journal %d..%d", e.id, from, base, base+len(journal))
	}
	if err := store.AppendJournal(ctx, e.id, from, journal[from-base:]); err != nil {
		return from, fmt.Errorf("encounter %s: saving journal: %w", e.id, err)
	}
	snap, err := e.Snapshot()
	if err != nil {
		return from, err
	}
	if err := store.SaveSnapshot(ctx, snap); err != nil {
		return from, fmt.Errorf("encounter %s: saving snapshot: %w", e.id, err)
	}
	return base + len(journal), nil
}

// Resume loads the latest snapshot of encounterID together with the journal recorded after it.
//
// Postcondition: Returns ErrSnapshotNotFound (wrapped) when nothing was saved.
func Resume(ctx context.Context, store Store, encounterID string) (*Snapshot, []battle.Record, error) {
	snap, err := store.LatestSnapshot(ctx, encounterID)
	if err != nil {
		return nil, nil, fmt.Errorf("encounter %s: %w", encounterID, err)
	}
	journal, err := store.Journal(ctx, encounterID)
	if err != nil {
		return nil, nil, fmt.Errorf("encounter %s: %w", encounterID, err)
	}
	if snap.Journal > len(journal) {
		return nil, nil, fmt.Errorf("encounter %s: snapshot at %d ahead of journal of %d", encounterID, snap.Journal, len(journal))
	}
	return snap, journal[snap.Journal:], nil
}
