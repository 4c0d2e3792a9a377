package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
)

// EncounterRepository persists encounter snapshots and command journals.
type EncounterRepository struct {
	db *pgxpool.Pool
}

// NewEncounterRepository creates an EncounterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewEncounterRepository(db *pgxpool.Pool) *EncounterRepository {
	return &EncounterRepository{db: db}
}

// SaveSnapshot upserts snap at its journal position.
//
// Precondition: snap must not be nil.
func (r *EncounterRepository) SaveSnapshot(ctx context.Context, snap *encounter.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO encounter_snapshots (encounter_id, journal, round, phase, outcome, data)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (encounter_id, journal) DO UPDATE
		 SET round = EXCLUDED.round, phase = EXCLUDED.phase, outcome = EXCLUDED.outcome,
		     data = EXCLUDED.data, taken_at = NOW()`,
		snap.ID, snap.Journal, snap.Queue.Round, string(snap.Phase), string(snap.Outcome), data,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the snapshot with the highest journal position.
//
// Postcondition: Returns encounter.ErrSnapshotNotFound if none was saved.
func (r *EncounterRepository) LatestSnapshot(ctx context.Context, encounterID string) (*encounter.Snapshot, error) {
	var data []byte
	err := r.db.QueryRow(ctx,
		`SELECT data FROM encounter_snapshots
		 WHERE encounter_id = $1
		 ORDER BY journal DESC
		 LIMIT 1`,
		encounterID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, encounter.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	var snap encounter.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// AppendJournal inserts records at positions from, from+1, ... in a single transaction.
//
// Postcondition: Positions already stored are left unchanged.
func (r *EncounterRepository) AppendJournal(ctx context.Context, encounterID string, from int, records []battle.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding journal entry %d: %w", from+i, err)
		}
		batch.Queue(
			`INSERT INTO encounter_journal (encounter_id, seq, record)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (encounter_id, seq) DO NOTHING`,
			encounterID, from+i, data,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("appending journal: %w", err)
	}
	return tx.Commit(ctx)
}

// Journal returns every stored record for encounterID ordered by position.
func (r *EncounterRepository) Journal(ctx context.Context, encounterID string) ([]battle.Record, error) {
	rows, err := r.db.Query(ctx,
		`SELECT record FROM encounter_journal WHERE encounter_id = $1 ORDER BY seq`,
		encounterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var out []battle.Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning journal: %w", err)
		}
		var rec battle.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decoding journal entry %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Encounters returns the IDs of every encounter with a saved snapshot, most recent first.
func (r *EncounterRepository) Encounters(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT encounter_id FROM encounter_snapshots
		 GROUP BY encounter_id
		 ORDER BY MAX(taken_at) DESC, encounter_id`)
	if err != nil {
		return nil, fmt.Errorf("listing encounters: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning encounter ids: %w", err)
	}
	return ids, nil
}

var _ encounter.Store = (*EncounterRepository)(nil)
