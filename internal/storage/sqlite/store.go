// Package sqlite provides single-file encounter persistence for local runs.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/migrations"
)

// Store persists encounter snapshots and command journals in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies pending migrations.
// The path ":memory:" gives a private in-memory database.
//
// Precondition: path must be non-empty.
// Postcondition: Returns a migrated Store or a non-nil error.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", path, err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite %q: %w", path, err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := migrations.Source("sqlite")
	if err != nil {
		return err
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating sqlite: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot upserts snap at its journal position.
//
// Precondition: snap must not be nil.
func (s *Store) SaveSnapshot(ctx context.Context, snap *encounter.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO encounter_snapshots (encounter_id, journal, round, phase, outcome, data)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (encounter_id, journal) DO UPDATE
		 SET round = excluded.round, phase = excluded.phase, outcome = excluded.outcome,
		     data = excluded.data, taken_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		snap.ID, snap.Journal, snap.Queue.Round, string(snap.Phase), string(snap.Outcome), string(data),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the snapshot with the highest journal position.
//
// Postcondition: Returns encounter.ErrSnapshotNotFound if none was saved.
func (s *Store) LatestSnapshot(ctx context.Context, encounterID string) (*encounter.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM encounter_snapshots
		 WHERE encounter_id = ?
		 ORDER BY journal DESC
		 LIMIT 1`,
		encounterID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, encounter.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	var snap encounter.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// AppendJournal inserts records at positions from, from+1, ... in a single transaction.
//
// Postcondition: Positions already stored are left unchanged.
func (s *Store) AppendJournal(ctx context.Context, encounterID string, from int, records []battle.Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO encounter_journal (encounter_id, seq, record)
		 VALUES (?, ?, ?)
		 ON CONFLICT (encounter_id, seq) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("preparing journal insert: %w", err)
	}
	defer stmt.Close()
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding journal entry %d: %w", from+i, err)
		}
		if _, err := stmt.ExecContext(ctx, encounterID, from+i, string(data)); err != nil {
			return fmt.Errorf("appending journal entry %d: %w", from+i, err)
		}
	}
	return tx.Commit()
}

// Journal returns every stored record for encounterID ordered by position.
func (s *Store) Journal(ctx context.Context, encounterID string) ([]battle.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM encounter_journal WHERE encounter_id = ? ORDER BY seq`,
		encounterID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var out []battle.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning journal: %w", err)
		}
		var rec battle.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decoding journal entry %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Encounters returns the IDs of every encounter with a saved snapshot, most recent first.
func (s *Store) Encounters(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT encounter_id FROM encounter_snapshots
		 GROUP BY encounter_id
		 ORDER BY MAX(taken_at) DESC, encounter_id`)
	if err != nil {
		return nil, fmt.Errorf("listing encounters: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning encounter id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ encounter.Store = (*Store)(nil)
