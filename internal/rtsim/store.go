package rtsim

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store persists the coarse entity table in a local sqlite file. Only the
// mutable travel state is saved; everything seed-derived is recomputed on
// load.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open rtsim store: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rtsim_entities (
			id        INTEGER PRIMARY KEY,
			seed      INTEGER NOT NULL,
			pos_x     REAL NOT NULL,
			pos_y     REAL NOT NULL,
			pos_z     REAL NOT NULL,
			last_tick INTEGER NOT NULL,
			target    INTEGER NOT NULL,
			brain     TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("init rtsim schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Load restores every persisted entity into the simulation.
func (s *Store) Load(ctx context.Context, r *RtSim) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seed, pos_x, pos_y, pos_z, last_tick, target, brain FROM rtsim_entities`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		e := &Entity{}
		var seed int64
		var brainRaw []byte
		if err := rows.Scan(&e.ID, &seed, &e.Pos.X, &e.Pos.Y, &e.Pos.Z,
			&e.LastTick, &e.Target, &brainRaw); err != nil {
			return err
		}
		e.Seed = uint64(seed)
		if err := json.Unmarshal(brainRaw, &e.Brain); err != nil {
			return fmt.Errorf("decode brain for entity %d: %w", e.ID, err)
		}
		r.restore(e)
	}
	return rows.Err()
}

// Save writes the full table in one transaction. Called on shutdown and
// on the periodic autosave.
func (s *Store) Save(ctx context.Context, r *RtSim) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rtsim_entities`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rtsim_entities (id, seed, pos_x, pos_y, pos_z, last_tick, target, brain)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var saveErr error
	r.Each(func(e *Entity) {
		if saveErr != nil {
			return
		}
		brain, err := json.Marshal(&e.Brain)
		if err != nil {
			saveErr = err
			return
		}
		_, saveErr = stmt.ExecContext(ctx,
			int64(e.ID), int64(e.Seed), e.Pos.X, e.Pos.Y, e.Pos.Z,
			int64(e.LastTick), int64(e.Target), string(brain))
	})
	if saveErr != nil {
		return saveErr
	}
	return tx.Commit()
}
