// Package store persists shoe snapshots in a local SQLite database so the
// seen-card counter survives restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/round"
	"github.com/lox/flip7helper/internal/shoe"
	_ "modernc.org/sqlite"
)

// ErrNoShoe is returned when no snapshot has been saved
var ErrNoShoe = errors.New("no saved shoe")

const queryTimeout = 3 * time.Second

// SQLite stores one row per shoe, overwritten on every save
type SQLite struct {
	db *sql.DB
}

var _ shoe.Store = (*SQLite)(nil)

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*SQLite, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		parent := filepath.Dir(path)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the snapshot keyed by shoe ID
func (s *SQLite) Save(ctx context.Context, snap shoe.Snapshot) error {
	if snap.ID == "" {
		return fmt.Errorf("snapshot has no shoe id")
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stateRaw, err := json.Marshal(snap.State)
	if err != nil {
		return err
	}
	seen := snap.Seen
	if seen == nil {
		seen = deck.Seen{}
	}
	seenRaw, err := json.Marshal(seen)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO shoes (id, round, state, seen, updated_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    round = excluded.round,
    state = excluded.state,
    seen = excluded.seen,
    updated_at_ms = excluded.updated_at_ms
`, snap.ID, snap.Round, string(stateRaw), string(seenRaw), snap.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save shoe %s: %w", snap.ID, err)
	}
	return nil
}

// Load returns the snapshot for a shoe ID
func (s *SQLite) Load(ctx context.Context, id string) (shoe.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
SELECT id, round, state, seen, updated_at_ms
FROM shoes
WHERE id = ?
`, id)
	return scanSnapshot(row)
}

// LoadLatest returns the most recently updated shoe
func (s *SQLite) LoadLatest(ctx context.Context) (shoe.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx, `
SELECT id, round, state, seen, updated_at_ms
FROM shoes
ORDER BY updated_at_ms DESC, id DESC
LIMIT 1
`)
	return scanSnapshot(row)
}

// List returns up to limit shoes, newest first
func (s *SQLite) List(ctx context.Context, limit int) ([]shoe.Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
SELECT id, round, state, seen, updated_at_ms
FROM shoes
ORDER BY updated_at_ms DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []shoe.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Delete removes a shoe. Deleting an unknown ID returns ErrNoShoe.
func (s *SQLite) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM shoes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoShoe
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (shoe.Snapshot, error) {
	var (
		snap        shoe.Snapshot
		stateRaw    []byte
		seenRaw     []byte
		updatedAtMs int64
	)
	err := row.Scan(&snap.ID, &snap.Round, &stateRaw, &seenRaw, &updatedAtMs)
	if errors.Is(err, sql.ErrNoRows) {
		return shoe.Snapshot{}, ErrNoShoe
	}
	if err != nil {
		return shoe.Snapshot{}, err
	}

	var state round.State
	if err := json.Unmarshal(stateRaw, &state); err != nil {
		return shoe.Snapshot{}, fmt.Errorf("decode state for shoe %s: %w", snap.ID, err)
	}
	seen := deck.Seen{}
	if err := json.Unmarshal(seenRaw, &seen); err != nil {
		return shoe.Snapshot{}, fmt.Errorf("decode seen for shoe %s: %w", snap.ID, err)
	}
	snap.State = state
	snap.Seen = seen
	snap.UpdatedAt = time.UnixMilli(updatedAtMs).UTC()
	return snap, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS shoes (
    id TEXT PRIMARY KEY,
    round INTEGER NOT NULL DEFAULT 1,
    state TEXT NOT NULL DEFAULT '{}',
    seen TEXT NOT NULL DEFAULT '{}',
    updated_at_ms INTEGER NOT NULL
)`)
	return err
}
