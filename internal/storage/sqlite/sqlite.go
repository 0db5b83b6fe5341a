// Package sqlite stores character snapshots in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cory-johannsen/levelup/internal/config"
	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS characters (
	id         TEXT PRIMARY KEY,
	snapshot   TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// CharacterStore keeps one snapshot row per character in SQLite.
type CharacterStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at cfg.Path and ensures the
// characters table exists.
//
// Precondition: cfg.Path must be non-empty.
// Postcondition: Returns a ready store or a non-nil error.
func Open(ctx context.Context, cfg config.SQLiteConfig) (*CharacterStore, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %q: %w", cfg.Path, err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}
	return &CharacterStore{db: db}, nil
}

// Load retrieves the snapshot for id, or storage.ErrNotFound.
func (s *CharacterStore) Load(ctx context.Context, id string) (*character.Character, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM characters WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("loading character %q: %w", id, err)
	}
	return storage.Decode([]byte(data))
}

// Save upserts the snapshot for c.ID.
func (s *CharacterStore) Save(ctx context.Context, c *character.Character) error {
	data, err := storage.Encode(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO characters (id, snapshot, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = CURRENT_TIMESTAMP`,
		c.ID, string(data),
	)
	if err != nil {
		return fmt.Errorf("saving character %q: %w", c.ID, err)
	}
	return nil
}

// Close closes the database.
func (s *CharacterStore) Close() error {
	return s.db.Close()
}
