package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/storage"
)

// CharacterStore keeps one JSONB snapshot row per character.
type CharacterStore struct {
	pool *pgxpool.Pool
}

// NewCharacterStore creates a CharacterStore backed by the given pool.
//
// Precondition: pool must be a valid, open connection pool with the
// characters table migrated.
func NewCharacterStore(pool *pgxpool.Pool) *CharacterStore {
	return &CharacterStore{pool: pool}
}

// Load retrieves the snapshot for id.
//
// Postcondition: Returns the Character or storage.ErrNotFound.
func (s *CharacterStore) Load(ctx context.Context, id string) (*character.Character, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM characters WHERE id = $1`, id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("loading character %q: %w", id, err)
	}
	return storage.Decode(data)
}

// Save upserts the snapshot for c.ID.
//
// Precondition: c.ID must be non-empty.
func (s *CharacterStore) Save(ctx context.Context, c *character.Character) error {
	data, err := storage.Encode(c)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO characters (id, snapshot, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = NOW()`,
		c.ID, data,
	)
	if err != nil {
		return fmt.Errorf("saving character %q: %w", c.ID, err)
	}
	return nil
}

// Close closes the pool.
func (s *CharacterStore) Close() error {
	s.pool.Close()
	return nil
}
