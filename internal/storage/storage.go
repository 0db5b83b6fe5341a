// Package storage defines the character snapshot port. Backends live in the
// postgres, sqlite and redis subpackages; backend.Open selects one from
// configuration.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

// ErrNotFound is returned by Load when no snapshot exists for the id.
var ErrNotFound = errors.New("storage: character not found")

// Store loads and saves whole character snapshots.
type Store interface {
	// Load returns the snapshot stored under id, or ErrNotFound.
	Load(ctx context.Context, id string) (*character.Character, error)
	// Save replaces the snapshot stored under c.ID.
	Save(ctx context.Context, c *character.Character) error
	// Close releases the backend's resources.
	Close() error
}

// Encode renders c as the snapshot document every backend stores.
func Encode(c *character.Character) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding character %q: %w", c.ID, err)
	}
	return data, nil
}

// Decode parses a snapshot document.
//
// Postcondition: nil slices that the aggregate treats as empty are non-nil.
func Decode(data []byte) (*character.Character, error) {
	var c character.Character
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding character snapshot: %w", err)
	}
	if c.Inventory == nil {
		c.Inventory = inventory.Inventory{}
	}
	if c.CompletedQuests == nil {
		c.CompletedQuests = []string{}
	}
	return &c, nil
}
