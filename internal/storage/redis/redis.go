// Package redis stores character snapshots as Redis string values.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/levelup/internal/config"
	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/storage"
)

// CharacterStore keeps each snapshot under KeyPrefix+id with no expiry.
type CharacterStore struct {
	client *goredis.Client
	prefix string
}

// Open connects to Redis and verifies the connection.
//
// Precondition: cfg.Addr must be non-empty.
// Postcondition: Returns a connected store or a non-nil error.
func Open(ctx context.Context, cfg config.RedisConfig) (*CharacterStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis %q: %w", cfg.Addr, err)
	}
	return &CharacterStore{client: client, prefix: cfg.KeyPrefix}, nil
}

func (s *CharacterStore) key(id string) string {
	return s.prefix + id
}

// Load retrieves the snapshot for id, or storage.ErrNotFound.
func (s *CharacterStore) Load(ctx context.Context, id string) (*character.Character, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("loading character %q: %w", id, err)
	}
	return storage.Decode(data)
}

// Save replaces the snapshot for c.ID.
func (s *CharacterStore) Save(ctx context.Context, c *character.Character) error {
	data, err := storage.Encode(c)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(c.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("saving character %q: %w", c.ID, err)
	}
	return nil
}

// Close closes the client.
func (s *CharacterStore) Close() error {
	return s.client.Close()
}
