// Package backend selects a storage.Store implementation from configuration.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/levelup/internal/config"
	"github.com/cory-johannsen/levelup/internal/storage"
	"github.com/cory-johannsen/levelup/internal/storage/postgres"
	"github.com/cory-johannsen/levelup/internal/storage/redis"
	"github.com/cory-johannsen/levelup/internal/storage/sqlite"
)

// Open connects the backend named by cfg.Storage.Driver.
//
// Precondition: cfg must have passed Validate.
// Postcondition: Returns a ready Store the caller must Close, or an error.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)
	switch cfg.Storage.Driver {
	case "postgres":
		store, err = postgres.Open(ctx, cfg.Database)
	case "sqlite":
		store, err = sqlite.Open(ctx, cfg.SQLite)
	case "redis":
		store, err = redis.Open(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Storage.Driver, err)
	}
	logger.Info("storage opened", zap.String("driver", cfg.Storage.Driver))
	return store, nil
}
