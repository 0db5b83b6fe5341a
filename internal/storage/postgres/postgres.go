// Package postgres stores character snapshots as JSONB rows using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/levelup/internal/config"
)

// Open connects a pool sized by cfg and returns a store over it.
//
// Precondition: the characters table must already be migrated.
// Postcondition: Returns a store whose pool answered a ping, or a non-nil error.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*CharacterStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return NewCharacterStore(pool), nil
}

// Ping checks that the database answers within timeout.
func (s *CharacterStore) Ping(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Migrate applies every pending migration in sourceDir to the database at dsn.
// It returns the resulting schema version and whether anything changed.
func Migrate(dsn, sourceDir string) (version uint, changed bool, err error) {
	m, err := migrate.New("file://"+sourceDir, dsn)
	if err != nil {
		return 0, false, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, false, fmt.Errorf("migrating up: %w", err)
	}
	changed = err == nil
	version, _, err = m.Version()
	if err != nil {
		return 0, changed, fmt.Errorf("reading schema version: %w", err)
	}
	return version, changed, nil
}
