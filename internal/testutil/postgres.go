// Package testutil holds shared fixtures: container-backed storage
// backends, the storage contract suite and a wired game over the
// repository content.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/levelup/internal/config"
	"github.com/cory-johannsen/levelup/internal/storage/postgres"
)

// NewPostgresStore starts a PostgreSQL container, applies the repository's
// migrations with golang-migrate and returns a connected store.
//
// Precondition: Docker must be available; skipped under -short.
// Postcondition: the store and container are released by t.Cleanup.
func NewPostgresStore(t *testing.T) *postgres.CharacterStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container in -short mode")
	}
	ctx := context.Background()
	start := time.Now()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "levelup",
				"POSTGRES_PASSWORD": "levelup",
				"POSTGRES_DB":       "levelup",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}
	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "levelup",
		Password:        "levelup",
		Name:            "levelup",
		SSLMode:         "disable",
		MaxConns:        2,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	version, _, err := postgres.Migrate(cfg.DSN(), filepath.Join(ModuleRoot(t), "migrations"))
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	store, err := postgres.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	t.Logf("postgres ready at schema version %d [%s]", version, time.Since(start))
	return store
}

// ModuleRoot returns the directory holding go.mod, searching upward from the
// test's working directory.
func ModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above the working directory")
		}
		dir = parent
	}
}
