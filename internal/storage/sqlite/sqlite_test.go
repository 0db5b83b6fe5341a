package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/levelup/internal/config"
	"github.com/cory-johannsen/levelup/internal/storage/sqlite"
	"github.com/cory-johannsen/levelup/internal/testutil"
)

func TestCharacterStore_Contract(t *testing.T) {
	store, err := sqlite.Open(context.Background(), config.SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "levelup.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	testutil.RunStoreContract(t, store)
}

func TestOpen_ReopensExistingFile(t *testing.T) {
	ctx := context.Background()
	cfg := config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "levelup.db")}

	first, err := sqlite.Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := sqlite.Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
