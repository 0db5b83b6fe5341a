package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/combat"
	"github.com/cory-johannsen/levelup/internal/game/dice"
	"github.com/cory-johannsen/levelup/internal/game/enemy"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/progression"
	"github.com/cory-johannsen/levelup/internal/game/recovery"
	"github.com/cory-johannsen/levelup/internal/game/session"
	"github.com/cory-johannsen/levelup/internal/storage"
)

// Now is the fixed clock used by GameDeps.
var Now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// MemStore is an in-memory storage.Store.
type MemStore struct {
	mu    sync.Mutex
	data  map[string]*character.Character
	saves int
	fail  error
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]*character.Character)}
}

// Load implements storage.Store.
func (m *MemStore) Load(_ context.Context, id string) (*character.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c.Clone(), nil
}

// Save implements storage.Store. It returns the error set by FailWith, if any.
func (m *MemStore) Save(_ context.Context, c *character.Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.data[c.ID] = c.Clone()
	return nil
}

// Close implements storage.Store.
func (m *MemStore) Close() error { return nil }

// Saves returns the number of successful saves.
func (m *MemStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// FailWith makes every later Save return err.
func (m *MemStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// FixedSource returns the same value on every draw.
type FixedSource float64

// Float64 implements dice.Source.
func (f FixedSource) Float64() float64 { return float64(f) }

// GameDeps wires session dependencies over the repository content with a
// 0.5 dice source, a fixed clock at Now and 5m/10% recovery.
//
// Precondition: contentDir is the path to the repository's content directory.
func GameDeps(t *testing.T, contentDir string, store storage.Store) session.Deps {
	t.Helper()
	logger := zaptest.NewLogger(t)

	defs, err := inventory.LoadItems(contentDir + "/items")
	require.NoError(t, err)
	items, err := inventory.NewCatalogFromDefs(defs, nil)
	require.NoError(t, err)
	factory := inventory.NewFactory(items)

	enemies, err := enemy.LoadEnemies(contentDir + "/enemies")
	require.NoError(t, err)
	bestiary, err := enemy.NewBestiary(enemies, factory)
	require.NoError(t, err)

	skills, err := combat.LoadSkills(contentDir + "/skills")
	require.NoError(t, err)
	book, err := combat.NewSkillBook(skills)
	require.NoError(t, err)

	prog := progression.NewEngine(progression.AutoGrowth, 10, factory, logger)
	return session.Deps{
		Store:       store,
		Combat:      combat.NewEngine(dice.NewLoggedRoller(FixedSource(0.5), logger), book, items, prog, logger),
		Progression: prog,
		Items:       items,
		Bestiary:    bestiary,
		Recovery:    recovery.Policy{Interval: 5 * time.Minute, Percent: 10},
		Now:         func() time.Time { return Now },
		Logger:      logger,
	}
}
