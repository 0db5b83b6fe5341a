package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/storage"
)

// RunStoreContract checks the behaviour every storage.Store must share.
//
// Precondition: store must be empty for the ids "contract-*".
func RunStoreContract(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("missing id", func(t *testing.T) {
		_, err := store.Load(ctx, "contract-missing")
		assert.True(t, errors.Is(err, storage.ErrNotFound), "got %v", err)
	})

	t.Run("round trip", func(t *testing.T) {
		c := character.New("contract-hero", "Hero", now)
		c.Gold = 120
		c.Inventory.Add(inventory.ItemStack{
			ID: "item-health-potion", Name: "Health Potion",
			Type: inventory.TypeConsumable, Rarity: inventory.RarityCommon, Quantity: 3,
		})
		c.PendingRewards = &character.Rewards{Exp: 300, Gold: 150, Source: "enemy-1"}
		require.NoError(t, store.Save(ctx, c))

		got, err := store.Load(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Name, got.Name)
		assert.Equal(t, 120, got.Gold)
		assert.Equal(t, c.Attributes, got.Attributes)
		assert.Equal(t, c.Inventory, got.Inventory)
		assert.Len(t, got.Quests, len(c.Quests))
		require.NotNil(t, got.PendingRewards)
		assert.Equal(t, 300, got.PendingRewards.Exp)
		assert.True(t, c.LastRecovery.Equal(got.LastRecovery))
	})

	t.Run("save overwrites", func(t *testing.T) {
		c := character.New("contract-overwrite", "Hero", now)
		require.NoError(t, store.Save(ctx, c))
		c.Level = 5
		c.PendingRewards = nil
		require.NoError(t, store.Save(ctx, c))

		got, err := store.Load(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.Level)
		assert.Nil(t, got.PendingRewards)
	})
}
