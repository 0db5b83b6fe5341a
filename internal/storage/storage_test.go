package storage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/storage"
)

func TestEncodeDecode(t *testing.T) {
	c := character.New("hero", "Hero", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	data, err := storage.Encode(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"maxHp"`)

	got, err := storage.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, c.MaxHP, got.MaxHP)
	assert.Equal(t, c.Quests[0].ID, got.Quests[0].ID)
}

func TestDecode_NormalisesEmptyCollections(t *testing.T) {
	got, err := storage.Decode([]byte(`{"id":"hero","name":"Hero","level":1}`))
	require.NoError(t, err)
	assert.NotNil(t, got.Inventory)
	assert.NotNil(t, got.CompletedQuests)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := storage.Decode([]byte(`not json`))
	assert.Error(t, err)
}
