package inventory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

func validDef() *inventory.ItemDef {
	return &inventory.ItemDef{
		ID:     "item-health-potion",
		Name:   "Health Potion",
		Type:   inventory.TypeConsumable,
		Rarity: inventory.RarityCommon,
		Effect: &inventory.EffectDef{Kind: "heal", HP: 100},
	}
}

func TestItemDef_Validate_Accepts(t *testing.T) {
	require.NoError(t, validDef().Validate())
}

func TestItemDef_Validate_RejectsEmptyID(t *testing.T) {
	d := validDef()
	d.ID = ""
	if err := d.Validate(); err == nil {
		t.Fatal("expected error for empty ID, got nil")
	}
}

func TestItemDef_Validate_RejectsInvalidType(t *testing.T) {
	d := validDef()
	d.Type = "Gadget"
	if err := d.Validate(); err == nil {
		t.Fatal("expected error for invalid Type, got nil")
	}
}

func TestItemDef_Validate_RejectsInvalidRarity(t *testing.T) {
	d := validDef()
	d.Rarity = "Mythic"
	if err := d.Validate(); err == nil {
		t.Fatal("expected error for invalid Rarity, got nil")
	}
}

func TestItemDef_Validate_RejectsEffectOnMaterial(t *testing.T) {
	d := validDef()
	d.Type = inventory.TypeMaterial
	assert.Error(t, d.Validate())
}

func TestItemDef_Validate_RejectsUnknownEffectKind(t *testing.T) {
	d := validDef()
	d.Effect.Kind = "teleport"
	assert.Error(t, d.Validate())
}

func TestItemDef_Validate_ScriptRequiresBody(t *testing.T) {
	d := validDef()
	d.Effect = &inventory.EffectDef{Kind: "script"}
	assert.Error(t, d.Validate())
}

func TestItemDef_Stack_CopiesStats(t *testing.T) {
	d := &inventory.ItemDef{
		ID: "item-defense-rune", Name: "Defense Rune",
		Type: inventory.TypeRune, Rarity: inventory.RarityUncommon,
		Stats: &inventory.StatBonus{Vit: 2},
	}
	s := d.Stack(2)
	assert.Equal(t, 2, s.Quantity)
	require.NotNil(t, s.Stats)
	s.Stats.Vit = 99
	assert.Equal(t, 2, d.Stats.Vit, "stack must not alias the catalog entry")
}

func TestLoadItemsFromBytes(t *testing.T) {
	data := []byte(`
- id: item-mana-potion
  name: Mana Potion
  type: Consumable
  rarity: Common
  effect:
    kind: restore_mana
    mp: 50
- id: item-lycan-fang
  name: Lycan Fang
  type: Material
  rarity: Uncommon
`)
	defs, err := inventory.LoadItemsFromBytes(data)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, 50, defs[0].Effect.MP)
	assert.Nil(t, defs[1].Effect)
}

func TestLoadItemsFromBytes_RejectsInvalid(t *testing.T) {
	_, err := inventory.LoadItemsFromBytes([]byte(`- id: x
  name: X
  type: Nope
  rarity: Common
`))
	assert.Error(t, err)
}

func TestLoadItems_SkipsNonYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`- id: a
  name: A
  type: Material
  rarity: Common
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not yaml"), 0644))

	defs, err := inventory.LoadItems(dir)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "a", defs[0].ID)
}

func TestLoadItems_MissingDir(t *testing.T) {
	_, err := inventory.LoadItems("/nonexistent/items")
	assert.Error(t, err)
}
