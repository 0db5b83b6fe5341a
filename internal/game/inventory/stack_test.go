package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

func potion(qty int) inventory.ItemStack {
	return inventory.ItemStack{
		ID: "item-health-potion", Name: "Health Potion",
		Type: inventory.TypeConsumable, Rarity: inventory.RarityCommon, Quantity: qty,
	}
}

func fang(qty int) inventory.ItemStack {
	return inventory.ItemStack{
		ID: "item-lycan-fang", Name: "Lycan Fang",
		Type: inventory.TypeMaterial, Rarity: inventory.RarityUncommon, Quantity: qty,
	}
}

func TestInventory_Add_AccumulatesSameID(t *testing.T) {
	var inv inventory.Inventory
	inv.Add(potion(3))
	inv.Add(potion(2))
	require.Len(t, inv, 1)
	assert.Equal(t, 5, inv[0].Quantity)
}

func TestInventory_Add_DefaultQuantityIsOne(t *testing.T) {
	var inv inventory.Inventory
	inv.Add(potion(0))
	s, ok := inv.Find("item-health-potion")
	require.True(t, ok)
	assert.Equal(t, 1, s.Quantity)
}

func TestInventory_Add_AppendsNewID(t *testing.T) {
	var inv inventory.Inventory
	inv.Add(potion(1))
	inv.Add(fang(1))
	require.Len(t, inv, 2)
	assert.Equal(t, "item-lycan-fang", inv[1].ID)
}

func TestInventory_Remove_Decrements(t *testing.T) {
	inv := inventory.Inventory{potion(3)}
	assert.True(t, inv.Remove("item-health-potion", 1))
	assert.Equal(t, 2, inv[0].Quantity)
}

func TestInventory_Remove_DropsStackWhenExhausted(t *testing.T) {
	inv := inventory.Inventory{potion(2), fang(1)}
	inv.Remove("item-health-potion", 5)
	require.Len(t, inv, 1)
	assert.Equal(t, "item-lycan-fang", inv[0].ID)
}

func TestInventory_Remove_AbsentIsNoop(t *testing.T) {
	inv := inventory.Inventory{fang(1)}
	assert.False(t, inv.Remove("item-health-potion", 1))
	assert.Len(t, inv, 1)
}

func TestInventory_Consumables(t *testing.T) {
	inv := inventory.Inventory{fang(1), potion(2)}
	c := inv.Consumables()
	require.Len(t, c, 1)
	assert.Equal(t, "item-health-potion", c[0].ID)
}

func TestInventory_Clone_IsDeep(t *testing.T) {
	inv := inventory.Inventory{{ID: "r", Name: "Rune", Type: inventory.TypeRune, Rarity: inventory.RarityCommon,
		Quantity: 1, Stats: &inventory.StatBonus{Vit: 2}}}
	cp := inv.Clone()
	cp[0].Quantity = 9
	cp[0].Stats.Vit = 9
	assert.Equal(t, 1, inv[0].Quantity)
	assert.Equal(t, 2, inv[0].Stats.Vit)
}

// Quantities never go non-positive and ids stay unique under any sequence of
// adds and removes.
func TestPropertyInventory_StacksStayValid(t *testing.T) {
	ids := []string{"a", "b", "c"}
	rapid.Check(t, func(rt *rapid.T) {
		var inv inventory.Inventory
		ops := rapid.IntRange(1, 50).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			id := rapid.SampledFrom(ids).Draw(rt, "id")
			qty := rapid.IntRange(0, 5).Draw(rt, "qty")
			if rapid.Bool().Draw(rt, "add") {
				inv.Add(inventory.ItemStack{ID: id, Name: id, Type: inventory.TypeMaterial, Rarity: inventory.RarityCommon, Quantity: qty})
			} else {
				inv.Remove(id, qty)
			}
		}
		seen := map[string]bool{}
		for _, s := range inv {
			if s.Quantity < 1 {
				rt.Fatalf("stack %q has quantity %d", s.ID, s.Quantity)
			}
			if seen[s.ID] {
				rt.Fatalf("duplicate stack %q", s.ID)
			}
			seen[s.ID] = true
		}
	})
}
