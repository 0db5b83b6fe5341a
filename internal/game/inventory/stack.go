package inventory

// ItemStack is an inventory entry of a given item id with a quantity.
type ItemStack struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        ItemType   `json:"type"`
	Rarity      Rarity     `json:"rarity"`
	Description string     `json:"description"`
	Quantity    int        `json:"quantity"`
	Stats       *StatBonus `json:"stats,omitempty"`
	Value       int        `json:"value,omitempty"`
}

// Clone returns a deep copy of s.
func (s ItemStack) Clone() ItemStack {
	s.Stats = s.Stats.clone()
	return s
}

// Inventory is an ordered collection of stacks keyed by item id: a given id
// appears at most once.
type Inventory []ItemStack

// Find returns the stack with the given id.
//
// Postcondition: ok is true iff a stack with id exists.
func (inv Inventory) Find(id string) (ItemStack, bool) {
	if i := inv.index(id); i >= 0 {
		return inv[i], true
	}
	return ItemStack{}, false
}

func (inv Inventory) index(id string) int {
	for i := range inv {
		if inv[i].ID == id {
			return i
		}
	}
	return -1
}

// Add merges item into the inventory. A quantity below 1 counts as 1.
//
// Postcondition: if a stack with item.ID existed its quantity grew by the
// incoming quantity; otherwise a new stack was appended.
func (inv *Inventory) Add(item ItemStack) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if i := inv.index(item.ID); i >= 0 {
		(*inv)[i].Quantity += item.Quantity
		return
	}
	*inv = append(*inv, item.Clone())
}

// Remove takes quantity units of id out of the inventory. A quantity below 1
// counts as 1. Removing an absent id is a no-op.
//
// Postcondition: the stack shrinks by quantity, or is dropped when it held no
// more than quantity units; no stack ever holds a non-positive quantity.
func (inv *Inventory) Remove(id string, quantity int) bool {
	if quantity < 1 {
		quantity = 1
	}
	i := inv.index(id)
	if i < 0 {
		return false
	}
	if (*inv)[i].Quantity > quantity {
		(*inv)[i].Quantity -= quantity
		return true
	}
	*inv = append((*inv)[:i], (*inv)[i+1:]...)
	return true
}

// Consumables returns the consumable stacks in inventory order.
func (inv Inventory) Consumables() []ItemStack {
	var out []ItemStack
	for _, s := range inv {
		if s.Type == TypeConsumable {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of inv.
func (inv Inventory) Clone() Inventory {
	if inv == nil {
		return nil
	}
	out := make(Inventory, len(inv))
	for i, s := range inv {
		out[i] = s.Clone()
	}
	return out
}
