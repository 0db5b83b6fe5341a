package inventory

import "fmt"

// UseConsumable applies one unit of the consumable id to v and removes it
// from inv.
//
// Precondition: inv and catalog are non-nil.
// Postcondition: on error neither inv nor the returned vitals differ from the
// inputs; on success exactly one unit of id has been removed.
func UseConsumable(inv *Inventory, v Vitals, id string, catalog *Catalog) (Vitals, Effect, error) {
	stack, ok := inv.Find(id)
	if !ok {
		return v, Effect{}, fmt.Errorf("%w: %q", ErrItemNotFound, id)
	}
	if stack.Type != TypeConsumable {
		return v, Effect{}, fmt.Errorf("%w: %q", ErrNotConsumable, stack.Name)
	}
	effect := catalog.EffectFor(stack)
	if !effect.Usable() {
		return v, effect, fmt.Errorf("%w: %q", ErrUnknownEffect, stack.Name)
	}
	after, err := effect.Apply(v, catalog.Scripts())
	if err != nil {
		return v, effect, err
	}
	inv.Remove(id, 1)
	return after, effect, nil
}
