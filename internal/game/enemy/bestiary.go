package enemy

import (
	"fmt"
	"sort"

	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

// Bestiary indexes enemies by id. It is immutable after construction and safe
// for concurrent use.
type Bestiary struct {
	byID    map[string]*Enemy
	ordered []*Enemy
}

// NewBestiary resolves every enemy's loot through factory and indexes the
// result.
//
// Precondition: factory must be non-nil.
// Postcondition: returns an error on duplicate ids or unresolvable loot.
func NewBestiary(enemies []*Enemy, factory inventory.Factory) (*Bestiary, error) {
	b := &Bestiary{byID: make(map[string]*Enemy, len(enemies))}
	for _, e := range enemies {
		if _, dup := b.byID[e.ID]; dup {
			return nil, fmt.Errorf("enemy: duplicate id %q", e.ID)
		}
		loot := make([]inventory.ItemStack, 0, len(e.Rewards.Items))
		for _, spec := range e.Rewards.Items {
			it, err := factory.Resolve(spec)
			if err != nil {
				return nil, fmt.Errorf("enemy %q loot: %w", e.ID, err)
			}
			loot = append(loot, it)
		}
		e.Loot = loot
		b.byID[e.ID] = e
		b.ordered = append(b.ordered, e)
	}
	sort.SliceStable(b.ordered, func(i, j int) bool {
		if b.ordered[i].Level != b.ordered[j].Level {
			return b.ordered[i].Level < b.ordered[j].Level
		}
		return b.ordered[i].ID < b.ordered[j].ID
	})
	return b, nil
}

// Get returns the enemy with id.
func (b *Bestiary) Get(id string) (*Enemy, error) {
	e, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEnemy, id)
	}
	return e, nil
}

// All returns every enemy ordered by level.
func (b *Bestiary) All() []*Enemy {
	out := make([]*Enemy, len(b.ordered))
	copy(out, b.ordered)
	return out
}
