package inventory

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog holds the predefined item definitions and their resolved effects,
// indexed by ID.
//
// Catalog is safe for concurrent reads once registration is complete.
type Catalog struct {
	mu      sync.RWMutex
	items   map[string]*ItemDef
	effects map[string]Effect
	scripts ScriptRunner
}

// NewCatalog returns an empty Catalog. scripts may be nil when no item uses a
// scripted effect.
//
// Postcondition: all internal maps are initialised.
func NewCatalog(scripts ScriptRunner) *Catalog {
	return &Catalog{
		items:   make(map[string]*ItemDef),
		effects: make(map[string]Effect),
		scripts: scripts,
	}
}

// NewCatalogFromDefs builds a Catalog holding every def.
//
// Postcondition: returns an error on the first duplicate ID.
func NewCatalogFromDefs(defs []*ItemDef, scripts ScriptRunner) (*Catalog, error) {
	c := NewCatalog(scripts)
	for _, d := range defs {
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds d to the catalog and resolves its effect.
//
// Precondition: d must not be nil.
// Postcondition: Item(d.ID) returns (d, true); returns error if d.ID already registered.
func (c *Catalog) Register(d *ItemDef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[d.ID]; exists {
		return fmt.Errorf("inventory: Catalog.Register: item ID %q already registered", d.ID)
	}
	c.items[d.ID] = d
	c.effects[d.ID] = resolveEffect(d)
	return nil
}

// Item returns the ItemDef for the given id and whether it was found.
func (c *Catalog) Item(id string) (*ItemDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.items[id]
	return d, ok
}

// All returns every registered ItemDef sorted by ID.
func (c *Catalog) All() []*ItemDef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*ItemDef, 0, len(c.items))
	for _, d := range c.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ConsumableIDs returns the IDs of every consumable with a usable effect,
// sorted.
func (c *Catalog) ConsumableIDs() []string {
	var ids []string
	for _, d := range c.All() {
		if d.Type == TypeConsumable && c.effectByID(d.ID).Usable() {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

func (c *Catalog) effectByID(id string) Effect {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.effects[id]
}

// EffectFor resolves the effect of stack: the catalog entry for its id when
// there is one, otherwise the legacy name heuristic.
func (c *Catalog) EffectFor(stack ItemStack) Effect {
	if stack.Type != TypeConsumable {
		return Effect{Kind: EffectNone}
	}
	c.mu.RLock()
	e, ok := c.effects[stack.ID]
	c.mu.RUnlock()
	if ok {
		return e
	}
	return LegacyEffect(stack.Name, stack.Rarity)
}

// Scripts returns the script runner used for scripted effects.
func (c *Catalog) Scripts() ScriptRunner {
	return c.scripts
}
