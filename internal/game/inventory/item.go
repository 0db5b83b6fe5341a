// Package inventory models item stacks, the item catalog, and consumable effects.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ItemType classifies an item.
type ItemType string

// Item types.
const (
	TypeMaterial   ItemType = "Material"
	TypeWeapon     ItemType = "Weapon"
	TypeArmor      ItemType = "Armor"
	TypeAccessory  ItemType = "Accessory"
	TypeConsumable ItemType = "Consumable"
	TypeQuest      ItemType = "Quest"
	TypeRune       ItemType = "Rune"
)

var validTypes = map[ItemType]bool{
	TypeMaterial:   true,
	TypeWeapon:     true,
	TypeArmor:      true,
	TypeAccessory:  true,
	TypeConsumable: true,
	TypeQuest:      true,
	TypeRune:       true,
}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool { return validTypes[t] }

// Rarity is the item quality tier.
type Rarity string

// Rarity tiers, lowest first.
const (
	RarityCommon    Rarity = "Common"
	RarityUncommon  Rarity = "Uncommon"
	RarityRare      Rarity = "Rare"
	RarityEpic      Rarity = "Epic"
	RarityLegendary Rarity = "Legendary"
)

var validRarities = map[Rarity]bool{
	RarityCommon:    true,
	RarityUncommon:  true,
	RarityRare:      true,
	RarityEpic:      true,
	RarityLegendary: true,
}

// Valid reports whether r is a known rarity tier.
func (r Rarity) Valid() bool { return validRarities[r] }

// Resistance holds elemental resistance bonuses.
type Resistance struct {
	Fire      int `json:"fire,omitempty" yaml:"fire"`
	Ice       int `json:"ice,omitempty" yaml:"ice"`
	Lightning int `json:"lightning,omitempty" yaml:"lightning"`
	Poison    int `json:"poison,omitempty" yaml:"poison"`
	Dark      int `json:"dark,omitempty" yaml:"dark"`
}

// StatBonus holds optional attribute and resistance bonuses carried by an item.
type StatBonus struct {
	Str        int         `json:"str,omitempty" yaml:"str"`
	Vit        int         `json:"vit,omitempty" yaml:"vit"`
	Agi        int         `json:"agi,omitempty" yaml:"agi"`
	Int        int         `json:"int,omitempty" yaml:"int"`
	Per        int         `json:"per,omitempty" yaml:"per"`
	Resistance *Resistance `json:"resistance,omitempty" yaml:"resistance"`
}

func (s *StatBonus) clone() *StatBonus {
	if s == nil {
		return nil
	}
	out := *s
	if s.Resistance != nil {
		r := *s.Resistance
		out.Resistance = &r
	}
	return &out
}

// EffectDef is the YAML form of a consumable effect.
type EffectDef struct {
	// Kind is one of "heal", "restore_mana", "script", "legacy", or empty.
	Kind   string `yaml:"kind"`
	HP     int    `yaml:"hp"`
	MP     int    `yaml:"mp"`
	Script string `yaml:"script"`
}

// ItemDef defines the static properties of a catalog item loaded from YAML.
type ItemDef struct {
	ID          string     `yaml:"id"`
	Name        string     `yaml:"name"`
	Type        ItemType   `yaml:"type"`
	Rarity      Rarity     `yaml:"rarity"`
	Description string     `yaml:"description"`
	Value       int        `yaml:"value"`
	Stats       *StatBonus `yaml:"stats"`
	Effect      *EffectDef `yaml:"effect"`
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if !d.Type.Valid() {
		errs = append(errs, fmt.Errorf("Type must be one of Material, Weapon, Armor, Accessory, Consumable, Quest, Rune; got %q", d.Type))
	}
	if !d.Rarity.Valid() {
		errs = append(errs, fmt.Errorf("Rarity must be one of Common, Uncommon, Rare, Epic, Legendary; got %q", d.Rarity))
	}
	if d.Value < 0 {
		errs = append(errs, errors.New("Value must be >= 0"))
	}
	if d.Effect != nil {
		if d.Type != TypeConsumable {
			errs = append(errs, errors.New("Effect is only allowed on Consumable items"))
		}
		if _, err := parseEffectKind(d.Effect.Kind); err != nil {
			errs = append(errs, err)
		}
		if d.Effect.HP < 0 || d.Effect.MP < 0 {
			errs = append(errs, errors.New("Effect amounts must be >= 0"))
		}
		if d.Effect.Kind == "script" && d.Effect.Script == "" {
			errs = append(errs, errors.New("Effect.Script is required when Effect.Kind is script"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// Stack returns a new ItemStack of quantity units of d.
//
// Precondition: quantity >= 1.
func (d *ItemDef) Stack(quantity int) ItemStack {
	return ItemStack{
		ID:          d.ID,
		Name:        d.Name,
		Type:        d.Type,
		Rarity:      d.Rarity,
		Description: d.Description,
		Quantity:    quantity,
		Stats:       d.Stats.clone(),
		Value:       d.Value,
	}
}

// LoadItemsFromBytes parses a YAML document holding a list of ItemDefs.
//
// Postcondition: returns all ItemDefs if every entry validates, else an error.
func LoadItemsFromBytes(data []byte) ([]*ItemDef, error) {
	var defs []*ItemDef
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing items: %w", err)
	}
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("item %q: %w", d.ID, err)
		}
	}
	return defs, nil
}

// LoadItems reads all *.yaml and *.yml files from dir, each holding a list of
// ItemDefs, validates them, and returns the collected slice.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	var items []*ItemDef
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		defs, err := LoadItemsFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: %q: %w", path, err)
		}
		items = append(items, defs...)
	}
	return items, nil
}
