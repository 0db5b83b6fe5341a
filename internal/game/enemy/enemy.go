// Package enemy provides the static bestiary: enemy definitions loaded from
// YAML and their reward tables.
package enemy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

// ErrUnknownEnemy is returned when no enemy has the requested id.
var ErrUnknownEnemy = errors.New("enemy: unknown enemy")

// LootTable lists what an enemy yields on defeat.
type LootTable struct {
	Gold  int                  `yaml:"gold" json:"gold"`
	Exp   int                  `yaml:"exp" json:"exp"`
	Items []inventory.ItemSpec `yaml:"items" json:"-"`
}

// Validate checks that the loot table satisfies its invariants.
func (l LootTable) Validate() error {
	if l.Gold < 0 {
		return fmt.Errorf("loot: gold must be >= 0")
	}
	if l.Exp < 0 {
		return fmt.Errorf("loot: exp must be >= 0")
	}
	for i, it := range l.Items {
		if it.ID == "" && it.Name == "" {
			return fmt.Errorf("loot: item %d needs an id or a name", i)
		}
	}
	return nil
}

// Enemy is a read-only bestiary entry. Its HP is derived, never stored.
type Enemy struct {
	ID          string               `yaml:"id" json:"id"`
	Name        string               `yaml:"name" json:"name"`
	Description string               `yaml:"description" json:"description"`
	Level       int                  `yaml:"level" json:"level"`
	Attributes  character.Attributes `yaml:"attributes" json:"stats"`
	Rewards     LootTable            `yaml:"rewards" json:"rewards"`

	// Loot holds Rewards.Items resolved into stacks by the Bestiary.
	Loot []inventory.ItemStack `yaml:"-" json:"items"`
}

// MaxHP returns the enemy's derived maximum HP.
func (e *Enemy) MaxHP() int {
	return character.DeriveMaxHP(e.Level, e.Attributes.Vitality)
}

// RewardBundle returns a fresh copy of the enemy's rewards, ready to stage.
//
// Postcondition: the returned items do not alias e.Loot.
func (e *Enemy) RewardBundle() character.Rewards {
	return character.Rewards{
		Exp:    e.Rewards.Exp,
		Gold:   e.Rewards.Gold,
		Items:  inventory.Inventory(e.Loot).Clone(),
		Source: e.ID,
	}
}

// Validate checks that the enemy satisfies basic invariants.
//
// Precondition: e must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Level >= 1, and no
// attribute is negative; returns an error on the first violation otherwise.
func (e *Enemy) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("enemy: id must not be empty")
	}
	if e.Name == "" {
		return fmt.Errorf("enemy %q: name must not be empty", e.ID)
	}
	if e.Level < 1 {
		return fmt.Errorf("enemy %q: level must be >= 1", e.ID)
	}
	for _, s := range character.AllStats {
		if e.Attributes.Get(s) < 0 {
			return fmt.Errorf("enemy %q: attribute %s must be >= 0", e.ID, s)
		}
	}
	if err := e.Rewards.Validate(); err != nil {
		return fmt.Errorf("enemy %q: %w", e.ID, err)
	}
	return nil
}

// LoadEnemyFromBytes parses a single enemy from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Enemy.
// Postcondition: Returns a validated *Enemy, or an error.
func LoadEnemyFromBytes(data []byte) (*Enemy, error) {
	var e Enemy
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing enemy YAML: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// LoadEnemies reads all *.yaml files in dir and returns the parsed enemies.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all enemies or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadEnemies(dir string) ([]*Enemy, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading enemy dir %q: %w", dir, err)
	}

	var enemies []*Enemy
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		e, err := LoadEnemyFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		enemies = append(enemies, e)
	}
	return enemies, nil
}
