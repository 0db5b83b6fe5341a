// Package character defines the character aggregate and its derived-stat rules.
package character

import (
	"errors"
	"fmt"
	"time"

	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/quest"
)

// BaseAttribute is the starting value and the floor of every attribute.
const BaseAttribute = 10

// StartingExpToNext is the experience a level 1 character needs to level up.
const StartingExpToNext = 100

// Stat names one of the five attributes.
type Stat string

// Attribute keys.
const (
	Strength     Stat = "str"
	Agility      Stat = "agi"
	Perception   Stat = "per"
	Intelligence Stat = "int"
	Vitality     Stat = "vit"
)

// ErrUnknownStat is returned by ParseStat for an unrecognised key.
var ErrUnknownStat = errors.New("character: unknown stat")

// AllStats lists the attributes in display order.
var AllStats = []Stat{Strength, Agility, Perception, Intelligence, Vitality}

// ParseStat accepts the short key ("str") or the full name ("strength").
func ParseStat(s string) (Stat, error) {
	switch s {
	case "str", "strength":
		return Strength, nil
	case "agi", "agility":
		return Agility, nil
	case "per", "perception":
		return Perception, nil
	case "int", "intelligence":
		return Intelligence, nil
	case "vit", "vitality":
		return Vitality, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStat, s)
}

// Attributes holds the five base attribute values.
type Attributes struct {
	Strength     int `json:"str" yaml:"str"`
	Agility      int `json:"agi" yaml:"agi"`
	Perception   int `json:"per" yaml:"per"`
	Intelligence int `json:"int" yaml:"int"`
	Vitality     int `json:"vit" yaml:"vit"`
}

// BaseAttributes returns all five attributes at BaseAttribute.
func BaseAttributes() Attributes {
	return Attributes{
		Strength:     BaseAttribute,
		Agility:      BaseAttribute,
		Perception:   BaseAttribute,
		Intelligence: BaseAttribute,
		Vitality:     BaseAttribute,
	}
}

// Get returns the value of s.
func (a Attributes) Get(s Stat) int {
	switch s {
	case Strength:
		return a.Strength
	case Agility:
		return a.Agility
	case Perception:
		return a.Perception
	case Intelligence:
		return a.Intelligence
	case Vitality:
		return a.Vitality
	}
	return 0
}

// Add changes s by n. Unknown stats are ignored.
func (a *Attributes) Add(s Stat, n int) {
	switch s {
	case Strength:
		a.Strength += n
	case Agility:
		a.Agility += n
	case Perception:
		a.Perception += n
	case Intelligence:
		a.Intelligence += n
	case Vitality:
		a.Vitality += n
	}
}

// Rewards is a bundle of experience, gold and items awaiting a claim.
type Rewards struct {
	Exp    int                   `json:"exp"`
	Gold   int                   `json:"gold"`
	Items  []inventory.ItemStack `json:"items,omitempty"`
	Source string                `json:"source,omitempty"`
}

// Clone returns a deep copy of r.
func (r *Rewards) Clone() *Rewards {
	if r == nil {
		return nil
	}
	out := *r
	out.Items = inventory.Inventory(r.Items).Clone()
	return &out
}

// Character is the long-lived aggregate root for one user.
//
// Invariants: 0 <= HP <= MaxHP, 0 <= MP <= MaxMP, every attribute >= BaseAttribute,
// StatPoints >= 0, Gold >= 0, Experience < ExperienceToNextLevel after any
// progression operation.
type Character struct {
	ID                    string              `json:"id"`
	Name                  string              `json:"name"`
	Level                 int                 `json:"level"`
	Experience            int                 `json:"experience"`
	ExperienceToNextLevel int                 `json:"experienceToNextLevel"`
	HP                    int                 `json:"hp"`
	MaxHP                 int                 `json:"maxHp"`
	MP                    int                 `json:"mp"`
	MaxMP                 int                 `json:"maxMp"`
	Attributes            Attributes          `json:"stats"`
	StatPoints            int                 `json:"statPoints"`
	Gold                  int                 `json:"gold"`
	Inventory             inventory.Inventory `json:"inventory"`
	Quests                []quest.Quest       `json:"quests"`
	CompletedQuests       []string            `json:"completedQuests"`
	PendingRewards        *Rewards            `json:"pendingRewards,omitempty"`
	LastRecovery          time.Time           `json:"lastRecovery"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

// New returns a level 1 character with base attributes, full HP/MP, the
// starter quests and an empty inventory.
//
// Postcondition: HP == MaxHP and MP == MaxMP; LastRecovery == now.
func New(id, name string, now time.Time) *Character {
	c := &Character{
		ID:                    id,
		Name:                  name,
		Level:                 1,
		ExperienceToNextLevel: StartingExpToNext,
		Attributes:            BaseAttributes(),
		Inventory:             inventory.Inventory{},
		Quests:                quest.Starter(now),
		CompletedQuests:       []string{},
		LastRecovery:          now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	Recompute(c)
	c.HP = c.MaxHP
	c.MP = c.MaxMP
	return c
}

// Clone returns a deep copy of c.
func (c *Character) Clone() *Character {
	out := *c
	out.Inventory = c.Inventory.Clone()
	if c.Quests != nil {
		out.Quests = make([]quest.Quest, len(c.Quests))
		for i, q := range c.Quests {
			out.Quests[i] = q.Clone()
		}
	}
	if c.CompletedQuests != nil {
		out.CompletedQuests = make([]string, len(c.CompletedQuests))
		copy(out.CompletedQuests, c.CompletedQuests)
	}
	out.PendingRewards = c.PendingRewards.Clone()
	return &out
}

// Vitals returns the HP/MP view used by item effects.
func (c *Character) Vitals() inventory.Vitals {
	return inventory.Vitals{HP: c.HP, MaxHP: c.MaxHP, MP: c.MP, MaxMP: c.MaxMP}
}

// SetVitals writes current HP/MP back from v. Maxima are derived and are not
// taken from v.
func (c *Character) SetVitals(v inventory.Vitals) {
	c.HP = v.HP
	c.MP = v.MP
	clampVitals(c)
}

// QuestIndex returns the index of the quest with id, or -1.
func (c *Character) QuestIndex(id string) int {
	for i := range c.Quests {
		if c.Quests[i].ID == id {
			return i
		}
	}
	return -1
}
