// Package quest defines the real-world task records that feed the progression
// engine.
package quest

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

// Difficulty grades a quest from S (hardest) to E (easiest).
type Difficulty string

// Difficulty grades.
const (
	DifficultyS Difficulty = "S"
	DifficultyA Difficulty = "A"
	DifficultyB Difficulty = "B"
	DifficultyC Difficulty = "C"
	DifficultyD Difficulty = "D"
	DifficultyE Difficulty = "E"
)

// Valid reports whether d is one of S, A, B, C, D, E.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyS, DifficultyA, DifficultyB, DifficultyC, DifficultyD, DifficultyE:
		return true
	}
	return false
}

// StatKeys are the attribute keys accepted in StatRewards.
var StatKeys = []string{"str", "agi", "per", "int", "vit"}

var statNames = map[string]string{
	"str": "Strength",
	"agi": "Agility",
	"per": "Perception",
	"int": "Intelligence",
	"vit": "Vitality",
}

// ErrInvalidDraft is returned when a Draft fails validation.
var ErrInvalidDraft = errors.New("quest: invalid draft")

// Quest is a real-world task with configured rewards.
type Quest struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Reward           string               `json:"reward"`
	Progress         int                  `json:"progress"`
	Difficulty       Difficulty           `json:"difficulty"`
	Expiry           string               `json:"expiry"`
	ExpReward        int                  `json:"expReward"`
	StatPointsReward int                  `json:"statPointsReward"`
	GoldReward       int                  `json:"goldReward"`
	StatRewards      map[string]int       `json:"statRewards,omitempty"`
	ItemRewards      []inventory.ItemSpec `json:"itemRewards,omitempty"`
	Active           bool                 `json:"active"`
	Completed        bool                 `json:"completed"`
	Custom           bool                 `json:"isCustom,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	CompletedAt      *time.Time           `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of q.
func (q Quest) Clone() Quest {
	if q.StatRewards != nil {
		m := make(map[string]int, len(q.StatRewards))
		for k, v := range q.StatRewards {
			m[k] = v
		}
		q.StatRewards = m
	}
	if q.ItemRewards != nil {
		items := make([]inventory.ItemSpec, len(q.ItemRewards))
		copy(items, q.ItemRewards)
		q.ItemRewards = items
	}
	if q.CompletedAt != nil {
		t := *q.CompletedAt
		q.CompletedAt = &t
	}
	return q
}

// Draft is a finished quest that has not been registered yet. It is what a
// human form or the quest generator hands to the core.
type Draft struct {
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Difficulty       Difficulty           `json:"difficulty"`
	Expiry           string               `json:"expiry,omitempty"`
	ExpReward        int                  `json:"expReward"`
	StatPointsReward int                  `json:"statPointsReward"`
	GoldReward       int                  `json:"goldReward"`
	StatRewards      map[string]int       `json:"statRewards,omitempty"`
	ItemRewards      []inventory.ItemSpec `json:"itemRewards,omitempty"`
}

// Validate checks the draft's invariants, reporting every violation.
func (d Draft) Validate() error {
	var errs []string
	if strings.TrimSpace(d.Title) == "" {
		errs = append(errs, "title must not be empty")
	}
	if !d.Difficulty.Valid() {
		errs = append(errs, fmt.Sprintf("difficulty must be one of S, A, B, C, D, E; got %q", d.Difficulty))
	}
	if d.ExpReward < 0 {
		errs = append(errs, "expReward must be >= 0")
	}
	if d.StatPointsReward < 0 {
		errs = append(errs, "statPointsReward must be >= 0")
	}
	if d.GoldReward < 0 {
		errs = append(errs, "goldReward must be >= 0")
	}
	for k, v := range d.StatRewards {
		if _, ok := statNames[k]; !ok {
			errs = append(errs, fmt.Sprintf("unknown stat reward %q", k))
		}
		if v < 0 {
			errs = append(errs, fmt.Sprintf("stat reward %q must be >= 0", k))
		}
	}
	for i, it := range d.ItemRewards {
		if it.ID == "" && it.Name == "" {
			errs = append(errs, fmt.Sprintf("item reward %d needs an id or a name", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(errs, "; "))
	}
	return nil
}

// NewFromDraft registers d as a new custom quest.
//
// Precondition: d.Validate() returns nil.
// Postcondition: the quest has a fresh id, is active, not completed, and at 0% progress.
func NewFromDraft(d Draft, now time.Time) Quest {
	expiry := d.Expiry
	if expiry == "" {
		expiry = "Daily"
	}
	q := Quest{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(d.Title),
		Description:      d.Description,
		Difficulty:       d.Difficulty,
		Expiry:           expiry,
		ExpReward:        d.ExpReward,
		StatPointsReward: d.StatPointsReward,
		GoldReward:       d.GoldReward,
		StatRewards:      d.StatRewards,
		ItemRewards:      d.ItemRewards,
		Active:           true,
		Custom:           true,
		CreatedAt:        now,
	}
	q = q.Clone()
	q.Reward = RewardSummary(q)
	return q
}

// RewardSummary renders the human-readable reward line, e.g.
// "50 Gold, +5 Strength, Focus Potion (Consumable)".
func RewardSummary(q Quest) string {
	var parts []string
	if q.GoldReward > 0 {
		parts = append(parts, fmt.Sprintf("%d Gold", q.GoldReward))
	}
	for _, k := range StatKeys {
		if n := q.StatRewards[k]; n > 0 {
			parts = append(parts, fmt.Sprintf("+%d %s", n, statNames[k]))
		}
	}
	for _, it := range q.ItemRewards {
		name := it.Name
		if name == "" {
			name = it.ID
		}
		if it.Type != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", name, it.Type))
		} else {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "Experience only"
	}
	return strings.Join(parts, ", ")
}

// Patch carries the editable fields of a quest; nil fields are left unchanged.
type Patch struct {
	Title            *string              `json:"title,omitempty"`
	Description      *string              `json:"description,omitempty"`
	Difficulty       *Difficulty          `json:"difficulty,omitempty"`
	Expiry           *string              `json:"expiry,omitempty"`
	ExpReward        *int                 `json:"expReward,omitempty"`
	StatPointsReward *int                 `json:"statPointsReward,omitempty"`
	GoldReward       *int                 `json:"goldReward,omitempty"`
	StatRewards      map[string]int       `json:"statRewards,omitempty"`
	ItemRewards      []inventory.ItemSpec `json:"itemRewards,omitempty"`
}

// Apply returns q with the patch applied.
//
// Postcondition: on error q is returned unchanged; the result always satisfies
// the same invariants as a Draft.
func (p Patch) Apply(q Quest) (Quest, error) {
	out := q.Clone()
	if p.Title != nil {
		out.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Difficulty != nil {
		out.Difficulty = *p.Difficulty
	}
	if p.Expiry != nil {
		out.Expiry = *p.Expiry
	}
	if p.ExpReward != nil {
		out.ExpReward = *p.ExpReward
	}
	if p.StatPointsReward != nil {
		out.StatPointsReward = *p.StatPointsReward
	}
	if p.GoldReward != nil {
		out.GoldReward = *p.GoldReward
	}
	if p.StatRewards != nil {
		out.StatRewards = p.StatRewards
	}
	if p.ItemRewards != nil {
		out.ItemRewards = p.ItemRewards
	}
	if err := draftOf(out).Validate(); err != nil {
		return q, err
	}
	out = out.Clone()
	out.Reward = RewardSummary(out)
	return out, nil
}

func draftOf(q Quest) Draft {
	return Draft{
		Title:            q.Title,
		Description:      q.Description,
		Difficulty:       q.Difficulty,
		Expiry:           q.Expiry,
		ExpReward:        q.ExpReward,
		StatPointsReward: q.StatPointsReward,
		GoldReward:       q.GoldReward,
		StatRewards:      q.StatRewards,
		ItemRewards:      q.ItemRewards,
	}
}

// SortedStatKeys returns the keys of rewards in canonical attribute order.
func SortedStatKeys(rewards map[string]int) []string {
	keys := make([]string, 0, len(rewards))
	for k := range rewards {
		keys = append(keys, k)
	}
	order := map[string]int{}
	for i, k := range StatKeys {
		order[k] = i
	}
	sort.Slice(keys, func(i, j int) bool { return order[keys[i]] < order[keys[j]] })
	return keys
}
