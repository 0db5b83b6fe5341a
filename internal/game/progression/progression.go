// Package progression implements experience gain, level-ups, quest completion
// and reward grants on a character.
package progression

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/quest"
)

var (
	// ErrQuestNotFound is returned when no quest has the requested id.
	ErrQuestNotFound = errors.New("progression: quest not found")
	// ErrQuestCompleted is returned when a completed quest is completed or edited again.
	ErrQuestCompleted = errors.New("progression: quest already completed")
)

// Policy selects how a level-up grows the character.
type Policy int

const (
	// AutoGrowth adds 1 to every attribute per level and grants no points.
	AutoGrowth Policy = iota
	// StatPoints grants allocatable points per level and no attribute growth.
	StatPoints
)

// String returns the config spelling of p.
func (p Policy) String() string {
	if p == StatPoints {
		return "stat_points"
	}
	return "auto_growth"
}

// ParsePolicy accepts "auto_growth" or "stat_points".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "auto_growth", "":
		return AutoGrowth, nil
	case "stat_points":
		return StatPoints, nil
	}
	return AutoGrowth, fmt.Errorf("progression: unknown leveling policy %q", s)
}

// EventKind classifies a progression event.
type EventKind string

// Progression event kinds.
const (
	EventLevelUp        EventKind = "level_up"
	EventQuestCompleted EventKind = "quest_completed"
	EventRewards        EventKind = "rewards"
)

// Event is one narrative log entry produced by a progression operation.
type Event struct {
	Kind      EventKind `json:"kind"`
	Narrative string    `json:"narrative"`
}

// ExpToNextLevel returns the experience needed to leave level.
//
// Precondition: level >= 1.
func ExpToNextLevel(level int) int {
	return int(math.Floor(100 * math.Pow(1.1, float64(level-1))))
}

// Engine applies progression rules under one leveling policy.
type Engine struct {
	policy         Policy
	pointsPerLevel int
	factory        inventory.Factory
	logger         *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: factory and logger must be non-nil; pointsPerLevel >= 0.
func NewEngine(policy Policy, pointsPerLevel int, factory inventory.Factory, logger *zap.Logger) *Engine {
	if factory == nil || logger == nil {
		panic("progression: NewEngine requires non-nil factory and logger")
	}
	return &Engine{policy: policy, pointsPerLevel: pointsPerLevel, factory: factory, logger: logger}
}

// Policy returns the engine's leveling policy.
func (e *Engine) Policy() Policy { return e.policy }

// Factory returns the item factory used for quest item rewards.
func (e *Engine) Factory() inventory.Factory { return e.factory }

// AddExperience adds amount and cascades level-ups.
//
// Postcondition: c.Experience < c.ExperienceToNextLevel; returns the number of
// levels gained. Non-positive amounts change nothing.
func (e *Engine) AddExperience(c *character.Character, amount int) (int, []Event) {
	if amount <= 0 {
		return 0, nil
	}
	if c.ExperienceToNextLevel <= 0 {
		c.ExperienceToNextLevel = ExpToNextLevel(c.Level)
	}
	c.Experience += amount
	var events []Event
	levels := 0
	for c.Experience >= c.ExperienceToNextLevel {
		events = append(events, e.LevelUp(c))
		levels++
	}
	return levels, events
}

// LevelUp advances c one level, carrying surplus experience forward.
//
// Postcondition: HP and MP equal their new maxima.
func (e *Engine) LevelUp(c *character.Character) Event {
	c.Level++
	c.Experience = max(0, c.Experience-c.ExperienceToNextLevel)
	c.ExperienceToNextLevel = ExpToNextLevel(c.Level)
	switch e.policy {
	case StatPoints:
		c.StatPoints += e.pointsPerLevel
	default:
		for _, s := range character.AllStats {
			c.Attributes.Add(s, 1)
		}
	}
	character.Recompute(c)
	character.RestoreFull(c)

	e.logger.Info("level up",
		zap.String("character_id", c.ID),
		zap.Int("level", c.Level),
		zap.String("policy", e.policy.String()),
	)
	return Event{Kind: EventLevelUp, Narrative: fmt.Sprintf("Level up! %s reached level %d.", c.Name, c.Level)}
}

// Result summarises a quest completion.
type Result struct {
	QuestID      string                `json:"questId"`
	LevelsGained int                   `json:"levelsGained"`
	Items        []inventory.ItemStack `json:"items,omitempty"`
	Events       []Event               `json:"events"`
}

// CompleteQuest grants the rewards of quest id and marks it completed.
//
// Postcondition: on error c is unchanged.
func (e *Engine) CompleteQuest(c *character.Character, id string, now time.Time) (Result, error) {
	i := c.QuestIndex(id)
	if i < 0 {
		return Result{}, fmt.Errorf("%w: %q", ErrQuestNotFound, id)
	}
	q := c.Quests[i]
	if q.Completed {
		return Result{}, fmt.Errorf("%w: %q", ErrQuestCompleted, id)
	}
	items, err := e.resolveItems(q.ItemRewards)
	if err != nil {
		return Result{}, fmt.Errorf("quest %q rewards: %w", id, err)
	}

	res := Result{QuestID: id, Items: items}
	res.LevelsGained, res.Events = e.AddExperience(c, q.ExpReward)
	c.StatPoints += max(0, q.StatPointsReward)
	character.AddGold(c, max(0, q.GoldReward))
	character.ApplyStatRewards(c, q.StatRewards)
	for _, it := range items {
		c.Inventory.Add(it)
	}

	completedAt := now
	q.Completed = true
	q.Active = false
	q.Progress = 100
	q.CompletedAt = &completedAt
	c.Quests[i] = q
	c.CompletedQuests = append(c.CompletedQuests, id)

	res.Events = append([]Event{{
		Kind:      EventQuestCompleted,
		Narrative: fmt.Sprintf("Quest complete: %s. Rewards: %d EXP, %s.", q.Title, q.ExpReward, q.Reward),
	}}, res.Events...)
	e.logger.Info("quest completed",
		zap.String("character_id", c.ID),
		zap.String("quest_id", id),
		zap.Int("levels_gained", res.LevelsGained),
	)
	return res, nil
}

func (e *Engine) resolveItems(specs []inventory.ItemSpec) ([]inventory.ItemStack, error) {
	items := make([]inventory.ItemStack, 0, len(specs))
	for _, spec := range specs {
		it, err := e.factory.Resolve(spec)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// pinItems resolves specs once and returns specs that reproduce the resolved
// stacks, so user-defined items keep the id they were given here.
func (e *Engine) pinItems(specs []inventory.ItemSpec) ([]inventory.ItemSpec, error) {
	items, err := e.resolveItems(specs)
	if err != nil {
		return nil, fmt.Errorf("quest item rewards: %w", err)
	}
	pinned := make([]inventory.ItemSpec, len(items))
	for i, it := range items {
		pinned[i] = inventory.SpecFor(it)
	}
	return pinned, nil
}

// AddQuest registers d as a new custom quest. Item rewards are resolved up
// front so that user-defined items keep a stable id.
//
// Postcondition: on error c is unchanged.
func (e *Engine) AddQuest(c *character.Character, d quest.Draft, now time.Time) (quest.Quest, error) {
	if err := d.Validate(); err != nil {
		return quest.Quest{}, err
	}
	if d.ItemRewards != nil {
		pinned, err := e.pinItems(d.ItemRewards)
		if err != nil {
			return quest.Quest{}, err
		}
		d.ItemRewards = pinned
	}
	q := quest.NewFromDraft(d, now)
	c.Quests = append(c.Quests, q)
	return q, nil
}

// UpdateQuest applies p to quest id. Replacement item rewards are pinned the
// same way AddQuest pins them.
//
// Postcondition: on error c is unchanged.
func (e *Engine) UpdateQuest(c *character.Character, id string, p quest.Patch) (quest.Quest, error) {
	i := c.QuestIndex(id)
	if i < 0 {
		return quest.Quest{}, fmt.Errorf("%w: %q", ErrQuestNotFound, id)
	}
	if c.Quests[i].Completed {
		return quest.Quest{}, fmt.Errorf("%w: %q", ErrQuestCompleted, id)
	}
	if p.ItemRewards != nil {
		pinned, err := e.pinItems(p.ItemRewards)
		if err != nil {
			return quest.Quest{}, err
		}
		p.ItemRewards = pinned
	}
	q, err := p.Apply(c.Quests[i])
	if err != nil {
		return quest.Quest{}, err
	}
	c.Quests[i] = q
	return q, nil
}

// UpdateQuestProgress sets the progress of quest id, clamped to [0, 100].
func (e *Engine) UpdateQuestProgress(c *character.Character, id string, progress int) (quest.Quest, error) {
	i := c.QuestIndex(id)
	if i < 0 {
		return quest.Quest{}, fmt.Errorf("%w: %q", ErrQuestNotFound, id)
	}
	if c.Quests[i].Completed {
		return quest.Quest{}, fmt.Errorf("%w: %q", ErrQuestCompleted, id)
	}
	c.Quests[i].Progress = max(0, min(progress, 100))
	return c.Quests[i].Clone(), nil
}

// DeleteQuest removes quest id. Its entry in CompletedQuests, if any, is kept.
func (e *Engine) DeleteQuest(c *character.Character, id string) error {
	i := c.QuestIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrQuestNotFound, id)
	}
	c.Quests = append(c.Quests[:i], c.Quests[i+1:]...)
	return nil
}

// GrantRewards applies a reward bundle: experience (with level cascade), gold
// and items.
func (e *Engine) GrantRewards(c *character.Character, r character.Rewards) (int, []Event) {
	levels, events := e.AddExperience(c, r.Exp)
	character.AddGold(c, max(0, r.Gold))
	for _, it := range r.Items {
		c.Inventory.Add(it)
	}
	e.logger.Info("rewards granted",
		zap.String("character_id", c.ID),
		zap.String("source", r.Source),
		zap.Int("exp", r.Exp),
		zap.Int("gold", r.Gold),
		zap.Int("items", len(r.Items)),
	)
	granted := Event{
		Kind:      EventRewards,
		Narrative: fmt.Sprintf("Claimed %d EXP, %d gold and %d item(s).", r.Exp, r.Gold, len(r.Items)),
	}
	return levels, append([]Event{granted}, events...)
}
