// Package questgen turns a free-text task description into a quest.Draft by
// asking the Anthropic Messages API for a structured quest.
package questgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/cory-johannsen/levelup/internal/config"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/quest"
)

var (
	// ErrDisabled is returned when no API key is configured.
	ErrDisabled = errors.New("questgen: no API key configured")
	// ErrEmptyInput is returned for a blank task description.
	ErrEmptyInput = errors.New("questgen: task description must not be empty")
	// ErrBadResponse is returned when the model reply holds no usable quest.
	ErrBadResponse = errors.New("questgen: unusable model response")
)

// Reward ranges the model is asked for and that replies are clamped to.
const (
	minExp, maxExp               = 10, 500
	minStatPoints, maxStatPoints = 1, 10
	minGold, maxGold             = 10, 1000
	maxItems                     = 2
)

// MessageClient is the subset of the Anthropic Messages service the
// generator needs.
type MessageClient interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Generator drafts quests. A Generator without a client reports ErrDisabled.
type Generator struct {
	client    MessageClient
	model     string
	maxTokens int64
	catalog   *inventory.Catalog
	logger    *zap.Logger
}

// New builds a Generator from configuration. An empty API key yields a
// disabled Generator rather than an error so the rest of the service runs.
//
// Precondition: catalog and logger must be non-nil.
func New(cfg config.QuestGenConfig, catalog *inventory.Catalog, logger *zap.Logger) *Generator {
	var client MessageClient
	if cfg.APIKey != "" {
		c := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
		client = &c.Messages
	}
	return NewWithClient(client, cfg.Model, cfg.MaxTokens, catalog, logger)
}

// NewWithClient builds a Generator over an explicit client.
//
// Precondition: catalog and logger must be non-nil.
func NewWithClient(client MessageClient, model string, maxTokens int64, catalog *inventory.Catalog, logger *zap.Logger) *Generator {
	if catalog == nil || logger == nil {
		panic("questgen.NewWithClient: catalog and logger must not be nil")
	}
	return &Generator{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		catalog:   catalog,
		logger:    logger,
	}
}

// Enabled reports whether the generator can reach the model.
func (g *Generator) Enabled() bool { return g.client != nil }

// Draft asks the model to grade and reward task.
//
// Postcondition: on success the draft passes quest.Draft.Validate, every
// reward lies in its documented range and consumable rewards reference
// catalog ids.
func (g *Generator) Draft(ctx context.Context, task string) (quest.Draft, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return quest.Draft{}, ErrEmptyInput
	}
	if g.client == nil {
		return quest.Draft{}, ErrDisabled
	}

	msg, err := g.client.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: g.systemPrompt()}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(task)),
		},
	})
	if err != nil {
		return quest.Draft{}, fmt.Errorf("questgen: requesting draft: %w", err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	d, err := g.parse(text.String(), task)
	if err != nil {
		g.logger.Warn("questgen: rejected model reply", zap.Error(err))
		return quest.Draft{}, err
	}
	g.logger.Info("quest drafted",
		zap.String("title", d.Title),
		zap.String("difficulty", string(d.Difficulty)),
	)
	return d, nil
}

func (g *Generator) systemPrompt() string {
	var b strings.Builder
	b.WriteString(`You grade real-world tasks for a self-improvement RPG.
Fix grammar and typos in the title and description but keep their meaning.
Reply with one JSON object and nothing else:
{
  "title": string,
  "description": string,
  "difficulty": one of "S","A","B","C","D","E" (S hardest),
  "expReward": integer 10-500,
  "statPointsReward": integer 1-10,
  "goldReward": integer 10-1000,
  "statRewards": {"str"?: int, "agi"?: int, "per"?: int, "int"?: int, "vit"?: int},
  "itemRewards": [{"name": string, "type": "Material|Consumable|Weapon|Armor|Accessory|Rune", "description": string, "id"?: string}]
}
Physical tasks reward str and vit; mental tasks reward int and per.
Give 1-2 item rewards only for S, A and B quests.
Consumable rewards must use one of these ids:
`)
	for _, id := range g.catalog.ConsumableIDs() {
		fmt.Fprintf(&b, "- %s\n", id)
	}
	return b.String()
}

type reply struct {
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Difficulty       string         `json:"difficulty"`
	ExpReward        int            `json:"expReward"`
	StatPointsReward int            `json:"statPointsReward"`
	GoldReward       int            `json:"goldReward"`
	StatRewards      map[string]int `json:"statRewards"`
	ItemRewards      []struct {
		Name        string `json:"name"`
		Type        string `json:"type"`
		Description string `json:"description"`
		ID          string `json:"id"`
	} `json:"itemRewards"`
}

// parse extracts and normalises the JSON object in text.
func (g *Generator) parse(text, task string) (quest.Draft, error) {
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return quest.Draft{}, fmt.Errorf("%w: no JSON object", ErrBadResponse)
	}
	var r reply
	if err := json.Unmarshal([]byte(text[start:end+1]), &r); err != nil {
		return quest.Draft{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	d := quest.Draft{
		Title:            strings.TrimSpace(r.Title),
		Description:      strings.TrimSpace(r.Description),
		Difficulty:       quest.Difficulty(strings.ToUpper(strings.TrimSpace(r.Difficulty))),
		ExpReward:        clamp(r.ExpReward, minExp, maxExp),
		StatPointsReward: clamp(r.StatPointsReward, minStatPoints, maxStatPoints),
		GoldReward:       clamp(r.GoldReward, minGold, maxGold),
	}
	if d.Title == "" {
		d.Title = task
	}
	if !d.Difficulty.Valid() {
		d.Difficulty = quest.DifficultyC
	}
	for _, k := range quest.StatKeys {
		if v := r.StatRewards[k]; v > 0 {
			if d.StatRewards == nil {
				d.StatRewards = make(map[string]int)
			}
			d.StatRewards[k] = v
		}
	}
	if d.Difficulty == quest.DifficultyS || d.Difficulty == quest.DifficultyA || d.Difficulty == quest.DifficultyB {
		for _, it := range r.ItemRewards {
			if len(d.ItemRewards) == maxItems {
				break
			}
			if spec, ok := g.itemSpec(it.ID, it.Name, it.Type, it.Description); ok {
				d.ItemRewards = append(d.ItemRewards, spec)
			}
		}
	}
	if err := d.Validate(); err != nil {
		return quest.Draft{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return d, nil
}

// itemSpec keeps catalog items by id, drops consumables outside the catalog
// and turns anything else into a custom item.
func (g *Generator) itemSpec(id, name, typ, desc string) (inventory.ItemSpec, bool) {
	if def, ok := g.catalog.Item(id); ok {
		return inventory.ItemSpec{ID: def.ID, Quantity: 1}, true
	}
	t := inventory.ItemType(typ)
	if t == inventory.TypeConsumable || !t.Valid() || strings.TrimSpace(name) == "" {
		return inventory.ItemSpec{}, false
	}
	return inventory.ItemSpec{
		Name:        strings.TrimSpace(name),
		Type:        t,
		Rarity:      inventory.RarityCommon,
		Description: desc,
		Quantity:    1,
	}, true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
