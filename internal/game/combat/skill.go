package combat

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/levelup/internal/game/character"
)

// SkillKind is the resolved behaviour of a skill.
type SkillKind int

// Skill kinds.
const (
	SkillPowerStrike SkillKind = iota + 1
	SkillDoubleSlash
	SkillFireball
	SkillHeal
)

var skillKinds = map[string]SkillKind{
	"power_strike": SkillPowerStrike,
	"double_slash": SkillDoubleSlash,
	"fireball":     SkillFireball,
	"heal":         SkillHeal,
}

// String returns the catalog spelling of k.
func (k SkillKind) String() string {
	for name, v := range skillKinds {
		if v == k {
			return name
		}
	}
	return "unknown"
}

// Requirement is the attribute minimum a skill needs. A zero Value means none.
type Requirement struct {
	Stat  character.Stat `yaml:"stat" json:"stat"`
	Value int            `yaml:"value" json:"value"`
}

// Skill is a combat skill definition.
type Skill struct {
	Name        string      `yaml:"name" json:"name"`
	Effect      string      `yaml:"effect" json:"effect"`
	MPCost      int         `yaml:"mp_cost" json:"mpCost"`
	Cooldown    int         `yaml:"cooldown" json:"cooldown"`
	Requires    Requirement `yaml:"requires" json:"requires"`
	Description string      `yaml:"description" json:"description"`

	// Kind is resolved from Effect when the skill is loaded.
	Kind SkillKind `yaml:"-" json:"-"`
}

// Validate checks the skill's invariants and resolves Kind.
//
// Postcondition: on success s.Kind is non-zero.
func (s *Skill) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("skill: name must not be empty")
	}
	kind, ok := skillKinds[s.Effect]
	if !ok {
		return fmt.Errorf("skill %q: unknown effect %q", s.Name, s.Effect)
	}
	if s.MPCost < 0 {
		return fmt.Errorf("skill %q: mp_cost must be >= 0", s.Name)
	}
	if s.Cooldown < 0 {
		return fmt.Errorf("skill %q: cooldown must be >= 0", s.Name)
	}
	if s.Requires.Value > 0 {
		if _, err := character.ParseStat(string(s.Requires.Stat)); err != nil {
			return fmt.Errorf("skill %q: %w", s.Name, err)
		}
	}
	s.Kind = kind
	return nil
}

// Unlocked reports whether attrs meet the skill's requirement.
func (s *Skill) Unlocked(attrs character.Attributes) bool {
	if s.Requires.Value <= 0 {
		return true
	}
	stat, err := character.ParseStat(string(s.Requires.Stat))
	if err != nil {
		return false
	}
	return attrs.Get(stat) >= s.Requires.Value
}

// LoadSkillsFromBytes parses a YAML list of skills.
func LoadSkillsFromBytes(data []byte) ([]*Skill, error) {
	var skills []*Skill
	if err := yaml.Unmarshal(data, &skills); err != nil {
		return nil, fmt.Errorf("parsing skills YAML: %w", err)
	}
	for _, s := range skills {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return skills, nil
}

// LoadSkills reads all *.yaml files in dir.
//
// Precondition: dir must be a readable directory.
func LoadSkills(dir string) ([]*Skill, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading skill dir %q: %w", dir, err)
	}
	var skills []*Skill
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		loaded, err := LoadSkillsFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		skills = append(skills, loaded...)
	}
	return skills, nil
}

// SkillBook indexes skills by name. It is immutable after construction.
type SkillBook struct {
	byName map[string]*Skill
}

// NewSkillBook indexes skills, rejecting duplicate names.
func NewSkillBook(skills []*Skill) (*SkillBook, error) {
	b := &SkillBook{byName: make(map[string]*Skill, len(skills))}
	for _, s := range skills {
		if _, dup := b.byName[s.Name]; dup {
			return nil, fmt.Errorf("skill: duplicate name %q", s.Name)
		}
		b.byName[s.Name] = s
	}
	return b, nil
}

// Get returns the skill called name.
func (b *SkillBook) Get(name string) (*Skill, bool) {
	s, ok := b.byName[name]
	return s, ok
}

// All returns every skill sorted by MP cost, then name.
func (b *SkillBook) All() []*Skill {
	out := make([]*Skill, 0, len(b.byName))
	for _, s := range b.byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MPCost != out[j].MPCost {
			return out[i].MPCost < out[j].MPCost
		}
		return out[i].Name < out[j].Name
	})
	return out
}
