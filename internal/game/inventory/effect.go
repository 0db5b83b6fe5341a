package inventory

import (
	"errors"
	"fmt"
	"strings"
)

// EffectKind is the resolved behaviour of a consumable.
type EffectKind int

const (
	// EffectNone marks an item with no usable effect.
	EffectNone EffectKind = iota
	// EffectHeal restores a fixed amount of HP.
	EffectHeal
	// EffectRestoreMana restores a fixed amount of MP.
	EffectRestoreMana
	// EffectScripted delegates to a Lua script.
	EffectScripted
	// EffectLegacyHeuristic is a heal or mana restore inferred from the item's
	// name and rarity rather than declared in the catalog.
	EffectLegacyHeuristic
)

// String returns the catalog spelling of k.
func (k EffectKind) String() string {
	switch k {
	case EffectHeal:
		return "heal"
	case EffectRestoreMana:
		return "restore_mana"
	case EffectScripted:
		return "script"
	case EffectLegacyHeuristic:
		return "legacy"
	default:
		return "none"
	}
}

func parseEffectKind(s string) (EffectKind, error) {
	switch s {
	case "", "none":
		return EffectNone, nil
	case "heal":
		return EffectHeal, nil
	case "restore_mana":
		return EffectRestoreMana, nil
	case "script":
		return EffectScripted, nil
	case "legacy":
		return EffectLegacyHeuristic, nil
	default:
		return EffectNone, fmt.Errorf("unknown effect kind %q", s)
	}
}

var (
	// ErrItemNotFound is returned when the requested item is not in the inventory.
	ErrItemNotFound = errors.New("inventory: item not found")
	// ErrNotConsumable is returned when a non-consumable item is used.
	ErrNotConsumable = errors.New("inventory: item is not consumable")
	// ErrUnknownEffect is returned when a consumable has no recognised effect.
	ErrUnknownEffect = errors.New("inventory: item has no known effect")
	// ErrNoScriptRunner is returned when a scripted effect is used without a runner.
	ErrNoScriptRunner = errors.New("inventory: scripted effect requires a script runner")
)

// Vitals is the HP/MP state an effect acts upon.
type Vitals struct {
	HP    int
	MaxHP int
	MP    int
	MaxMP int
}

// Restore adds hp and mp, each capped at its maximum.
//
// Postcondition: v.HP <= v.MaxHP and v.MP <= v.MaxMP unless they already exceeded it.
func (v Vitals) Restore(hp, mp int) Vitals {
	if hp > 0 && v.HP < v.MaxHP {
		v.HP = min(v.HP+hp, v.MaxHP)
	}
	if mp > 0 && v.MP < v.MaxMP {
		v.MP = min(v.MP+mp, v.MaxMP)
	}
	return v
}

// ScriptRunner evaluates a scripted consumable against the current vitals and
// returns the HP and MP to restore.
type ScriptRunner interface {
	RunEffect(script string, v Vitals) (hp, mp int, err error)
}

// Effect is a consumable effect resolved once when the catalog is built.
type Effect struct {
	Kind   EffectKind
	HP     int
	MP     int
	Script string
}

// Usable reports whether the effect does anything when consumed.
func (e Effect) Usable() bool {
	switch e.Kind {
	case EffectHeal, EffectRestoreMana, EffectScripted:
		return true
	case EffectLegacyHeuristic:
		return e.HP > 0 || e.MP > 0
	default:
		return false
	}
}

// Apply returns v after the effect.
//
// Precondition: runner is non-nil when e.Kind is EffectScripted.
// Postcondition: on error v is returned unchanged.
func (e Effect) Apply(v Vitals, runner ScriptRunner) (Vitals, error) {
	switch e.Kind {
	case EffectHeal, EffectRestoreMana, EffectLegacyHeuristic:
		if !e.Usable() {
			return v, ErrUnknownEffect
		}
		return v.Restore(e.HP, e.MP), nil
	case EffectScripted:
		if runner == nil {
			return v, ErrNoScriptRunner
		}
		hp, mp, err := runner.RunEffect(e.Script, v)
		if err != nil {
			return v, fmt.Errorf("running item script: %w", err)
		}
		return v.Restore(hp, mp), nil
	default:
		return v, ErrUnknownEffect
	}
}

type rarityMagnitude struct{ hp, mp int }

var legacyMagnitudes = map[Rarity]rarityMagnitude{
	RarityCommon:    {50, 25},
	RarityUncommon:  {100, 50},
	RarityRare:      {200, 100},
	RarityEpic:      {350, 175},
	RarityLegendary: {500, 250},
}

// LegacyEffect infers an effect from an item's name and rarity: names
// mentioning "health", "healing" or "hp" heal, names mentioning "mana" or "mp"
// restore mana. Anything else resolves to EffectNone.
func LegacyEffect(name string, rarity Rarity) Effect {
	mag, ok := legacyMagnitudes[rarity]
	if !ok {
		mag = legacyMagnitudes[RarityCommon]
	}
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "health"), strings.Contains(n, "healing"), strings.Contains(n, "hp"):
		return Effect{Kind: EffectLegacyHeuristic, HP: mag.hp}
	case strings.Contains(n, "mana"), strings.Contains(n, "mp"):
		return Effect{Kind: EffectLegacyHeuristic, MP: mag.mp}
	default:
		return Effect{Kind: EffectNone}
	}
}

// resolveEffect turns a catalog entry into its Effect.
func resolveEffect(d *ItemDef) Effect {
	if d.Type != TypeConsumable {
		return Effect{Kind: EffectNone}
	}
	if d.Effect == nil {
		return LegacyEffect(d.Name, d.Rarity)
	}
	kind, err := parseEffectKind(d.Effect.Kind)
	if err != nil {
		return Effect{Kind: EffectNone}
	}
	switch kind {
	case EffectHeal:
		return Effect{Kind: EffectHeal, HP: d.Effect.HP}
	case EffectRestoreMana:
		return Effect{Kind: EffectRestoreMana, MP: d.Effect.MP}
	case EffectScripted:
		return Effect{Kind: EffectScripted, Script: d.Effect.Script}
	case EffectLegacyHeuristic:
		return LegacyEffect(d.Name, d.Rarity)
	default:
		return Effect{Kind: EffectNone}
	}
}
