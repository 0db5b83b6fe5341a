// Package combat implements the turn-based fight between a character and a
// bestiary enemy: damage formulas, skills, defend, flee, and the
// victory/defeat resolution that writes back into the character.
package combat

import (
	"math"

	"github.com/cory-johannsen/levelup/internal/game/dice"
)

// Source is the uniform randomness consumed by the damage formulas.
type Source = dice.Source

const (
	// CriticalMultiplier scales a critical hit.
	CriticalMultiplier = 1.5
	// spreadMin and spreadWidth define the [0.8, 1.2] damage spread.
	spreadMin   = 0.8
	spreadWidth = 0.4
)

// DamageRoll is the audit record of one damage computation.
type DamageRoll struct {
	Base     int     `json:"base"`
	Factor   float64 `json:"factor"`
	Critical bool    `json:"critical"`
	Amount   int     `json:"amount"`
}

// ComputeDamage applies the damage formula:
//
//	base   = max(1, floor(attack*1.5 - defense*0.5))
//	amount = floor(base * U[0.8, 1.2) * (1.5 if critical))
//
// Precondition: src must be non-nil.
// Postcondition: result.Amount >= 0. Zero is reachable when base is 1 and the
// spread is below 1.0; it is a valid outcome, not an error.
func ComputeDamage(attack float64, defense int, critical bool, src Source) DamageRoll {
	base := max(1, int(math.Floor(attack*1.5-float64(defense)*0.5)))
	factor := spreadMin + src.Float64()*spreadWidth
	amount := float64(base) * factor
	if critical {
		amount *= CriticalMultiplier
	}
	return DamageRoll{
		Base:     base,
		Factor:   factor,
		Critical: critical,
		Amount:   max(0, int(math.Floor(amount))),
	}
}

// CheckCritical rolls a critical hit: 0.5% chance per point of agility.
func CheckCritical(agility int, src Source) bool {
	return src.Float64()*100 < float64(agility)*0.5
}

// FleeChance returns the flee success percentage, clamped to [0, 100].
func FleeChance(playerAgility, enemyAgility int) int {
	return max(0, min(100, 50+(playerAgility-enemyAgility)*2))
}
