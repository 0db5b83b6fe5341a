// Package dice provides the randomness abstraction for the combat engine.
//
// Every random decision in a fight (damage spread, critical hits, flee rolls)
// is a single uniform draw in [0, 1). Keeping the draw behind Source lets the
// engine run deterministically under test.
package dice

import "fmt"

// Source is the randomness provider for combat draws.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Float64 returns a uniform random value in [0, 1).
	Float64() float64
}

// Draw is the audit record for a single logged draw.
type Draw struct {
	Purpose string  // what the draw decided, e.g. "critical"
	Value   float64 // the uniform value in [0, 1)
}

// Percent returns the draw scaled to [0, 100).
//
// Postcondition: 0 <= Percent() < 100.
func (d Draw) Percent() float64 {
	return d.Value * 100
}

// String returns a human-readable audit string such as "critical → 0.4213".
//
// Precondition: d.Purpose is non-empty.
func (d Draw) String() string {
	if d.Purpose == "" {
		panic("dice: Draw.String() precondition violated: Purpose must be non-empty")
	}
	return fmt.Sprintf("%s → %.4f", d.Purpose, d.Value)
}
