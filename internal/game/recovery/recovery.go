// Package recovery restores a character's HP and MP in fixed wall-clock
// periods, both while the process runs and as a catch-up after downtime.
package recovery

import (
	"fmt"
	"time"

	"github.com/cory-johannsen/levelup/internal/config"
	"github.com/cory-johannsen/levelup/internal/game/character"
)

// Policy is the size and length of one recovery period.
type Policy struct {
	Interval time.Duration
	Percent  int
}

// PolicyFromConfig builds a Policy from the recovery section.
func PolicyFromConfig(cfg config.RecoveryConfig) Policy {
	return Policy{Interval: cfg.Interval, Percent: cfg.Percent}
}

// Amount returns the per-period restoration for a resource with maximum max.
func (p Policy) Amount(max int) int {
	return max * p.Percent / 100
}

// Result reports what one Apply did.
type Result struct {
	Periods int `json:"periods"`
	HP      int `json:"hp"`
	MP      int `json:"mp"`
}

// String renders r for logs and the session log.
func (r Result) String() string {
	return fmt.Sprintf("%d period(s): +%d HP, +%d MP", r.Periods, r.HP, r.MP)
}

// Apply consumes every whole period elapsed since c.LastRecovery.
//
// Precondition: p.Interval > 0.
// Postcondition: c.LastRecovery advanced by exactly Periods*Interval, so
// partial periods carry over. In combat the periods are consumed with no
// restoration. A zero LastRecovery is initialised to now.
func Apply(c *character.Character, p Policy, now time.Time, inCombat bool) Result {
	if p.Interval <= 0 {
		panic("recovery.Apply: interval must be > 0")
	}
	if c.LastRecovery.IsZero() {
		c.LastRecovery = now
		return Result{}
	}
	elapsed := now.Sub(c.LastRecovery)
	if elapsed < p.Interval {
		return Result{}
	}
	periods := int(elapsed / p.Interval)
	c.LastRecovery = c.LastRecovery.Add(time.Duration(periods) * p.Interval)

	res := Result{Periods: periods}
	if inCombat {
		return res
	}
	if c.HP < c.MaxHP {
		before := c.HP
		c.HP = min(c.MaxHP, c.HP+periods*p.Amount(c.MaxHP))
		res.HP = c.HP - before
	}
	if c.MP < c.MaxMP {
		before := c.MP
		c.MP = min(c.MaxMP, c.MP+periods*p.Amount(c.MaxMP))
		res.MP = c.MP - before
	}
	return res
}
