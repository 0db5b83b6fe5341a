package recovery_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/recovery"
)

var (
	start  = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	policy = recovery.Policy{Interval: 5 * time.Minute, Percent: 10}
)

func wounded() *character.Character {
	c := character.New("p", "P", start)
	c.HP = 10
	c.MP = 0
	return c
}

func TestAmount(t *testing.T) {
	assert.Equal(t, 16, policy.Amount(160))
	assert.Equal(t, 3, policy.Amount(32))
	assert.Equal(t, 0, policy.Amount(9))
}

func TestApply_CarriesPartialPeriod(t *testing.T) {
	c := wounded()
	res := recovery.Apply(c, policy, start.Add(47*time.Minute), false)
	assert.Equal(t, 9, res.Periods)
	assert.Equal(t, start.Add(45*time.Minute), c.LastRecovery)
	assert.Equal(t, 10+9*16, c.HP)
	assert.Equal(t, 9*3, c.MP)
	assert.Equal(t, 9*16, res.HP)

	// the 2 leftover minutes count toward the next period
	res = recovery.Apply(c, policy, start.Add(50*time.Minute), false)
	assert.Equal(t, 1, res.Periods)
	assert.Equal(t, c.MaxHP, c.HP)
}

func TestApply_BelowOnePeriodIsNoop(t *testing.T) {
	c := wounded()
	res := recovery.Apply(c, policy, start.Add(4*time.Minute), false)
	assert.Zero(t, res.Periods)
	assert.Equal(t, start, c.LastRecovery)
	assert.Equal(t, 10, c.HP)
}

func TestApply_CapsAtMax(t *testing.T) {
	c := wounded()
	recovery.Apply(c, policy, start.Add(24*time.Hour), false)
	assert.Equal(t, c.MaxHP, c.HP)
	assert.Equal(t, c.MaxMP, c.MP)
}

func TestApply_InCombatConsumesPeriods(t *testing.T) {
	c := wounded()
	res := recovery.Apply(c, policy, start.Add(20*time.Minute), true)
	assert.Equal(t, 4, res.Periods)
	assert.Zero(t, res.HP)
	assert.Equal(t, 10, c.HP)
	assert.Equal(t, start.Add(20*time.Minute), c.LastRecovery)
}

func TestApply_InitialisesZeroMarker(t *testing.T) {
	c := wounded()
	c.LastRecovery = time.Time{}
	now := start.Add(time.Hour)
	res := recovery.Apply(c, policy, now, false)
	assert.Zero(t, res.Periods)
	assert.Equal(t, now, c.LastRecovery)
}

func TestPropertyApply_Invariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := character.New("p", "P", start)
		c.HP = rapid.IntRange(0, c.MaxHP).Draw(t, "hp")
		c.MP = rapid.IntRange(0, c.MaxMP).Draw(t, "mp")
		elapsed := time.Duration(rapid.Int64Range(0, int64(48*time.Hour)).Draw(t, "elapsed"))
		inCombat := rapid.Bool().Draw(t, "combat")
		hp, mp := c.HP, c.MP

		res := recovery.Apply(c, policy, start.Add(elapsed), inCombat)
		if res.Periods != int(elapsed/policy.Interval) {
			t.Fatalf("periods %d for elapsed %v", res.Periods, elapsed)
		}
		gap := start.Add(elapsed).Sub(c.LastRecovery)
		if gap < 0 || gap >= policy.Interval {
			t.Fatalf("marker left %v behind now", gap)
		}
		if c.HP < hp || c.HP > c.MaxHP || c.MP < mp || c.MP > c.MaxMP {
			t.Fatalf("vitals out of range: hp %d/%d mp %d/%d", c.HP, c.MaxHP, c.MP, c.MaxMP)
		}
		if inCombat && (c.HP != hp || c.MP != mp) {
			t.Fatal("restored during combat")
		}
	})
}
