package combat_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/combat"
	"github.com/cory-johannsen/levelup/internal/game/dice"
	"github.com/cory-johannsen/levelup/internal/game/enemy"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/progression"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// knobSrc returns v on every draw; tests turn it between actions.
type knobSrc struct{ v float64 }

func (k *knobSrc) Float64() float64 { return k.v }

type fixture struct {
	src    *knobSrc
	engine *combat.Engine
	items  *inventory.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	defs, err := inventory.LoadItems("../../../content/items")
	require.NoError(t, err)
	items, err := inventory.NewCatalogFromDefs(defs, nil)
	require.NoError(t, err)

	src := &knobSrc{v: 0.5}
	prog := progression.NewEngine(progression.AutoGrowth, 10, inventory.NewFactory(items), logger)
	eng := combat.NewEngine(dice.NewLoggedRoller(src, logger), contentSkills(t), items, prog, logger)
	return &fixture{src: src, engine: eng, items: items}
}

func dummy() *enemy.Enemy {
	return &enemy.Enemy{
		ID:         "enemy-dummy",
		Name:       "Training Dummy",
		Level:      1,
		Attributes: character.BaseAttributes(),
		Rewards:    enemy.LootTable{Gold: 50, Exp: 150},
	}
}

func hero() *character.Character {
	c := character.New("hero", "Hero", now)
	c.Gold = 100
	return c
}

func TestStart_InitialisesSession(t *testing.T) {
	f := newFixture(t)
	c := hero()
	c.HP = 120

	events, err := f.engine.Start(c, dummy())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Combat with Training Dummy has begun!", events[0].Narrative)

	s, ok := f.engine.Session(c.ID)
	require.True(t, ok)
	assert.Equal(t, combat.PhasePlayerTurn, s.Phase)
	assert.Equal(t, 160, s.EnemyHP)
	assert.Equal(t, s.EnemyMaxHP, s.EnemyHP)
	assert.Equal(t, 120, s.HP)
	assert.False(t, s.Defending)
	assert.Empty(t, s.Cooldowns)
	assert.True(t, f.engine.InCombat(c.ID))
}

func TestStart_RejectsSecondFight(t *testing.T) {
	f := newFixture(t)
	c := hero()
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)
	_, err = f.engine.Start(c, dummy())
	assert.ErrorIs(t, err, combat.ErrAlreadyInCombat)
}

func TestAttack_ThenEnemyTurn(t *testing.T) {
	f := newFixture(t)
	c := hero()
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)

	events, err := f.engine.Attack(c)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 10, events[0].Damage)
	assert.Equal(t, "You attack Training Dummy for 10 damage.", events[0].Narrative)

	_, err = f.engine.Attack(c)
	assert.ErrorIs(t, err, combat.ErrNotPlayerTurn)

	events, err = f.engine.ResolveEnemyTurn(c)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 10, events[0].Damage)

	s, _ := f.engine.Session(c.ID)
	assert.Equal(t, 150, s.EnemyHP)
	assert.Equal(t, 150, s.HP)
	assert.Equal(t, combat.PhasePlayerTurn, s.Phase)
	assert.Equal(t, 2, s.Turn)
}

func TestAttack_Critical(t *testing.T) {
	f := newFixture(t)
	c := hero()
	c.Attributes.Agility = 200
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)

	events, err := f.engine.Attack(c)
	require.NoError(t, err)
	assert.True(t, events[0].Critical)
	assert.Equal(t, 15, events[0].Damage)
	assert.Contains(t, events[0].Narrative, "critical hit")
}

func TestDefend_HalvesNextHit(t *testing.T) {
	f := newFixture(t)
	c := hero()
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)

	_, err = f.engine.Defend(c)
	require.NoError(t, err)
	events, err := f.engine.ResolveEnemyTurn(c)
	require.NoError(t, err)
	assert.Equal(t, 5, events[0].Damage)
	assert.Contains(t, events[0].Narrative, "reduced by defense")

	s, _ := f.engine.Session(c.ID)
	assert.False(t, s.Defending)
	assert.Equal(t, 155, s.HP)
}

func TestVictory_StagesRewardsAndClaimOnce(t *testing.T) {
	f := newFixture(t)
	c := hero()
	c.Attributes.Strength = 200
	c.HP = 140

	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)
	events, err := f.engine.Attack(c)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, combat.EventVictory, events[1].Kind)

	s, _ := f.engine.Session(c.ID)
	assert.Equal(t, combat.PhaseVictory, s.Phase)
	assert.Equal(t, 0, s.EnemyHP)
	assert.False(t, f.engine.InCombat(c.ID))
	require.NotNil(t, c.PendingRewards)
	assert.Equal(t, 150, c.PendingRewards.Exp)
	assert.Equal(t, 140, c.HP)

	_, err = f.engine.Attack(c)
	assert.ErrorIs(t, err, combat.ErrCombatOver)

	_, err = f.engine.Start(c, dummy())
	assert.ErrorIs(t, err, combat.ErrRewardsPending)

	r, _, err := f.engine.ClaimRewards(c)
	require.NoError(t, err)
	assert.Equal(t, 150, r.Exp)
	assert.Equal(t, 2, c.Level)
	assert.Equal(t, 50, c.Experience)
	assert.Equal(t, 150, c.Gold)
	assert.Nil(t, c.PendingRewards)

	_, _, err = f.engine.ClaimRewards(c)
	assert.ErrorIs(t, err, combat.ErrNoPendingRewards)
	assert.Equal(t, 150, c.Gold)
}

func TestDefeat_PenaltyApplied(t *testing.T) {
	f := newFixture(t)
	c := hero()
	brute := dummy()
	brute.Attributes.Strength = 500

	_, err := f.engine.Start(c, brute)
	require.NoError(t, err)
	_, err = f.engine.Defend(c)
	require.NoError(t, err)
	events, err := f.engine.ResolveEnemyTurn(c)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "You have been defeated by Training Dummy.", events[1].Narrative)
	assert.Equal(t, "You lost 10 gold and barely escaped with your life.", events[2].Narrative)

	assert.Equal(t, 16, c.HP)
	assert.Equal(t, 90, c.Gold)
	assert.Nil(t, c.PendingRewards)
	s, _ := f.engine.Session(c.ID)
	assert.Equal(t, combat.PhaseDefeat, s.Phase)
}

func TestFlee(t *testing.T) {
	f := newFixture(t)
	c := hero()
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)

	// 50% chance; a 0.5 draw fails.
	events, err := f.engine.Flee(c)
	require.NoError(t, err)
	assert.Equal(t, "You failed to flee!", events[0].Narrative)
	_, err = f.engine.ResolveEnemyTurn(c)
	require.NoError(t, err)

	f.src.v = 0.1
	events, err = f.engine.Flee(c)
	require.NoError(t, err)
	assert.Equal(t, "You successfully fled from combat!", events[0].Narrative)
	s, _ := f.engine.Session(c.ID)
	assert.Equal(t, combat.PhaseFled, s.Phase)
	assert.Equal(t, s.HP, c.HP)
	assert.Nil(t, c.PendingRewards)
}

func TestUseSkill_Validation(t *testing.T) {
	f := newFixture(t)
	c := hero()
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)

	_, err = f.engine.UseSkill(c, "Meteor")
	assert.ErrorIs(t, err, combat.ErrUnknownSkill)
	_, err = f.engine.UseSkill(c, "Power Strike")
	assert.ErrorIs(t, err, combat.ErrSkillLocked)

	c.Attributes.Strength = 15
	s, _ := f.engine.Session(c.ID)
	before := s.MP
	events, err := f.engine.UseSkill(c, "Power Strike")
	require.NoError(t, err)
	assert.Equal(t, 40, events[0].Damage)
	assert.Equal(t, "You use Power Strike, dealing 40 damage to Training Dummy!", events[0].Narrative)

	s, _ = f.engine.Session(c.ID)
	assert.Equal(t, before-10, s.MP)
	assert.Equal(t, 2, s.Cooldowns["Power Strike"])

	_, err = f.engine.ResolveEnemyTurn(c)
	require.NoError(t, err)
	_, err = f.engine.UseSkill(c, "Power Strike")
	assert.ErrorIs(t, err, combat.ErrSkillOnCooldown)

	s, _ = f.engine.Session(c.ID)
	assert.Equal(t, combat.PhasePlayerTurn, s.Phase)
	assert.Equal(t, 1, s.Cooldowns["Power Strike"])
}

func TestUseSkill_DoubleSlashFloorsEachHit(t *testing.T) {
	f := newFixture(t)
	c := hero()
	c.Attributes.Strength = 15
	c.Attributes.Agility = 15
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)

	// base 10, factor 1.196: each hit floors to 11; flooring the sum would give 23.
	f.src.v = 0.99
	events, err := f.engine.UseSkill(c, "Double Slash")
	require.NoError(t, err)
	assert.Equal(t, 22, events[0].Damage)
	assert.Equal(t, "You use Double Slash, hitting Training Dummy twice for 11 and 11 damage!", events[0].Narrative)

	s, _ := f.engine.Session(c.ID)
	assert.Equal(t, 160-22, s.EnemyHP)
	assert.Equal(t, 3, s.Cooldowns["Double Slash"])
}

func TestUseSkill_FireballUsesIntelligence(t *testing.T) {
	f := newFixture(t)
	c := hero()
	c.Attributes.Intelligence = 15
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)
	s, _ := f.engine.Session(c.ID)
	before := s.MP

	events, err := f.engine.UseSkill(c, "Fireball")
	require.NoError(t, err)
	assert.Equal(t, 40, events[0].Damage, "floor(15*2*1.5 - 10*0.5) at the mid draw")
	assert.Equal(t, "You cast Fireball, dealing 40 magical damage to Training Dummy!", events[0].Narrative)

	s, _ = f.engine.Session(c.ID)
	assert.Equal(t, 120, s.EnemyHP)
	assert.Equal(t, before-20, s.MP)
	assert.Equal(t, combat.PhaseEnemyTurn, s.Phase)
}

func TestUseSkill_InsufficientMP(t *testing.T) {
	f := newFixture(t)
	c := hero()
	c.Attributes.Intelligence = 15
	c.MP = 5
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)

	_, err = f.engine.UseSkill(c, "Fireball")
	assert.ErrorIs(t, err, combat.ErrInsufficientMP)
	s, _ := f.engine.Session(c.ID)
	assert.Equal(t, 5, s.MP)
	assert.Equal(t, combat.PhasePlayerTurn, s.Phase)
}

func TestUseSkill_Heal(t *testing.T) {
	f := newFixture(t)
	c := hero()
	c.Attributes.Intelligence = 15
	c.HP = 100
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)

	events, err := f.engine.UseSkill(c, "Heal")
	require.NoError(t, err)
	assert.Equal(t, "You cast Heal, restoring 22 HP!", events[0].Narrative)
	s, _ := f.engine.Session(c.ID)
	assert.Equal(t, 122, s.HP)
	assert.Equal(t, 160, s.EnemyHP)
	assert.Equal(t, combat.PhaseEnemyTurn, s.Phase)
}

func TestUseItem(t *testing.T) {
	f := newFixture(t)
	c := hero()
	def, ok := f.items.Item("item-health-potion")
	require.True(t, ok)
	c.Inventory.Add(def.Stack(2))
	c.HP = 50

	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)
	_, err = f.engine.UseItem(c, "item-lycan-fang")
	assert.ErrorIs(t, err, inventory.ErrItemNotFound)

	_, err = f.engine.UseItem(c, "item-health-potion")
	require.NoError(t, err)
	s, _ := f.engine.Session(c.ID)
	assert.Equal(t, 150, s.HP)
	stack, ok := c.Inventory.Find("item-health-potion")
	require.True(t, ok)
	assert.Equal(t, 1, stack.Quantity)
}

func TestActions_WithoutSession(t *testing.T) {
	f := newFixture(t)
	c := hero()
	_, err := f.engine.Attack(c)
	assert.ErrorIs(t, err, combat.ErrNotInCombat)
	_, err = f.engine.ResolveEnemyTurn(c)
	assert.ErrorIs(t, err, combat.ErrNotInCombat)
	_, err = f.engine.Abandon(c)
	assert.ErrorIs(t, err, combat.ErrNotInCombat)
	assert.False(t, f.engine.InCombat(c.ID))
}

func TestAbandon_WritesBack(t *testing.T) {
	f := newFixture(t)
	c := hero()
	_, err := f.engine.Start(c, dummy())
	require.NoError(t, err)
	_, err = f.engine.Attack(c)
	require.NoError(t, err)
	_, err = f.engine.ResolveEnemyTurn(c)
	require.NoError(t, err)

	_, err = f.engine.Abandon(c)
	require.NoError(t, err)
	assert.Equal(t, 150, c.HP)
	assert.False(t, f.engine.InCombat(c.ID))
}

func TestPropertyCombat_HPStaysInRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		logger := zaptest.NewLogger(t)
		items := inventory.NewCatalog(nil)
		src := dice.NewSeededSource(rapid.Uint64Range(1, 1<<40).Draw(rt, "seed"))
		prog := progression.NewEngine(progression.AutoGrowth, 10, inventory.NewFactory(items), logger)
		eng := combat.NewEngine(dice.NewLoggedRoller(src, logger), contentSkills(t), items, prog, logger)

		c := hero()
		foe := dummy()
		foe.Attributes.Strength = rapid.IntRange(10, 60).Draw(rt, "foe_str")
		_, err := eng.Start(c, foe)
		require.NoError(rt, err)

		for i := 0; i < 200 && eng.InCombat(c.ID); i++ {
			s, _ := eng.Session(c.ID)
			if s.Phase == combat.PhaseEnemyTurn {
				_, err = eng.ResolveEnemyTurn(c)
			} else if rapid.Bool().Draw(rt, "defend") {
				_, err = eng.Defend(c)
			} else {
				_, err = eng.Attack(c)
			}
			require.NoError(rt, err)
			s, _ = eng.Session(c.ID)
			if s.HP < 0 || s.HP > s.MaxHP || s.EnemyHP < 0 || s.EnemyHP > s.EnemyMaxHP {
				rt.Fatalf("hp out of range: %+v", s)
			}
		}
		assert.GreaterOrEqual(rt, c.HP, 1)
		assert.GreaterOrEqual(rt, c.Gold, 0)
	})
}
