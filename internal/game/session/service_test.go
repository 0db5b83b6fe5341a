package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/combat"
	"github.com/cory-johannsen/levelup/internal/game/enemy"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/progression"
	"github.com/cory-johannsen/levelup/internal/game/quest"
	"github.com/cory-johannsen/levelup/internal/game/session"
	"github.com/cory-johannsen/levelup/internal/storage"
	"github.com/cory-johannsen/levelup/internal/testutil"
)

var now = testutil.Now

type stubDrafter struct{}

func (stubDrafter) Draft(_ context.Context, task string) (quest.Draft, error) {
	return quest.Draft{Title: task, Difficulty: quest.DifficultyD, ExpReward: 40}, nil
}

func deps(t *testing.T, store storage.Store) session.Deps {
	d := testutil.GameDeps(t, "../../../content", store)
	d.Drafter = stubDrafter{}
	return d
}

func open(t *testing.T, store storage.Store) *session.Service {
	t.Helper()
	svc, err := session.Open(context.Background(), "hero", "Hero", deps(t, store))
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func TestOpen_CreatesStarterCharacter(t *testing.T) {
	store := testutil.NewMemStore()
	svc := open(t, store)

	c := svc.Character()
	assert.Equal(t, 1, c.Level)
	assert.Len(t, c.Quests, 4)
	hp, ok := c.Inventory.Find("item-health-potion")
	require.True(t, ok)
	assert.Equal(t, 3, hp.Quantity)
	mp, ok := c.Inventory.Find("item-mana-potion")
	require.True(t, ok)
	assert.Equal(t, 2, mp.Quantity)

	saved, err := store.Load(context.Background(), "hero")
	require.NoError(t, err)
	assert.Equal(t, c.ID, saved.ID)
}

func TestOpen_OfflineCatchUp(t *testing.T) {
	store := testutil.NewMemStore()
	c := character.New("hero", "Hero", now.Add(-47*time.Minute))
	c.HP = 10
	require.NoError(t, store.Save(context.Background(), c))

	svc := open(t, store)
	got := svc.Character()
	assert.Equal(t, 10+9*16, got.HP)
	assert.Equal(t, now.Add(-2*time.Minute), got.LastRecovery)
}

func TestAllocateStat(t *testing.T) {
	store := testutil.NewMemStore()
	svc := open(t, store)
	ctx := context.Background()
	saves := store.Saves()

	assert.ErrorIs(t, svc.AllocateStat(ctx, "str"), session.ErrNoStatPoints)
	assert.Equal(t, saves, store.Saves(), "rejected operations are not persisted")
	assert.Error(t, svc.AllocateStat(ctx, "luck"))
	assert.ErrorIs(t, svc.DeallocateStat(ctx, "str"), session.ErrStatAtBase)
}

func TestAddExperience_LevelsUpAndPersists(t *testing.T) {
	store := testutil.NewMemStore()
	svc := open(t, store)
	ctx := context.Background()

	events, err := svc.AddExperience(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, progression.EventLevelUp, events[0].Kind)

	saved, err := store.Load(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Level)

	_, err = svc.AddExperience(ctx, -5)
	assert.ErrorIs(t, err, session.ErrInvalidAmount)
}

func TestQuestLifecycle(t *testing.T) {
	svc := open(t, testutil.NewMemStore())
	ctx := context.Background()

	d, err := svc.DraftQuest(ctx, "Stretch for ten minutes")
	require.NoError(t, err)
	q, err := svc.AddQuest(ctx, d)
	require.NoError(t, err)
	assert.True(t, q.Custom)

	q, err = svc.UpdateQuestProgress(ctx, q.ID, 140)
	require.NoError(t, err)
	assert.Equal(t, 100, q.Progress)

	res, err := svc.CompleteQuest(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, res.QuestID)
	assert.Equal(t, 40, svc.Character().Experience)

	_, err = svc.CompleteQuest(ctx, q.ID)
	assert.ErrorIs(t, err, progression.ErrQuestCompleted)

	require.NoError(t, svc.DeleteQuest(ctx, q.ID))
	assert.ErrorIs(t, svc.DeleteQuest(ctx, q.ID), progression.ErrQuestNotFound)
}

func TestInventoryOperations(t *testing.T) {
	svc := open(t, testutil.NewMemStore())
	ctx := context.Background()

	stack, err := svc.AddItem(ctx, inventory.ItemSpec{ID: "item-lycan-fang"})
	require.NoError(t, err)
	assert.Equal(t, "item-lycan-fang", stack.ID)

	_, err = svc.UseItem(ctx, "item-lycan-fang")
	assert.ErrorIs(t, err, inventory.ErrNotConsumable)

	require.NoError(t, svc.RemoveItem(ctx, "item-lycan-fang", 1))
	assert.ErrorIs(t, svc.RemoveItem(ctx, "item-lycan-fang", 1), inventory.ErrItemNotFound)
}

func TestUseItem_RestoresHP(t *testing.T) {
	store := testutil.NewMemStore()
	c := character.New("hero", "Hero", now)
	c.HP = 20
	c.Inventory.Add(inventory.ItemStack{ID: "item-health-potion", Name: "Health Potion", Type: inventory.TypeConsumable, Rarity: inventory.RarityCommon, Quantity: 1})
	require.NoError(t, store.Save(context.Background(), c))
	svc := open(t, store)

	eff, err := svc.UseItem(context.Background(), "item-health-potion")
	require.NoError(t, err)
	assert.Equal(t, inventory.EffectHeal, eff.Kind)
	assert.Equal(t, 120, svc.Character().HP)
	_, ok := svc.Inventory().Find("item-health-potion")
	assert.False(t, ok)
}

func TestCombatFlow(t *testing.T) {
	svc := open(t, testutil.NewMemStore())
	ctx := context.Background()

	_, err := svc.StartCombat(ctx, "enemy-404")
	assert.ErrorIs(t, err, enemy.ErrUnknownEnemy)

	events, err := svc.StartCombat(ctx, "enemy-1")
	require.NoError(t, err)
	assert.Equal(t, "Combat with Blue Mane Lycan has begun!", events[0].Narrative)

	_, err = svc.UseItem(ctx, "item-health-potion")
	assert.ErrorIs(t, err, session.ErrInCombat)

	events, err = svc.Attack(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, events[0].Damage)

	sess, ok := svc.Combat()
	require.True(t, ok)
	assert.Equal(t, combat.PhaseEnemyTurn, sess.Phase)

	// recovery consumes periods without restoring during combat
	res, err := svc.Recover(ctx, now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Periods)
	assert.Zero(t, res.HP)

	_, err = svc.ResolveEnemyTurn(ctx)
	require.NoError(t, err)
	events, err = svc.UseCombatItem(ctx, "item-health-potion")
	require.NoError(t, err)
	assert.Equal(t, combat.EventItem, events[0].Kind)

	_, err = svc.Attack(ctx)
	assert.ErrorIs(t, err, combat.ErrNotPlayerTurn)

	_, _, err = svc.ClaimRewards(ctx)
	assert.ErrorIs(t, err, combat.ErrNoPendingRewards)
}

func TestAutomaticEnemyTurn(t *testing.T) {
	d := deps(t, testutil.NewMemStore())
	d.EnemyTurnDelay = 10 * time.Millisecond
	svc, err := session.Open(context.Background(), "hero", "Hero", d)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	ctx := context.Background()

	_, err = svc.StartCombat(ctx, "enemy-1")
	require.NoError(t, err)
	_, err = svc.Defend(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sess, ok := svc.Combat()
		return ok && sess.Phase == combat.PhasePlayerTurn && sess.Turn == 2
	}, time.Second, 5*time.Millisecond)
}

func TestPersistFailureSurfaces(t *testing.T) {
	store := testutil.NewMemStore()
	svc := open(t, store)
	store.FailWith(errors.New("disk full"))

	_, err := svc.AddExperience(context.Background(), 10)
	assert.ErrorContains(t, err, "disk full")
}
