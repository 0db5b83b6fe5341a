// Package session owns the single user's Character aggregate and serialises
// every operation on it: progression, inventory, combat and recovery. Each
// committed operation is persisted through a storage.Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/combat"
	"github.com/cory-johannsen/levelup/internal/game/enemy"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/progression"
	"github.com/cory-johannsen/levelup/internal/game/quest"
	"github.com/cory-johannsen/levelup/internal/game/recovery"
	"github.com/cory-johannsen/levelup/internal/observability"
	"github.com/cory-johannsen/levelup/internal/questgen"
	"github.com/cory-johannsen/levelup/internal/storage"
)

var (
	// ErrInCombat is returned for out-of-combat actions during a fight.
	ErrInCombat = errors.New("session: not allowed during combat")
	// ErrNoStatPoints is returned when allocating with no points left.
	ErrNoStatPoints = errors.New("session: no stat points available")
	// ErrStatAtBase is returned when deallocating a stat at its floor.
	ErrStatAtBase = errors.New("session: stat is at its base value")
	// ErrInvalidAmount is returned for negative experience grants.
	ErrInvalidAmount = errors.New("session: amount must be >= 0")
)

// Drafter turns a free-text task into a quest draft.
type Drafter interface {
	Draft(ctx context.Context, task string) (quest.Draft, error)
}

// starterItems are granted to a newly created character.
var starterItems = []inventory.ItemSpec{
	{ID: "item-health-potion", Quantity: 3},
	{ID: "item-mana-potion", Quantity: 2},
}

// Deps are the collaborators a Service needs.
type Deps struct {
	Store       storage.Store
	Combat      *combat.Engine
	Progression *progression.Engine
	Items       *inventory.Catalog
	Bestiary    *enemy.Bestiary
	Recovery    recovery.Policy
	Drafter     Drafter
	// EnemyTurnDelay > 0 makes the enemy answer automatically after that delay.
	EnemyTurnDelay time.Duration
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Service serialises all operations on one character.
//
// Service is safe for concurrent use; one operation is in flight at a time.
type Service struct {
	mu    sync.Mutex
	char  *character.Character
	deps  Deps
	timer *combat.RoundTimer
}

// Open loads the character stored under id, creating it with the starter
// kit when absent, and applies offline recovery catch-up.
//
// Precondition: every Deps field except Drafter and Now must be set.
// Postcondition: the loaded or created snapshot has been persisted.
func Open(ctx context.Context, id, name string, deps Deps) (*Service, error) {
	if deps.Store == nil || deps.Combat == nil || deps.Progression == nil ||
		deps.Items == nil || deps.Bestiary == nil || deps.Logger == nil {
		panic("session.Open: missing dependency")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	deps.Logger = observability.ForCharacter(deps.Logger, "session", id)
	s := &Service{deps: deps, timer: combat.NewRoundTimer()}
	now := deps.Now()

	c, err := deps.Store.Load(ctx, id)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c = character.New(id, name, now)
		for _, spec := range starterItems {
			stack, err := deps.Progression.Factory().Resolve(spec)
			if err != nil {
				return nil, fmt.Errorf("starter item %q: %w", spec.ID, err)
			}
			c.Inventory.Add(stack)
		}
		deps.Logger.Info("character created", zap.String("name", name))
	case err != nil:
		return nil, fmt.Errorf("loading character %q: %w", id, err)
	}
	s.char = c

	res := recovery.Apply(c, deps.Recovery, now, false)
	if res.Periods > 0 {
		deps.Logger.Info("offline recovery",
			zap.Int("periods", res.Periods),
			zap.Int("hp", res.HP),
			zap.Int("mp", res.MP),
		)
	}
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close stops any pending automatic enemy turn.
func (s *Service) Close() {
	s.timer.Stop()
}

// ID returns the character id the service owns.
func (s *Service) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.char.ID
}

// Character returns a snapshot copy of the aggregate.
func (s *Service) Character() *character.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.char.Clone()
}

// persist saves the aggregate. Caller must hold s.mu.
func (s *Service) persist(ctx context.Context) error {
	s.char.UpdatedAt = s.deps.Now()
	if err := s.deps.Store.Save(ctx, s.char); err != nil {
		s.deps.Logger.Error("persisting character", zap.Error(err))
		return fmt.Errorf("persisting character: %w", err)
	}
	return nil
}

// commit logs op and persists when err is nil; rejected operations are
// logged at debug and leave the store untouched. Caller must hold s.mu.
func (s *Service) commit(ctx context.Context, op string, err error) error {
	if err != nil {
		s.deps.Logger.Debug("operation rejected",
			zap.String("op", op),
			zap.Error(err),
		)
		return err
	}
	s.deps.Logger.Info("operation committed",
		zap.String("op", op),
	)
	return s.persist(ctx)
}

// idle returns ErrInCombat when a fight is active. Caller must hold s.mu.
func (s *Service) idle() error {
	if s.deps.Combat.InCombat(s.char.ID) {
		return ErrInCombat
	}
	return nil
}

// AllocateStat spends one stat point on stat.
func (s *Service) AllocateStat(ctx context.Context, stat string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.idle()
	if err == nil {
		var st character.Stat
		if st, err = character.ParseStat(stat); err == nil && !character.AllocateStat(s.char, st) {
			err = ErrNoStatPoints
		}
	}
	return s.commit(ctx, "allocate_stat", err)
}

// DeallocateStat refunds one point from stat.
func (s *Service) DeallocateStat(ctx context.Context, stat string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.idle()
	if err == nil {
		var st character.Stat
		if st, err = character.ParseStat(stat); err == nil && !character.DeallocateStat(s.char, st) {
			err = ErrStatAtBase
		}
	}
	return s.commit(ctx, "deallocate_stat", err)
}

// AddExperience grants amount experience with the level-up cascade.
func (s *Service) AddExperience(ctx context.Context, amount int) ([]progression.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount < 0 {
		return nil, s.commit(ctx, "add_experience", ErrInvalidAmount)
	}
	if err := s.idle(); err != nil {
		return nil, s.commit(ctx, "add_experience", err)
	}
	_, events := s.deps.Progression.AddExperience(s.char, amount)
	return events, s.commit(ctx, "add_experience", nil)
}

// Quests returns copies of every quest.
func (s *Service) Quests() []quest.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]quest.Quest, len(s.char.Quests))
	for i, q := range s.char.Quests {
		out[i] = q.Clone()
	}
	return out
}

// CompleteQuest grants quest id's rewards.
func (s *Service) CompleteQuest(ctx context.Context, id string) (progression.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idle(); err != nil {
		return progression.Result{}, s.commit(ctx, "complete_quest", err)
	}
	res, err := s.deps.Progression.CompleteQuest(s.char, id, s.deps.Now())
	return res, s.commit(ctx, "complete_quest", err)
}

// AddQuest registers a new custom quest.
func (s *Service) AddQuest(ctx context.Context, d quest.Draft) (quest.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.deps.Progression.AddQuest(s.char, d, s.deps.Now())
	return q, s.commit(ctx, "add_quest", err)
}

// UpdateQuest edits an existing quest.
func (s *Service) UpdateQuest(ctx context.Context, id string, p quest.Patch) (quest.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.deps.Progression.UpdateQuest(s.char, id, p)
	return q, s.commit(ctx, "update_quest", err)
}

// UpdateQuestProgress sets a quest's progress percentage.
func (s *Service) UpdateQuestProgress(ctx context.Context, id string, progress int) (quest.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.deps.Progression.UpdateQuestProgress(s.char, id, progress)
	return q, s.commit(ctx, "update_quest_progress", err)
}

// DeleteQuest removes a quest.
func (s *Service) DeleteQuest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, "delete_quest", s.deps.Progression.DeleteQuest(s.char, id))
}

// DraftQuest asks the configured drafter for a quest draft. The draft is not
// registered; pass it to AddQuest to keep it.
func (s *Service) DraftQuest(ctx context.Context, task string) (quest.Draft, error) {
	if s.deps.Drafter == nil {
		return quest.Draft{}, questgen.ErrDisabled
	}
	return s.deps.Drafter.Draft(ctx, task)
}

// Inventory returns a copy of the inventory.
func (s *Service) Inventory() inventory.Inventory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.char.Inventory.Clone()
}

// AddItem resolves spec and adds it to the inventory.
func (s *Service) AddItem(ctx context.Context, spec inventory.ItemSpec) (inventory.ItemStack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stack, err := s.deps.Progression.Factory().Resolve(spec)
	if err == nil {
		s.char.Inventory.Add(stack)
	}
	return stack, s.commit(ctx, "add_item", err)
}

// RemoveItem drops quantity units of item id.
func (s *Service) RemoveItem(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	if !s.char.Inventory.Remove(id, quantity) {
		err = fmt.Errorf("%w: %q", inventory.ErrItemNotFound, id)
	}
	return s.commit(ctx, "remove_item", err)
}

// UseItem consumes item id outside combat.
//
// Postcondition: on error neither the inventory nor HP/MP changed.
func (s *Service) UseItem(ctx context.Context, id string) (inventory.Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idle(); err != nil {
		return inventory.Effect{}, s.commit(ctx, "use_item", err)
	}
	v, eff, err := inventory.UseConsumable(&s.char.Inventory, s.char.Vitals(), id, s.deps.Items)
	if err == nil {
		s.char.SetVitals(v)
	}
	return eff, s.commit(ctx, "use_item", err)
}

// Enemies lists the bestiary.
func (s *Service) Enemies() []*enemy.Enemy {
	return s.deps.Bestiary.All()
}

// Skills lists the combat skills.
func (s *Service) Skills() []*combat.Skill {
	return s.deps.Combat.Skills().All()
}

// Combat returns a copy of the current or last combat session.
func (s *Service) Combat() (*combat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deps.Combat.Session(s.char.ID)
}

// StartCombat opens a fight against enemy id.
func (s *Service) StartCombat(ctx context.Context, enemyID string) ([]combat.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	en, err := s.deps.Bestiary.Get(enemyID)
	if err != nil {
		return nil, s.commit(ctx, "start_combat", err)
	}
	events, err := s.deps.Combat.Start(s.char, en)
	return events, s.commit(ctx, "start_combat", err)
}

// Attack performs a basic attack.
func (s *Service) Attack(ctx context.Context) ([]combat.Event, error) {
	return s.playerAction(ctx, "attack", s.deps.Combat.Attack)
}

// Defend takes a defensive stance.
func (s *Service) Defend(ctx context.Context) ([]combat.Event, error) {
	return s.playerAction(ctx, "defend", s.deps.Combat.Defend)
}

// Flee attempts to escape.
func (s *Service) Flee(ctx context.Context) ([]combat.Event, error) {
	return s.playerAction(ctx, "flee", s.deps.Combat.Flee)
}

// UseSkill casts skill name.
func (s *Service) UseSkill(ctx context.Context, name string) ([]combat.Event, error) {
	return s.playerAction(ctx, "use_skill", func(c *character.Character) ([]combat.Event, error) {
		return s.deps.Combat.UseSkill(c, name)
	})
}

// UseCombatItem consumes item id as the player's turn.
func (s *Service) UseCombatItem(ctx context.Context, id string) ([]combat.Event, error) {
	return s.playerAction(ctx, "use_combat_item", func(c *character.Character) ([]combat.Event, error) {
		return s.deps.Combat.UseItem(c, id)
	})
}

func (s *Service) playerAction(ctx context.Context, op string, act func(*character.Character) ([]combat.Event, error)) ([]combat.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events, err := act(s.char)
	if err != nil {
		return nil, s.commit(ctx, op, err)
	}
	s.scheduleEnemyTurn()
	return events, s.commit(ctx, op, nil)
}

// scheduleEnemyTurn arms the round timer when the turn passed to the enemy.
// Caller must hold s.mu.
func (s *Service) scheduleEnemyTurn() {
	if s.deps.EnemyTurnDelay <= 0 {
		return
	}
	sess, ok := s.deps.Combat.Session(s.char.ID)
	if !ok || sess.Phase != combat.PhaseEnemyTurn {
		return
	}
	s.timer.Schedule(s.deps.EnemyTurnDelay, func() {
		if _, err := s.ResolveEnemyTurn(context.Background()); err != nil &&
			!errors.Is(err, combat.ErrNotEnemyTurn) && !errors.Is(err, combat.ErrNotInCombat) &&
			!errors.Is(err, combat.ErrCombatOver) {
			s.deps.Logger.Warn("automatic enemy turn", zap.Error(err))
		}
	})
}

// ResolveEnemyTurn runs the enemy's response now, cancelling any pending
// automatic one.
func (s *Service) ResolveEnemyTurn(ctx context.Context) ([]combat.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer.Stop()
	events, err := s.deps.Combat.ResolveEnemyTurn(s.char)
	return events, s.commit(ctx, "enemy_turn", err)
}

// ClaimRewards grants staged victory rewards once.
func (s *Service) ClaimRewards(ctx context.Context) (character.Rewards, []progression.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, events, err := s.deps.Combat.ClaimRewards(s.char)
	return r, events, s.commit(ctx, "claim_rewards", err)
}

// Recover applies every recovery period elapsed by now. It is the recovery
// scheduler's tick callback and persists only when a period elapsed.
func (s *Service) Recover(ctx context.Context, now time.Time) (recovery.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := recovery.Apply(s.char, s.deps.Recovery, now, s.deps.Combat.InCombat(s.char.ID))
	if res.Periods == 0 {
		return res, nil
	}
	s.deps.Logger.Debug("recovery tick",
		zap.Stringer("result", res),
	)
	return res, s.persist(ctx)
}

// Tick adapts Recover to the recovery scheduler's callback shape.
func (s *Service) Tick(now time.Time) {
	if _, err := s.Recover(context.Background(), now); err != nil {
		s.deps.Logger.Warn("recovery tick failed", zap.Error(err))
	}
}
