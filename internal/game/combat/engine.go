package combat

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/levelup/internal/game/character"
	"github.com/cory-johannsen/levelup/internal/game/dice"
	"github.com/cory-johannsen/levelup/internal/game/enemy"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
	"github.com/cory-johannsen/levelup/internal/game/progression"
)

var (
	// ErrNotInCombat is returned for combat actions without a session.
	ErrNotInCombat = errors.New("combat: not in combat")
	// ErrAlreadyInCombat is returned when starting a fight during another.
	ErrAlreadyInCombat = errors.New("combat: already in combat")
	// ErrNotPlayerTurn is returned for player actions outside the player's turn.
	ErrNotPlayerTurn = errors.New("combat: not the player's turn")
	// ErrNotEnemyTurn is returned when resolving an enemy turn out of order.
	ErrNotEnemyTurn = errors.New("combat: not the enemy's turn")
	// ErrCombatOver is returned for actions on a finished session.
	ErrCombatOver = errors.New("combat: combat is over")
	// ErrRewardsPending is returned when starting a fight with unclaimed rewards.
	ErrRewardsPending = errors.New("combat: rewards must be claimed first")
	// ErrNoPendingRewards is returned when claiming with nothing staged.
	ErrNoPendingRewards = errors.New("combat: no pending rewards")
	// ErrUnknownSkill is returned for a skill name not in the skill book.
	ErrUnknownSkill = errors.New("combat: unknown skill")
	// ErrSkillLocked is returned when the character does not meet a skill's requirement.
	ErrSkillLocked = errors.New("combat: skill requirement not met")
	// ErrInsufficientMP is returned when a skill costs more MP than remains.
	ErrInsufficientMP = errors.New("combat: insufficient MP")
	// ErrSkillOnCooldown is returned when a skill is still cooling down.
	ErrSkillOnCooldown = errors.New("combat: skill on cooldown")
)

// Engine runs combat sessions keyed by character ID. Finished sessions are
// kept until the next Start so their outcome and log stay readable.
//
// Engine is safe for concurrent use; each action holds the engine lock for
// its full duration so that only one action is in flight per character.
type Engine struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	roller *dice.Roller
	skills *SkillBook
	items  *inventory.Catalog
	prog   *progression.Engine
	logger *zap.Logger
}

// NewEngine creates an Engine.
//
// Precondition: all arguments must be non-nil.
// Postcondition: Returns an Engine with no sessions.
func NewEngine(roller *dice.Roller, skills *SkillBook, items *inventory.Catalog, prog *progression.Engine, logger *zap.Logger) *Engine {
	if roller == nil || skills == nil || items == nil || prog == nil || logger == nil {
		panic("combat: NewEngine requires non-nil dependencies")
	}
	return &Engine{
		sessions: make(map[string]*Session),
		roller:   roller,
		skills:   skills,
		items:    items,
		prog:     prog,
		logger:   logger,
	}
}

// Skills returns the engine's skill book.
func (e *Engine) Skills() *SkillBook { return e.skills }

// labeled adapts the roller to Source while tagging each draw with purpose.
type labeled struct {
	r       *dice.Roller
	purpose string
}

func (l labeled) Float64() float64 { return l.r.Draw(l.purpose).Value }

func (e *Engine) src(purpose string) Source { return labeled{r: e.roller, purpose: purpose} }

// Session returns a copy of the character's current or last session.
func (e *Engine) Session(characterID string) (*Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[characterID]
	if !ok {
		return nil, false
	}
	return s.snapshot(), true
}

// InCombat reports whether the character has an active session. The recovery
// scheduler checks this before every tick.
func (e *Engine) InCombat(characterID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sessions[characterID]
	return ok && !s.Phase.Over()
}

// Start opens a session against en.
//
// Precondition: c and en must be non-nil.
// Postcondition: the session is in PlayerTurn with full enemy HP, c's HP/MP
// snapshotted, defending cleared and no cooldowns.
func (e *Engine) Start(c *character.Character, en *enemy.Enemy) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.sessions[c.ID]; ok && !s.Phase.Over() {
		return nil, ErrAlreadyInCombat
	}
	if c.PendingRewards != nil {
		return nil, ErrRewardsPending
	}
	s := &Session{
		CharacterID: c.ID,
		Enemy:       en,
		HP:          c.HP,
		MaxHP:       c.MaxHP,
		MP:          c.MP,
		MaxMP:       c.MaxMP,
		EnemyHP:     en.MaxHP(),
		EnemyMaxHP:  en.MaxHP(),
		Phase:       PhasePlayerTurn,
		Cooldowns:   make(map[string]int),
		Turn:        1,
	}
	e.sessions[c.ID] = s
	e.logger.Info("combat started",
		zap.String("character_id", c.ID),
		zap.String("enemy_id", en.ID),
		zap.Int("enemy_hp", s.EnemyHP),
	)
	return s.record(Event{
		Kind:      EventStart,
		Actor:     en.Name,
		Narrative: fmt.Sprintf("Combat with %s has begun!", en.Name),
	}), nil
}

// playerTurn returns the active session if it is the player's turn.
// Caller must hold e.mu.
func (e *Engine) playerTurn(id string) (*Session, error) {
	s, ok := e.sessions[id]
	switch {
	case !ok:
		return nil, ErrNotInCombat
	case s.Phase.Over():
		return nil, ErrCombatOver
	case s.Phase != PhasePlayerTurn:
		return nil, ErrNotPlayerTurn
	}
	return s, nil
}

// Attack performs a basic attack with a critical roll.
//
// Postcondition: the enemy took damage; the phase is Victory or EnemyTurn.
func (e *Engine) Attack(c *character.Character) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.playerTurn(c.ID)
	if err != nil {
		return nil, err
	}

	crit := CheckCritical(c.Attributes.Agility, e.src("critical"))
	roll := ComputeDamage(float64(c.Attributes.Strength), s.Enemy.Attributes.Vitality, crit, e.src("damage"))
	narrative := fmt.Sprintf("You attack %s for %d damage.", s.Enemy.Name, roll.Amount)
	if crit {
		narrative = fmt.Sprintf("You land a critical hit on %s for %d damage!", s.Enemy.Name, roll.Amount)
	}
	events := s.record(Event{Kind: EventAttack, Actor: c.Name, Narrative: narrative, Damage: roll.Amount, Critical: crit})
	return append(events, e.damageEnemy(c, s, roll.Amount)...), nil
}

// Defend halves the next incoming hit.
func (e *Engine) Defend(c *character.Character) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.playerTurn(c.ID)
	if err != nil {
		return nil, err
	}
	s.Defending = true
	s.Phase = PhaseEnemyTurn
	return s.record(Event{
		Kind:      EventDefend,
		Actor:     c.Name,
		Narrative: "You take a defensive stance, reducing incoming damage by 50%.",
	}), nil
}

// UseSkill casts the named skill.
//
// Postcondition: on error the session is unchanged and the turn does not pass.
func (e *Engine) UseSkill(c *character.Character, name string) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.playerTurn(c.ID)
	if err != nil {
		return nil, err
	}
	sk, ok := e.skills.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, name)
	}
	if !sk.Unlocked(c.Attributes) {
		return nil, fmt.Errorf("%w: %s needs %s %d", ErrSkillLocked, sk.Name, sk.Requires.Stat, sk.Requires.Value)
	}
	if s.MP < sk.MPCost {
		return nil, fmt.Errorf("%w: %s needs %d MP", ErrInsufficientMP, sk.Name, sk.MPCost)
	}
	if cd := s.Cooldowns[sk.Name]; cd > 0 {
		return nil, fmt.Errorf("%w: %s ready in %d turn(s)", ErrSkillOnCooldown, sk.Name, cd)
	}

	s.MP -= sk.MPCost
	s.Cooldowns[sk.Name] = sk.Cooldown

	attrs := c.Attributes
	vit := s.Enemy.Attributes.Vitality
	var ev Event
	switch sk.Kind {
	case SkillPowerStrike:
		roll := ComputeDamage(float64(attrs.Strength*2), vit, false, e.src("damage"))
		ev = Event{Damage: roll.Amount, Narrative: fmt.Sprintf("You use Power Strike, dealing %d damage to %s!", roll.Amount, s.Enemy.Name)}
	case SkillDoubleSlash:
		hit1 := ComputeDamage(float64(attrs.Strength)*0.7, vit, false, e.src("damage")).Amount
		hit2 := ComputeDamage(float64(attrs.Strength)*0.7, vit, false, e.src("damage")).Amount
		ev = Event{Damage: hit1 + hit2, Narrative: fmt.Sprintf("You use Double Slash, hitting %s twice for %d and %d damage!", s.Enemy.Name, hit1, hit2)}
	case SkillFireball:
		roll := ComputeDamage(float64(attrs.Intelligence*2), vit, false, e.src("damage"))
		ev = Event{Damage: roll.Amount, Narrative: fmt.Sprintf("You cast Fireball, dealing %d magical damage to %s!", roll.Amount, s.Enemy.Name)}
	case SkillHeal:
		amount := attrs.Intelligence * 3 / 2
		before := s.HP
		s.HP = min(s.MaxHP, s.HP+amount)
		ev = Event{Narrative: fmt.Sprintf("You cast Heal, restoring %d HP!", s.HP-before)}
	}
	ev.Kind = EventSkill
	ev.Actor = c.Name
	events := s.record(ev)

	if sk.Kind == SkillHeal {
		s.Phase = PhaseEnemyTurn
		return events, nil
	}
	return append(events, e.damageEnemy(c, s, ev.Damage)...), nil
}

// UseItem consumes a consumable against the session's HP/MP.
//
// Postcondition: on error neither the session nor the inventory changed and
// the turn does not pass.
func (e *Engine) UseItem(c *character.Character, itemID string) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.playerTurn(c.ID)
	if err != nil {
		return nil, err
	}
	stack, _ := c.Inventory.Find(itemID)
	before := s.vitals()
	after, _, err := inventory.UseConsumable(&c.Inventory, before, itemID, e.items)
	if err != nil {
		return nil, err
	}
	s.HP, s.MP = after.HP, after.MP
	s.Phase = PhaseEnemyTurn
	return s.record(Event{
		Kind:      EventItem,
		Actor:     c.Name,
		Narrative: fmt.Sprintf("You use %s, restoring %d HP and %d MP.", stack.Name, after.HP-before.HP, after.MP-before.MP),
	}), nil
}

// Flee attempts to escape. Success ends the session; failure forfeits the turn.
func (e *Engine) Flee(c *character.Character) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.playerTurn(c.ID)
	if err != nil {
		return nil, err
	}
	chance := FleeChance(c.Attributes.Agility, s.Enemy.Attributes.Agility)
	roll := e.roller.Draw("flee").Percent()
	if roll < float64(chance) {
		s.Phase = PhaseFled
		e.writeBack(c, s)
		e.logger.Info("combat fled", zap.String("character_id", c.ID), zap.String("enemy_id", s.Enemy.ID))
		return s.record(Event{Kind: EventFlee, Actor: c.Name, Narrative: "You successfully fled from combat!"}), nil
	}
	s.Phase = PhaseEnemyTurn
	return s.record(Event{Kind: EventFlee, Actor: c.Name, Narrative: "You failed to flee!"}), nil
}

// ResolveEnemyTurn runs the enemy's automatic response. Callers decide when
// to invoke it.
//
// Postcondition: cooldowns ticked down; defending cleared; phase is Defeat or PlayerTurn.
func (e *Engine) ResolveEnemyTurn(c *character.Character) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[c.ID]
	switch {
	case !ok:
		return nil, ErrNotInCombat
	case s.Phase.Over():
		return nil, ErrCombatOver
	case s.Phase != PhaseEnemyTurn:
		return nil, ErrNotEnemyTurn
	}

	for name, cd := range s.Cooldowns {
		if cd > 0 {
			s.Cooldowns[name] = cd - 1
		}
	}

	dmg := ComputeDamage(float64(s.Enemy.Attributes.Strength), c.Attributes.Vitality, false, e.src("enemy_damage")).Amount
	narrative := fmt.Sprintf("%s attacks you for %d damage.", s.Enemy.Name, dmg)
	if s.Defending {
		dmg /= 2
		narrative = fmt.Sprintf("%s attacks you for %d damage (reduced by defense).", s.Enemy.Name, dmg)
	}
	s.Defending = false
	s.HP = max(0, s.HP-dmg)
	events := s.record(Event{Kind: EventEnemyAttack, Actor: s.Enemy.Name, Narrative: narrative, Damage: dmg})

	if s.HP == 0 {
		return append(events, e.defeat(c, s)...), nil
	}
	s.Phase = PhasePlayerTurn
	s.Turn++
	return events, nil
}

// Abandon ends an active session as fled without rolling, writing HP/MP back.
// It is the caller's teardown path.
func (e *Engine) Abandon(c *character.Character) ([]Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[c.ID]
	if !ok || s.Phase.Over() {
		return nil, ErrNotInCombat
	}
	s.Phase = PhaseFled
	e.writeBack(c, s)
	return s.record(Event{Kind: EventFlee, Actor: c.Name, Narrative: "You withdraw from combat."}), nil
}

// ClaimRewards grants staged victory rewards exactly once.
func (e *Engine) ClaimRewards(c *character.Character) (character.Rewards, []progression.Event, error) {
	if c.PendingRewards == nil {
		return character.Rewards{}, nil, ErrNoPendingRewards
	}
	r := *c.PendingRewards.Clone()
	c.PendingRewards = nil
	_, events := e.prog.GrantRewards(c, r)
	return r, events, nil
}

// damageEnemy applies dmg and moves to Victory or EnemyTurn.
// Caller must hold e.mu.
func (e *Engine) damageEnemy(c *character.Character, s *Session, dmg int) []Event {
	s.EnemyHP = max(0, s.EnemyHP-dmg)
	if s.EnemyHP == 0 {
		return e.victory(c, s)
	}
	s.Phase = PhaseEnemyTurn
	return nil
}

func (e *Engine) victory(c *character.Character, s *Session) []Event {
	s.Phase = PhaseVictory
	rewards := s.Enemy.RewardBundle()
	c.PendingRewards = &rewards
	e.writeBack(c, s)
	e.logger.Info("combat victory",
		zap.String("character_id", c.ID),
		zap.String("enemy_id", s.Enemy.ID),
		zap.Int("exp", rewards.Exp),
		zap.Int("gold", rewards.Gold),
	)
	return s.record(Event{
		Kind:      EventVictory,
		Actor:     c.Name,
		Narrative: fmt.Sprintf("You have defeated %s! %d EXP, %d gold and %d item(s) await.", s.Enemy.Name, rewards.Exp, rewards.Gold, len(rewards.Items)),
	})
}

func (e *Engine) defeat(c *character.Character, s *Session) []Event {
	s.Phase = PhaseDefeat
	c.MP = max(0, min(s.MP, c.MaxMP))
	c.HP = max(1, c.MaxHP/10)
	loss := c.Gold / 10
	character.AddGold(c, -loss)
	e.logger.Info("combat defeat",
		zap.String("character_id", c.ID),
		zap.String("enemy_id", s.Enemy.ID),
		zap.Int("gold_lost", loss),
	)
	return s.record(
		Event{Kind: EventDefeat, Actor: s.Enemy.Name, Narrative: fmt.Sprintf("You have been defeated by %s.", s.Enemy.Name)},
		Event{Kind: EventDefeat, Actor: c.Name, Narrative: fmt.Sprintf("You lost %d gold and barely escaped with your life.", loss)},
	)
}

func (e *Engine) writeBack(c *character.Character, s *Session) {
	c.SetVitals(s.vitals())
}
