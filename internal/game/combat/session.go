package combat

import (
	"github.com/cory-johannsen/levelup/internal/game/enemy"
	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

// Phase is the state of a combat session.
type Phase string

// Combat phases. PlayerTurn and EnemyTurn are active; the rest are terminal.
const (
	PhasePlayerTurn Phase = "player_turn"
	PhaseEnemyTurn  Phase = "enemy_turn"
	PhaseVictory    Phase = "victory"
	PhaseDefeat     Phase = "defeat"
	PhaseFled       Phase = "fled"
)

// Over reports whether p is terminal.
func (p Phase) Over() bool {
	return p == PhaseVictory || p == PhaseDefeat || p == PhaseFled
}

// EventKind classifies a combat log entry.
type EventKind string

// Combat event kinds.
const (
	EventStart       EventKind = "start"
	EventAttack      EventKind = "attack"
	EventSkill       EventKind = "skill"
	EventDefend      EventKind = "defend"
	EventItem        EventKind = "item"
	EventEnemyAttack EventKind = "enemy_attack"
	EventFlee        EventKind = "flee"
	EventVictory     EventKind = "victory"
	EventDefeat      EventKind = "defeat"
)

// Event is one human-readable combat log entry.
type Event struct {
	Kind      EventKind `json:"kind"`
	Actor     string    `json:"actor"`
	Narrative string    `json:"narrative"`
	Damage    int       `json:"damage,omitempty"`
	Critical  bool      `json:"critical,omitempty"`
}

// Session is the ephemeral state of one fight. HP and MP are a working copy of
// the character's values, written back when the session ends.
type Session struct {
	CharacterID string         `json:"characterId"`
	Enemy       *enemy.Enemy   `json:"enemy"`
	HP          int            `json:"hp"`
	MaxHP       int            `json:"maxHp"`
	MP          int            `json:"mp"`
	MaxMP       int            `json:"maxMp"`
	EnemyHP     int            `json:"enemyHp"`
	EnemyMaxHP  int            `json:"enemyMaxHp"`
	Phase       Phase          `json:"phase"`
	Defending   bool           `json:"defending"`
	Cooldowns   map[string]int `json:"cooldowns"`
	Turn        int            `json:"turn"`
	Log         []Event        `json:"log"`
}

func (s *Session) vitals() inventory.Vitals {
	return inventory.Vitals{HP: s.HP, MaxHP: s.MaxHP, MP: s.MP, MaxMP: s.MaxMP}
}

func (s *Session) record(events ...Event) []Event {
	s.Log = append(s.Log, events...)
	return events
}

// snapshot returns a copy safe to hand outside the engine lock.
func (s *Session) snapshot() *Session {
	out := *s
	out.Cooldowns = make(map[string]int, len(s.Cooldowns))
	for k, v := range s.Cooldowns {
		out.Cooldowns[k] = v
	}
	out.Log = make([]Event, len(s.Log))
	copy(out.Log, s.Log)
	return &out
}
