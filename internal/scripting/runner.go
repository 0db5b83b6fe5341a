package scripting

import (
	"errors"
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

// ErrBadResult is returned when an effect script does not return two
// non-negative numbers.
var ErrBadResult = errors.New("scripting: effect must return two non-negative numbers")

// Runner evaluates consumable effect scripts. Each call gets a fresh sandbox,
// so scripts cannot leak state into one another.
//
// Runner is safe for concurrent use.
type Runner struct {
	instLimit int
	logger    *zap.Logger
}

// NewRunner creates a Runner.
//
// Precondition: logger must be non-nil; instLimit >= 0 (0 = default).
func NewRunner(instLimit int, logger *zap.Logger) *Runner {
	if logger == nil {
		panic("scripting.NewRunner: logger must not be nil")
	}
	return &Runner{instLimit: instLimit, logger: logger}
}

// RunEffect executes script with the globals hp, max_hp, mp and max_mp bound
// to v and returns the script's two results as HP and MP to restore.
//
// Postcondition: on error no restoration applies; the caller must not consume
// the item.
func (r *Runner) RunEffect(script string, v inventory.Vitals) (int, int, error) {
	sb := NewSandbox(r.instLimit)
	defer sb.Close()
	sb.BindVitals(v)
	L := sb.L

	fn, err := L.LoadString(script)
	if err != nil {
		return 0, 0, fmt.Errorf("scripting: compiling effect: %w", err)
	}
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    2,
		Protect: true,
	}); err != nil {
		r.logger.Warn("scripting: Lua runtime error", zap.Error(err))
		return 0, 0, fmt.Errorf("scripting: running effect: %w", err)
	}

	hpVal, mpVal := L.Get(-2), L.Get(-1)
	L.Pop(2)
	hp, ok1 := hpVal.(lua.LNumber)
	mp, ok2 := mpVal.(lua.LNumber)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("%w: got %s, %s", ErrBadResult, hpVal.Type(), mpVal.Type())
	}
	if !restorable(hp) || !restorable(mp) {
		return 0, 0, fmt.Errorf("%w: got %v, %v", ErrBadResult, hpVal, mpVal)
	}
	r.logger.Debug("scripted effect",
		zap.Int("hp", int(hp)),
		zap.Int("mp", int(mp)),
	)
	return int(hp), int(mp), nil
}

// restorable reports whether n is a finite amount in [0, MaxInt32].
func restorable(n lua.LNumber) bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0 && f <= math.MaxInt32
}
