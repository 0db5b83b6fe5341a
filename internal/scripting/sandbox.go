// Package scripting runs consumable effect scripts in a sandboxed GopherLua
// VM. It depends on the inventory package only for the Vitals snapshot it is
// handed.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/levelup/internal/game/inventory"
)

// DefaultInstructionLimit is the opcode budget of one effect script when no
// override is configured.
const DefaultInstructionLimit = 100_000

// unsafeGlobals are base-library functions that reach outside the sandbox or
// compile new code.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"}

// opBudget cancels itself once Done has been polled limit times. GopherLua
// polls Done once per opcode when a context is set.
type opBudget struct {
	context.Context
	cancel context.CancelFunc
	left   atomic.Int64
}

func newOpBudget(limit int) *opBudget {
	ctx, cancel := context.WithCancel(context.Background())
	b := &opBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(limit))
	return b
}

func (b *opBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// Sandbox is a Lua state with only the base, table, string and math
// libraries and a fixed opcode budget. A Sandbox runs one script.
type Sandbox struct {
	L      *lua.LState
	budget *opBudget
}

// NewSandbox creates a Sandbox.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller must Close the returned Sandbox.
func NewSandbox(instLimit int) *Sandbox {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	b := newOpBudget(instLimit)
	L.SetContext(b)
	return &Sandbox{L: L, budget: b}
}

// BindVitals exposes v as the globals hp, max_hp, mp and max_mp.
func (s *Sandbox) BindVitals(v inventory.Vitals) {
	s.L.SetGlobal("hp", lua.LNumber(v.HP))
	s.L.SetGlobal("max_hp", lua.LNumber(v.MaxHP))
	s.L.SetGlobal("mp", lua.LNumber(v.MP))
	s.L.SetGlobal("max_mp", lua.LNumber(v.MaxMP))
}

// Close releases the Lua state and its budget.
func (s *Sandbox) Close() {
	s.budget.cancel()
	s.L.Close()
}
