package combat

import (
	"sync"
	"time"
)

// RoundTimer schedules the automatic enemy response after a player action.
// Each Schedule supersedes the previous one; a callback from a superseded or
// stopped schedule never runs. It is safe for concurrent use.
type RoundTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewRoundTimer returns an idle RoundTimer.
func NewRoundTimer() *RoundTimer {
	return &RoundTimer{}
}

// Schedule arranges for onFire to run after delay in its own goroutine,
// cancelling any pending callback.
//
// Precondition: delay > 0; onFire must not be nil.
// Postcondition: onFire runs once after delay unless Stop or Schedule is called first.
func (t *RoundTimer) Schedule(delay time.Duration, onFire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		current := gen == t.gen
		t.mu.Unlock()
		if current {
			onFire()
		}
	})
}

// Pending reports whether a callback is scheduled and has not yet been
// superseded or stopped. A callback that already fired may still report true
// until the next Schedule or Stop.
func (t *RoundTimer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// Stop prevents any pending callback from running. Safe to call multiple times.
//
// Postcondition: no callback scheduled before Stop will run after Stop returns,
// unless it was already executing.
func (t *RoundTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
