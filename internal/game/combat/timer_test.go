package combat_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/cory-johannsen/levelup/internal/game/combat"
)

func TestRoundTimer_Fires(t *testing.T) {
	var called atomic.Int32
	tt := combat.NewRoundTimer()
	tt.Schedule(20*time.Millisecond, func() { called.Add(1) })
	time.Sleep(80 * time.Millisecond)
	if called.Load() != 1 {
		t.Fatalf("expected callback called once, got %d", called.Load())
	}
}

func TestRoundTimer_Stop_PreventsCallback(t *testing.T) {
	var called atomic.Int32
	tt := combat.NewRoundTimer()
	tt.Schedule(50*time.Millisecond, func() { called.Add(1) })
	tt.Stop()
	time.Sleep(100 * time.Millisecond)
	if called.Load() != 0 {
		t.Fatalf("expected callback not called, got %d", called.Load())
	}
	if tt.Pending() {
		t.Fatal("expected no pending callback after Stop")
	}
}

func TestRoundTimer_Schedule_SupersedesPrevious(t *testing.T) {
	var first, second atomic.Int32
	tt := combat.NewRoundTimer()
	tt.Schedule(30*time.Millisecond, func() { first.Add(1) })
	tt.Schedule(60*time.Millisecond, func() { second.Add(1) })
	time.Sleep(150 * time.Millisecond)
	if first.Load() != 0 {
		t.Fatalf("superseded callback fired %d times", first.Load())
	}
	if second.Load() != 1 {
		t.Fatalf("expected latest callback once, got %d", second.Load())
	}
}

func TestRoundTimer_StopIdempotent(t *testing.T) {
	tt := combat.NewRoundTimer()
	tt.Stop()
	tt.Schedule(50*time.Millisecond, func() {})
	tt.Stop()
	tt.Stop()
}
