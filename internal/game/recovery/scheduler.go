package recovery

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs a periodic tick for each registered character.
// Callbacks run sequentially on the scheduler's goroutine.
//
// Invariant: all callbacks are invoked at most once per check interval.
type Scheduler struct {
	interval time.Duration
	mu       sync.Mutex
	ticks    map[string]func(now time.Time)
}

// NewScheduler returns a scheduler that fires ticks every interval.
//
// Precondition: interval must be > 0.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		panic("recovery.NewScheduler: interval must be > 0")
	}
	return &Scheduler{
		interval: interval,
		ticks:    make(map[string]func(time.Time)),
	}
}

// Register sets the tick callback for characterID, replacing any existing one.
func (s *Scheduler) Register(characterID string, fn func(now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks[characterID] = fn
}

// Unregister removes the tick callback for characterID.
func (s *Scheduler) Unregister(characterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ticks, characterID)
}

// Start begins the tick loop in its own goroutine. It runs until ctx is cancelled.
//
// Postcondition: all registered callbacks are invoked once per interval.
func (s *Scheduler) Start(ctx context.Context) {
	go s.Run(ctx)
}

// Run is the blocking form of Start.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			callbacks := make([]func(time.Time), 0, len(s.ticks))
			for _, fn := range s.ticks {
				callbacks = append(callbacks, fn)
			}
			s.mu.Unlock()
			for _, fn := range callbacks {
				fn(now)
			}
		}
	}
}
