package server_test

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/levelup/internal/game/recovery"
	"github.com/cory-johannsen/levelup/internal/server"
)

type blockingService struct {
	started atomic.Bool
	stop    chan struct{}
}

func newBlockingService() *blockingService {
	return &blockingService{stop: make(chan struct{})}
}

func (b *blockingService) Start() error {
	b.started.Store(true)
	<-b.stop
	return nil
}

func (b *blockingService) Stop() { close(b.stop) }

func TestLifecycle_StartsAndStopsServices(t *testing.T) {
	lc := server.NewLifecycle(zaptest.NewLogger(t))
	svc1 := newBlockingService()
	svc2 := newBlockingService()
	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	require.Eventually(t, func() bool {
		return svc1.started.Load() && svc2.started.Load()
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}
}

func TestLifecycle_ReturnsServiceFailure(t *testing.T) {
	lc := server.NewLifecycle(zaptest.NewLogger(t))
	boom := errors.New("boom")
	var stopped atomic.Bool
	lc.Add("broken", &server.FuncService{
		StartFn: func() error { return boom },
		StopFn:  func() { stopped.Store(true) },
	})

	err := lc.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, stopped.Load())
}

func TestHTTPService_ServesUntilStopped(t *testing.T) {
	logger := zaptest.NewLogger(t)
	srv := &http.Server{
		Addr: "127.0.0.1:0",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}
	svc := server.HTTPService(srv, time.Second, logger)

	done := make(chan error, 1)
	go func() { done <- svc.Start() }()
	time.Sleep(50 * time.Millisecond)
	svc.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err, "a graceful shutdown is not a failure")
	case <-time.After(5 * time.Second):
		t.Fatal("http service did not stop")
	}
}

func TestSchedulerService_RunsTicks(t *testing.T) {
	sched := recovery.NewScheduler(5 * time.Millisecond)
	var ticks atomic.Int32
	sched.Register("hero", func(time.Time) { ticks.Add(1) })
	svc := server.SchedulerService(sched)

	done := make(chan error, 1)
	go func() { done <- svc.Start() }()
	require.Eventually(t, func() bool { return ticks.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	svc.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler service did not stop")
	}
}
