package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/paradoks/streeplijst-backend/internal/core/ports"
)

type flakyMonitor struct {
	calls   atomic.Int32
	started chan struct{}
}

func (m *flakyMonitor) Watch(ctx context.Context, obs ports.CardObserver) error {
	if m.calls.Add(1) == 1 {
		return errors.New("reader unplugged")
	}
	close(m.started)
	<-ctx.Done()
	return ctx.Err()
}

type nopObserver struct{}

func (nopObserver) CardInserted(string) {}
func (nopObserver) CardRemoved()        {}

func TestCardWatcher_RestartsFailedMonitor(t *testing.T) {
	monitor := &flakyMonitor{started: make(chan struct{})}
	watcher := NewCardWatcher(monitor, nopObserver{}, zerolog.Nop())
	watcher.restartDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watcher.Run(ctx)
		close(done)
	}()

	select {
	case <-monitor.started:
	case <-time.After(time.Second):
		t.Fatal("monitor was not restarted after failure")
	}
	if got := monitor.calls.Load(); got != 2 {
		t.Fatalf("expected 2 watch calls, got %d", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

func TestCardWatcher_StopsWhenCancelledDuringBackoff(t *testing.T) {
	monitor := &flakyMonitor{started: make(chan struct{})}
	watcher := NewCardWatcher(monitor, nopObserver{}, zerolog.Nop())
	watcher.restartDelay = time.Hour // never elapses in this test

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		watcher.Run(ctx)
		close(done)
	}()

	// First watch call fails immediately, the watcher sits in its backoff.
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop while waiting to restart")
	}
	if got := monitor.calls.Load(); got != 1 {
		t.Fatalf("expected no restart before cancellation, got %d calls", got)
	}
}
