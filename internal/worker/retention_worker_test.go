package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakePurger struct {
	mu        sync.Mutex
	calls     int
	retention time.Duration
	err       error
}

func (f *fakePurger) Purge(_ context.Context, retention time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.retention = retention
	return 3, f.err
}

func (f *fakePurger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetentionWorkerRunsUntilCanceled(t *testing.T) {
	purger := &fakePurger{}
	w := NewRetentionWorker(purger, 30*24*time.Hour, 5*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for purger.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated purges, got %d", purger.count())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	if purger.retention != 30*24*time.Hour {
		t.Fatalf("unexpected retention %v", purger.retention)
	}
}

func TestRetentionWorkerSurvivesErrors(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	w := NewRetentionWorker(purger, time.Hour, time.Hour, quietLogger())
	w.RunOnce(context.Background())
	w.RunOnce(context.Background())
	if purger.count() != 2 {
		t.Fatalf("expected 2 attempts, got %d", purger.count())
	}
}
