package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() *Config {
	return &Config{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(), nil, "flaky", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("boom")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 3 {
		t.Fatalf("expected 42 after 3 calls, got %d after %d", got, calls)
	}
}

func TestDoGivesUp(t *testing.T) {
	sentinel := errors.New("down")
	calls := 0
	err := Run(context.Background(), fastConfig(), nil, "down", func(ctx context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	cfg := fastConfig()
	permanent := errors.New("bad request")
	cfg.ShouldRetry = func(err error) bool { return !errors.Is(err, permanent) }
	calls := 0
	err := Run(context.Background(), cfg, nil, "permanent", func(ctx context.Context) error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected single attempt with permanent error, got %d calls, err=%v", calls, err)
	}
}

func TestDoHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, fastConfig(), nil, "cancelled", func(ctx context.Context) error {
		t.Fatal("fn must not run on a cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
