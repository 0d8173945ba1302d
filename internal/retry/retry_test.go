package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoWithResult_SucceedsAfterFailures(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 10 * time.Millisecond, Multiplier: 2}

	attempts := 0
	got, err := DoWithResult(context.Background(), cfg, func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("DoWithResult: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDoWithResult_ExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	attempts := 0
	wantErr := errors.New("permanent")
	_, err := DoWithResult(context.Background(), cfg, func() (int, error) {
		attempts++
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestDoWithResult_RespectsContextCancellation(t *testing.T) {
	cfg := Config{MaxAttempts: 100, InitialDelay: 20 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := DoWithResult(ctx, cfg, func() (int, error) {
		attempts++
		return 0, errors.New("keeps failing")
	})
	if err == nil {
		t.Fatal("expected an error from a cancelled context")
	}
	if attempts >= cfg.MaxAttempts {
		t.Fatalf("attempts = %d, should have stopped early on cancellation", attempts)
	}
}
