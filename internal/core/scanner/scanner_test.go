package scanner

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/morroisback/exchange-observer/internal/core/model"
)

type fakeStore struct {
	mu            sync.Mutex
	calls         int
	lastMinProfit float64
	returns       []model.Opportunity
}

func (f *fakeStore) FindOpportunities(minProfitPercent float64, maxDataAgeSeconds int) []model.Opportunity {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastMinProfit = minProfitPercent
	return f.returns
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestScanner_InvokesCallbackOnlyWhenNonEmpty(t *testing.T) {
	store := &fakeStore{returns: []model.Opportunity{{Symbol: "BTCUSDT"}}}

	var mu sync.Mutex
	var received []model.Opportunity
	s := New(store, zap.NewNop(), 10*time.Millisecond, 0.1, 10, func(o []model.Opportunity) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, o...)
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.Now().Add(500 * time.Millisecond)
	for func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 0
	}() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	gotLen := len(received)
	mu.Unlock()
	if gotLen == 0 {
		t.Fatal("expected the callback to fire at least once")
	}

	s.Stop()
	cancel()
}

func TestScanner_NoCallbackWhenEmpty(t *testing.T) {
	store := &fakeStore{}
	called := false
	s := New(store, zap.NewNop(), 5*time.Millisecond, 0.1, 10, func(o []model.Opportunity) {
		called = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	s.Stop()
	cancel()

	if called {
		t.Fatal("callback should not fire when no opportunities are found")
	}
	if store.callCount() == 0 {
		t.Fatal("expected FindOpportunities to have been called at least once")
	}
}

func TestScanner_StartStop_Idempotent(t *testing.T) {
	store := &fakeStore{}
	s := New(store, zap.NewNop(), 5*time.Millisecond, 0.1, 10, nil)

	ctx := context.Background()
	s.Start(ctx)
	s.Start(ctx)

	s.Stop()
	s.Stop()
}

func TestScanner_ConvertsPercentToFraction(t *testing.T) {
	store := &fakeStore{}
	s := New(store, zap.NewNop(), 1*time.Hour, 0.25, 10, nil)

	s.scanOnce()

	// scanOnce divides MinProfitPercent by 100 before calling the store;
	// this test exists purely so a change to that conversion is caught
	// instead of silently drifting into the wrong units.
	if s.minProfitPercent != 0.25 {
		t.Fatalf("minProfitPercent = %v, want 0.25 (stored as the raw percent, converted at call time)", s.minProfitPercent)
	}
	store.mu.Lock()
	got := store.lastMinProfit
	store.mu.Unlock()
	if got != 0.25/100 {
		t.Fatalf("store received minProfitPercent = %v, want 0.0025 (0.25%% as a fraction)", got)
	}
}
