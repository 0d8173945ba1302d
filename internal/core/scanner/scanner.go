// Package scanner runs the periodic cross-venue arbitrage scan against the
// shared price store.
package scanner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/morroisback/exchange-observer/internal/core/model"
)

// Store is the subset of store.Store the scanner depends on, kept as an
// interface so the scan loop can be driven by a fake in tests.
type Store interface {
	FindOpportunities(minProfitPercent float64, maxDataAgeSeconds int) []model.Opportunity
}

// Callback receives a non-empty batch of opportunities from one scan pass.
type Callback func([]model.Opportunity)

// Scanner self-paces its scan loop to run every CheckInterval, subtracting
// the time the scan itself took, rather than ticking on a fixed timer — a
// slow scan never causes two scans to queue up back to back.
type Scanner struct {
	store    Store
	logger   *zap.Logger
	callback Callback

	checkInterval     time.Duration
	minProfitPercent  float64
	maxDataAgeSeconds int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New constructs a Scanner. minProfitPercent is a user-facing percent value
// (0.1 means 0.1%); it is converted to a fraction before being passed to the
// store.
func New(store Store, logger *zap.Logger, checkInterval time.Duration, minProfitPercent float64, maxDataAgeSeconds int, callback Callback) *Scanner {
	return &Scanner{
		store:             store,
		logger:            logger.Named("scanner"),
		callback:          callback,
		checkInterval:     checkInterval,
		minProfitPercent:  minProfitPercent,
		maxDataAgeSeconds: maxDataAgeSeconds,
	}
}

// Start is idempotent; it launches the scan loop in its own goroutine and
// returns immediately.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Info("scanner already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(runCtx)
	s.logger.Info("arbitrage scan loop started")
}

// Stop is idempotent; it cancels the loop and blocks until it has exited.
func (s *Scanner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Info("scanner already stopped")
		return
	}
	s.running = false
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("arbitrage scan loop stopped")
}

func (s *Scanner) loop(ctx context.Context) {
	defer close(s.done)

	for {
		if ctx.Err() != nil {
			return
		}

		start := time.Now()
		s.scanOnce()
		elapsed := time.Since(start)

		sleepFor := s.checkInterval - elapsed
		if sleepFor < 0 {
			sleepFor = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepFor):
		}
	}
}

// scanOnce runs one scan pass, recovering and logging any panic raised by
// the store or the callback so a single bad pass never kills the loop.
func (s *Scanner) scanOnce() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recovered from panic in scan pass", zap.Any("panic", r))
		}
	}()

	opportunities := s.store.FindOpportunities(s.minProfitPercent/100, s.maxDataAgeSeconds)
	if len(opportunities) == 0 {
		s.logger.Debug("no arbitrage opportunities found")
		return
	}
	if s.callback != nil {
		s.callback(opportunities)
	}
}
