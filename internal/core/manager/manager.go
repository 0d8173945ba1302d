// Package manager coordinates the venue sessions and the price store: it is
// the session.Listener every venue client reports to, and owns the
// start/stop lifecycle of the whole streaming fan-out.
package manager

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/morroisback/exchange-observer/internal/core/model"
	"github.com/morroisback/exchange-observer/internal/errkind"
	"github.com/morroisback/exchange-observer/internal/output"
	"github.com/morroisback/exchange-observer/internal/output/jsonl"
)

// Store is the subset of store.Store the manager writes to.
type Store interface {
	Update(q model.Quote)
}

// Session is the subset of session.Client's lifecycle the manager drives.
type Session interface {
	Start(ctx context.Context) error
	Stop() error
}

// Manager fans Start/Stop out across every registered venue session, writes
// each session's quotes through to the store, and routes its status
// callbacks to its own logger (and to the audit log, when one is set). It
// implements session.Listener directly so it can be handed
// to every session.Client as their shared listener.
type Manager struct {
	store    Store
	logger   *zap.Logger
	sessions map[model.Venue]Session
	audit    *jsonl.Writer

	mu      sync.Mutex
	running bool
}

// New constructs a Manager. audit may be nil, in which case venue status
// events are logged but not persisted.
func New(store Store, logger *zap.Logger, sessions map[model.Venue]Session, audit *jsonl.Writer) *Manager {
	return &Manager{
		store:    store,
		logger:   logger.Named("manager"),
		sessions: sessions,
		audit:    audit,
	}
}

// Start is idempotent: it starts every venue session concurrently and waits
// for all of them to report back before returning. A single venue failing
// to start does not prevent the others from starting; the error is
// collected and returned once every session has had a chance to start.
// With no sessions registered, Start refuses to run and returns a
// ConfigError.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Info("manager already running")
		return nil
	}
	if len(m.sessions) == 0 {
		m.mu.Unlock()
		return errkind.New(errkind.ConfigError, "", errors.New("no venue sessions configured"))
	}
	m.running = true
	m.mu.Unlock()

	var wg sync.WaitGroup
	errs := make(chan error, len(m.sessions))

	for venue, sess := range m.sessions {
		wg.Add(1)
		go func(venue model.Venue, sess Session) {
			defer wg.Done()
			if err := sess.Start(ctx); err != nil {
				m.logger.Error("venue session failed to start", zap.String("venue", string(venue)), zap.Error(err))
				errs <- err
			}
		}(venue, sess)
	}
	wg.Wait()
	close(errs)

	var firstErr error
	for err := range errs {
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stop is idempotent: it stops every venue session concurrently and waits
// for all of them to finish, so that by the time Stop returns no venue
// session can call back into the store.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.logger.Info("manager already stopped")
		return nil
	}
	m.running = false
	m.mu.Unlock()

	var wg sync.WaitGroup
	for venue, sess := range m.sessions {
		wg.Add(1)
		go func(venue model.Venue, sess Session) {
			defer wg.Done()
			if err := sess.Stop(); err != nil {
				m.logger.Error("venue session failed to stop cleanly", zap.String("venue", string(venue)), zap.Error(err))
			}
		}(venue, sess)
	}
	wg.Wait()
	return nil
}

// OnConnected implements session.Listener.
func (m *Manager) OnConnected(venue model.Venue) {
	m.logger.Info("venue connected", zap.String("venue", string(venue)))
	m.writeStatus(venue, "connected", "")
}

// OnDisconnected implements session.Listener.
func (m *Manager) OnDisconnected(venue model.Venue) {
	m.logger.Info("venue disconnected", zap.String("venue", string(venue)))
	m.writeStatus(venue, "disconnected", "")
}

// OnError implements session.Listener.
func (m *Manager) OnError(venue model.Venue, err error) {
	m.logger.Warn("venue session error", zap.String("venue", string(venue)), zap.Error(err))
	m.writeStatus(venue, "error", err.Error())
}

// OnDataReceived implements session.Listener, writing every quote through to
// the store as it arrives.
func (m *Manager) OnDataReceived(q model.Quote) {
	m.store.Update(q)
}

func (m *Manager) writeStatus(venue model.Venue, status, detail string) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Write(output.NewStatusRecord(venue, status, detail, time.Now().UTC())); err != nil {
		m.logger.Warn("failed to write status to audit log", zap.Error(err))
	}
}
