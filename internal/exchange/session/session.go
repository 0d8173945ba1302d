// Package session implements the venue-agnostic WebSocket session state
// machine: dial, subscribe, stream with heartbeats, reconnect with
// exponential backoff. Venue-specific behavior is supplied by an Adapter.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/morroisback/exchange-observer/internal/core/model"
	"github.com/morroisback/exchange-observer/internal/errkind"
)

type sessionState int32

const (
	stateIdle sessionState = iota
	stateConnecting
	stateSubscribing
	stateStreaming
	stateDisconnecting
	stateBackoff
)

// Defaults mirror the observer's fixed config constants (SPEC_FULL.md §6).
const (
	DefaultReadTimeout       = 25 * time.Second
	DefaultPingInterval      = 20 * time.Second
	DefaultShutdownDeadline  = 5 * time.Second
	DefaultReconnectMaxDelay = 120 * time.Second
	DefaultSoftCapAttempts   = 5
)

// Client owns one venue's WebSocket session: connect, subscribe, stream,
// reconnect on failure, forever, until Stop is called.
type Client struct {
	adapter  Adapter
	listener Listener
	logger   *zap.Logger

	readTimeout       time.Duration
	pingInterval      time.Duration
	shutdownDeadline  time.Duration
	reconnectMaxDelay time.Duration
	softCapAttempts   int

	state   atomic.Int32
	running atomic.Bool

	connMu sync.Mutex
	conn   *safeConn

	cancel context.CancelFunc
	done   chan struct{}
}

// Option customizes a Client away from the default observer constants;
// used by tests to shrink timeouts.
type Option func(*Client)

func WithReadTimeout(d time.Duration) Option       { return func(c *Client) { c.readTimeout = d } }
func WithPingInterval(d time.Duration) Option      { return func(c *Client) { c.pingInterval = d } }
func WithShutdownDeadline(d time.Duration) Option  { return func(c *Client) { c.shutdownDeadline = d } }
func WithReconnectMaxDelay(d time.Duration) Option { return func(c *Client) { c.reconnectMaxDelay = d } }

func NewClient(adapter Adapter, listener Listener, logger *zap.Logger, opts ...Option) *Client {
	if listener == nil {
		listener = NoopListener()
	}
	c := &Client{
		adapter:           adapter,
		listener:          listener,
		logger:            logger.Named(string(adapter.Venue())),
		readTimeout:       DefaultReadTimeout,
		pingInterval:      DefaultPingInterval,
		shutdownDeadline:  DefaultShutdownDeadline,
		reconnectMaxDelay: DefaultReconnectMaxDelay,
		softCapAttempts:   DefaultSoftCapAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start is idempotent: it transitions IDLE->CONNECTING and spawns the
// session supervisor loop, returning immediately.
func (c *Client) Start(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		c.logger.Info("session already running")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.setState(stateConnecting)

	go c.supervise(runCtx)
	return nil
}

// Stop is idempotent: it requests termination and blocks up to
// shutdownDeadline for the session goroutine to exit cleanly before forcibly
// closing the connection.
func (c *Client) Stop() error {
	if !c.running.CompareAndSwap(true, false) {
		c.logger.Info("session already stopped")
		return nil
	}

	c.cancel()
	select {
	case <-c.done:
		return nil
	case <-time.After(c.shutdownDeadline):
		c.logger.Warn("session did not stop within deadline, forcing connection close")
		c.closeConn()
		<-c.done
		return nil
	}
}

func (c *Client) setState(s sessionState) {
	c.state.Store(int32(s))
}

func (c *Client) venue() model.Venue {
	return c.adapter.Venue()
}

// supervise wraps successive sessions in the reconnect/backoff policy. It
// runs until Stop cancels the context, regardless of how many times the
// soft reconnect-attempt cap is crossed — crossing it only produces one
// on_error notification per crossing.
func (c *Client) supervise(ctx context.Context) {
	defer close(c.done)

	backoff := NewBackoff(c.reconnectMaxDelay)
	reportedCap := false

	for c.running.Load() {
		c.runSession(ctx, backoff)
		if !c.running.Load() || ctx.Err() != nil {
			return
		}

		// A fresh Reset() (attempt still at 0) means the session that just
		// ended had connected successfully at least once; a later failure
		// streak starts its own soft-cap report rather than staying
		// permanently silenced by an earlier one.
		if backoff.Attempt() == 0 {
			reportedCap = false
		}

		c.setState(stateBackoff)
		delay := backoff.Next()
		if backoff.Attempt() > c.softCapAttempts && !reportedCap {
			reportedCap = true
			c.listener.OnError(c.venue(), errkind.New(errkind.TransientNetwork, c.venue(),
				fmt.Errorf("failed to reconnect after %d attempts, continuing", c.softCapAttempts)))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// runSession performs one CONNECTING->SUBSCRIBING->STREAMING->DISCONNECTING
// cycle and returns the error that ended it, or nil for a clean shutdown.
// A successful connect resets backoff immediately, before subscribing even
// starts: the reconnect-attempt counter measures failures to re-establish
// the transport, not failures of what happens afterward.
func (c *Client) runSession(ctx context.Context, backoff *Backoff) error {
	c.setState(stateConnecting)
	dialer := websocket.DefaultDialer
	rawConn, _, err := dialer.DialContext(ctx, c.adapter.WebSocketURL(), nil)
	if err != nil {
		c.listener.OnError(c.venue(), errkind.New(errkind.TransientNetwork, c.venue(), err))
		return err
	}

	conn := newSafeConn(rawConn)
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	backoff.Reset()
	c.listener.OnConnected(c.venue())
	c.logger.Info("connected")

	c.setState(stateSubscribing)
	if err := c.subscribe(ctx, conn); err != nil {
		c.listener.OnError(c.venue(), err)
		c.closeConn()
		c.listener.OnDisconnected(c.venue())
		return err
	}

	c.setState(stateStreaming)
	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.heartbeatLoop(heartbeatCtx, conn)
	}()

	readErr := c.readLoop(ctx, rawConn, conn)

	stopHeartbeat()
	wg.Wait()

	c.setState(stateDisconnecting)
	c.closeConn()
	c.listener.OnDisconnected(c.venue())
	c.logger.Info("disconnected")

	return readErr
}

func (c *Client) subscribe(ctx context.Context, conn *safeConn) error {
	symbols, err := c.adapter.FetchSymbols(ctx)
	if err != nil {
		return errkind.New(errkind.SymbolDiscoveryFailure, c.venue(), err)
	}
	if len(symbols) == 0 {
		return errkind.New(errkind.SymbolDiscoveryFailure, c.venue(), fmt.Errorf("empty symbol list"))
	}
	if err := c.adapter.Subscribe(conn, symbols); err != nil {
		return errkind.New(errkind.ProtocolNack, c.venue(), err)
	}
	c.logger.Info("subscribed", zap.Int("symbols", len(symbols)))
	return nil
}

func (c *Client) heartbeatLoop(ctx context.Context, conn *safeConn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.adapter.SendPing(conn); err != nil {
				c.logger.Warn("ping send failed", zap.Error(err))
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, rawConn *websocket.Conn, conn *safeConn) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		_ = rawConn.SetReadDeadline(time.Now().Add(c.readTimeout))
		_, frame, err := rawConn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if ce, ok := err.(*websocket.CloseError); ok && (ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway) {
				return nil
			}
			wrapped := errkind.New(errkind.TransientNetwork, c.venue(), err)
			c.listener.OnError(c.venue(), wrapped)
			return wrapped
		}

		switch {
		case c.adapter.IsPong(frame):
			c.adapter.HandlePong(frame)
		case c.adapter.IsPing(frame):
			if err := c.adapter.HandlePing(conn, frame); err != nil {
				c.logger.Warn("ping response failed", zap.Error(err))
			}
		default:
			quotes, err := c.adapter.HandleMessage(frame)
			if err != nil {
				c.listener.OnError(c.venue(), errkind.New(errkind.ProtocolDecode, c.venue(), err))
				continue
			}
			for _, q := range quotes {
				c.listener.OnDataReceived(q)
			}
		}
	}
}

func (c *Client) closeConn() {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != nil {
		_ = c.conn.conn.Close()
		c.conn = nil
	}
}
