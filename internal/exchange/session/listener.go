package session

import "github.com/morroisback/exchange-observer/internal/core/model"

// Listener is the four-method interface the session base notifies. It
// replaces the source's name-based dynamic dispatch (notify_listener("on_error", ...))
// with an explicit interface a statically typed target can check at compile
// time.
//
// Ordering guarantees enforced by the base: OnConnected precedes any
// OnDataReceived for a session; OnDisconnected is emitted at most once per
// session end, after the last OnDataReceived.
type Listener interface {
	OnConnected(venue model.Venue)
	OnDisconnected(venue model.Venue)
	OnError(venue model.Venue, err error)
	OnDataReceived(q model.Quote)
}

// noopListener is the null-object implementation used when a caller does
// not care about session status events.
type noopListener struct{}

func (noopListener) OnConnected(model.Venue)    {}
func (noopListener) OnDisconnected(model.Venue) {}
func (noopListener) OnError(model.Venue, error) {}
func (noopListener) OnDataReceived(model.Quote) {}

// NoopListener returns a Listener that discards every event.
func NoopListener() Listener {
	return noopListener{}
}
