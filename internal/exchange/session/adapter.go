package session

import (
	"context"

	"github.com/morroisback/exchange-observer/internal/core/model"
)

// Adapter supplies the eight venue-specific hooks the session base dispatches
// into. Binance, Bybit, and Gate.io each provide one implementation; the
// base owns everything else (dial, reconnect, backoff, read-deadline
// enforcement, heartbeat scheduling).
type Adapter interface {
	// Venue identifies which exchange this adapter talks to.
	Venue() model.Venue

	// WebSocketURL is the venue's streaming endpoint to dial.
	WebSocketURL() string

	// FetchSymbols retrieves the tradable symbol list over HTTPS. An empty
	// result (with a nil error) is a hard session error per the SUBSCRIBING
	// state's contract. It must respect ctx so a Stop() during symbol
	// discovery cancels the REST call and its retries promptly instead of
	// running them to completion.
	FetchSymbols(ctx context.Context) ([]string, error)

	// Subscribe sends whatever subscription messages are required for the
	// given symbols, chunked at MaxArgsPerMessage where the protocol calls
	// for it. A no-op implementation is valid (Binance's all-tickers stream).
	Subscribe(conn Conn, symbols []string) error

	// IsPing/IsPong classify a raw frame as a heartbeat frame from the venue.
	IsPing(frame []byte) bool
	IsPong(frame []byte) bool

	// SendPing emits this venue's application-level ping, or is a no-op for
	// venues that rely on transport-level WebSocket pings (Binance).
	SendPing(conn Conn) error

	// HandlePing/HandlePong react to a classified heartbeat frame (e.g.
	// Bybit must answer a server ping with an application-level pong).
	HandlePing(conn Conn, frame []byte) error
	HandlePong(frame []byte)

	// HandleMessage decodes a non-heartbeat payload frame into zero or more
	// Quotes. A frame that does not carry book data returns an empty slice,
	// not an error.
	HandleMessage(frame []byte) ([]model.Quote, error)
}

// Conn is the subset of *websocket.Conn the adapters need to send frames.
// Abstracting it keeps adapters testable without a live socket.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
}
