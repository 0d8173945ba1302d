// Package binance implements the session.Adapter for Binance's public spot
// WebSocket stream and REST symbol metadata.
package binance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/morroisback/exchange-observer/internal/core/model"
	"github.com/morroisback/exchange-observer/internal/exchange/session"
	"github.com/morroisback/exchange-observer/internal/httpfetch"
	"github.com/morroisback/exchange-observer/internal/util/fastparse"
)

const (
	WebSocketURL = "wss://stream.binance.com:9443/ws/!ticker@arr"
	RestSpotInfo = "https://api.binance.com/api/v3/exchangeInfo?permissions=SPOT"
)

// Adapter talks to Binance's all-symbols 24hr ticker stream. Binance pushes
// every symbol's ticker on one firehose connection, so Subscribe is a no-op
// and heartbeats ride the WebSocket protocol's own ping/pong control frames
// rather than an application-level message.
type Adapter struct {
	http *httpfetch.Client
}

func New(http *httpfetch.Client) *Adapter {
	return &Adapter{http: http}
}

func (a *Adapter) Venue() model.Venue   { return model.Binance }
func (a *Adapter) WebSocketURL() string { return WebSocketURL }

type symbolInfo struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

type exchangeInfoResponse struct {
	Symbols []symbolInfo `json:"symbols"`
}

// FetchSymbols returns every symbol whose status is TRADING. The ticker
// stream itself is not filtered by symbol, so this list only confirms the
// venue is reachable and has tradable symbols; it is not used to build a
// subscribe payload and is not passed to the store.
func (a *Adapter) FetchSymbols(ctx context.Context) ([]string, error) {
	body, err := a.http.GetJSON(ctx, RestSpotInfo)
	if err != nil {
		return nil, fmt.Errorf("fetch exchange info: %w", err)
	}

	var resp exchangeInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode exchange info: %w", err)
	}

	symbols := make([]string, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		if s.Status == "TRADING" {
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols, nil
}

// Subscribe is a no-op: the all-tickers stream URL already carries every
// symbol, matching the upstream client's subscribe_symbols behavior.
func (a *Adapter) Subscribe(conn session.Conn, symbols []string) error {
	return nil
}

// IsPing/IsPong never match an application-level frame on this venue; the
// WebSocket library answers protocol-level ping control frames on its own.
func (a *Adapter) IsPing(frame []byte) bool { return false }
func (a *Adapter) IsPong(frame []byte) bool { return false }

// SendPing is a no-op: gorilla/websocket answers control-frame pings from
// the server automatically and this venue does not expect an
// application-level ping from the client.
func (a *Adapter) SendPing(conn session.Conn) error { return nil }

func (a *Adapter) HandlePing(conn session.Conn, frame []byte) error { return nil }
func (a *Adapter) HandlePong(frame []byte)                          {}

type tickerEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	BidPrice  string `json:"b"`
	BidQty    string `json:"B"`
	AskPrice  string `json:"a"`
	AskQty    string `json:"A"`
}

// HandleMessage decodes the ticker array frame. A single-object frame is
// also accepted since Binance can push either shape. Both sides must be
// present to emit, so an item missing or failing to parse either price is
// dropped rather than replacing a stored quote with a half-empty one.
func (a *Adapter) HandleMessage(frame []byte) ([]model.Quote, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var events []tickerEvent
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("decode ticker array: %w", err)
		}
	} else {
		var single tickerEvent
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("decode ticker: %w", err)
		}
		events = []tickerEvent{single}
	}

	quotes := make([]model.Quote, 0, len(events))
	for _, e := range events {
		if e.EventType != "24hrTicker" {
			continue
		}
		q := model.Quote{Venue: model.Binance, Symbol: model.Symbol(e.Symbol)}
		if v, ok := fastparse.ParseFloatOK(e.BidPrice); ok {
			q.BidPrice = model.Ptr(v)
		}
		if v, ok := fastparse.ParseFloatOK(e.BidQty); ok {
			q.BidQty = model.Ptr(v)
		}
		if v, ok := fastparse.ParseFloatOK(e.AskPrice); ok {
			q.AskPrice = model.Ptr(v)
		}
		if v, ok := fastparse.ParseFloatOK(e.AskQty); ok {
			q.AskQty = model.Ptr(v)
		}
		if q.BidPrice == nil || q.AskPrice == nil {
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}
