// Package gateio implements the session.Adapter for Gate.io's public spot
// book-ticker WebSocket stream and REST currency-pair metadata.
package gateio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/morroisback/exchange-observer/internal/core/model"
	"github.com/morroisback/exchange-observer/internal/exchange/session"
	"github.com/morroisback/exchange-observer/internal/httpfetch"
	"github.com/morroisback/exchange-observer/internal/util/fastparse"
)

const (
	WebSocketURL      = "wss://api.gateio.ws/ws/v4/"
	RestCurrencyPairs = "https://api.gateio.ws/api/v4/spot/currency_pairs"
	MaxArgsPerMessage = 10
)

// Adapter talks to Gate.io's spot.book_ticker channel. Gate.io identifies
// pairs with an underscore, e.g. BTC_USDT; FetchSymbols and Subscribe both
// use that native form, and HandleMessage strips the underscore only for
// the Quote's Symbol so the store's keys match the other two venues'
// concatenated form.
type Adapter struct {
	http *httpfetch.Client
}

func New(http *httpfetch.Client) *Adapter {
	return &Adapter{http: http}
}

func (a *Adapter) Venue() model.Venue   { return model.Gateio }
func (a *Adapter) WebSocketURL() string { return WebSocketURL }

type currencyPair struct {
	ID          string `json:"id"`
	TradeStatus string `json:"trade_status"`
}

// FetchSymbols returns every pair ID whose trade_status is tradable, in
// Gate.io's native BASE_QUOTE form.
func (a *Adapter) FetchSymbols(ctx context.Context) ([]string, error) {
	body, err := a.http.GetJSON(ctx, RestCurrencyPairs)
	if err != nil {
		return nil, fmt.Errorf("fetch currency pairs: %w", err)
	}

	var pairs []currencyPair
	if err := json.Unmarshal(body, &pairs); err != nil {
		return nil, fmt.Errorf("decode currency pairs: %w", err)
	}

	symbols := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.TradeStatus == "tradable" {
			symbols = append(symbols, p.ID)
		}
	}
	return symbols, nil
}

type channelRequest struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event"`
	Payload []string `json:"payload"`
}

// Subscribe sends one spot.book_ticker subscribe frame per chunk of
// MaxArgsPerMessage native pair IDs.
func (a *Adapter) Subscribe(conn session.Conn, symbols []string) error {
	for start := 0; start < len(symbols); start += MaxArgsPerMessage {
		end := start + MaxArgsPerMessage
		if end > len(symbols) {
			end = len(symbols)
		}

		req := channelRequest{
			Time:    time.Now().Unix(),
			Channel: "spot.book_ticker",
			Event:   "subscribe",
			Payload: append([]string(nil), symbols[start:end]...),
		}
		payload, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("encode subscribe request: %w", err)
		}
		if err := conn.WriteMessage(1, payload); err != nil {
			return fmt.Errorf("send subscribe request: %w", err)
		}
	}
	return nil
}

type channelFrame struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
}

func (a *Adapter) IsPing(frame []byte) bool {
	var f channelFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		return false
	}
	return f.Channel == "spot.ping"
}

func (a *Adapter) IsPong(frame []byte) bool {
	var f channelFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		return false
	}
	return f.Channel == "spot.pong"
}

// SendPing emits the spot.ping heartbeat frame.
func (a *Adapter) SendPing(conn session.Conn) error {
	payload, err := json.Marshal(channelRequest{
		Time:    time.Now().Unix(),
		Channel: "spot.ping",
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(1, payload)
}

// HandlePing answers a server-initiated ping with spot.pong.
func (a *Adapter) HandlePing(conn session.Conn, frame []byte) error {
	payload, err := json.Marshal(channelRequest{
		Time:    time.Now().Unix(),
		Channel: "spot.pong",
	})
	if err != nil {
		return err
	}
	return conn.WriteMessage(1, payload)
}

func (a *Adapter) HandlePong(frame []byte) {}

type bookTickerUpdate struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Result  struct {
		Symbol   string `json:"s"`
		BidPrice string `json:"b"`
		BidQty   string `json:"B"`
		AskPrice string `json:"a"`
		AskQty   string `json:"A"`
	} `json:"result"`
}

// HandleMessage decodes a spot.book_ticker update frame. Non-update events
// on the same channel (e.g. the subscribe ack) return no quotes. Both sides
// must be present to emit, so a frame missing or failing to parse either
// price is dropped rather than replacing a stored quote with a half-empty one.
func (a *Adapter) HandleMessage(frame []byte) ([]model.Quote, error) {
	var msg bookTickerUpdate
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("decode book ticker update: %w", err)
	}
	if msg.Event != "update" || !strings.Contains(msg.Channel, "book_ticker") {
		return nil, nil
	}
	if msg.Result.Symbol == "" {
		return nil, nil
	}

	symbol := strings.ReplaceAll(msg.Result.Symbol, "_", "")
	q := model.Quote{Venue: model.Gateio, Symbol: model.Symbol(symbol)}
	if v, ok := fastparse.ParseFloatOK(msg.Result.BidPrice); ok {
		q.BidPrice = model.Ptr(v)
	}
	if v, ok := fastparse.ParseFloatOK(msg.Result.BidQty); ok {
		q.BidQty = model.Ptr(v)
	}
	if v, ok := fastparse.ParseFloatOK(msg.Result.AskPrice); ok {
		q.AskPrice = model.Ptr(v)
	}
	if v, ok := fastparse.ParseFloatOK(msg.Result.AskQty); ok {
		q.AskQty = model.Ptr(v)
	}
	if q.BidPrice == nil || q.AskPrice == nil {
		return nil, nil
	}
	return []model.Quote{q}, nil
}
