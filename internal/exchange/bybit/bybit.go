// Package bybit implements the session.Adapter for Bybit's public spot
// orderbook WebSocket stream and REST instrument metadata.
package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/morroisback/exchange-observer/internal/core/model"
	"github.com/morroisback/exchange-observer/internal/exchange/session"
	"github.com/morroisback/exchange-observer/internal/httpfetch"
	"github.com/morroisback/exchange-observer/internal/util/fastparse"
)

const (
	WebSocketURL      = "wss://stream.bybit.com/v5/public/spot"
	RestSpotInfo      = "https://api.bybit.com/v5/market/instruments-info?category=spot"
	MaxArgsPerMessage = 10
)

// Adapter talks to Bybit's level-1 orderbook topic. Subscriptions are
// application-level messages, chunked because Bybit rejects a subscribe
// frame carrying more than MaxArgsPerMessage topics, and the heartbeat is
// an application-level {"op":"ping"}/{"op":"pong"} pair rather than a
// WebSocket control frame.
type Adapter struct {
	http *httpfetch.Client
}

func New(http *httpfetch.Client) *Adapter {
	return &Adapter{http: http}
}

func (a *Adapter) Venue() model.Venue   { return model.Bybit }
func (a *Adapter) WebSocketURL() string { return WebSocketURL }

type instrumentInfo struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

type instrumentsInfoResponse struct {
	Result struct {
		List []instrumentInfo `json:"list"`
	} `json:"result"`
}

// FetchSymbols returns every instrument whose status is Trading.
func (a *Adapter) FetchSymbols(ctx context.Context) ([]string, error) {
	body, err := a.http.GetJSON(ctx, RestSpotInfo)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments info: %w", err)
	}

	var resp instrumentsInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode instruments info: %w", err)
	}

	symbols := make([]string, 0, len(resp.Result.List))
	for _, inst := range resp.Result.List {
		if inst.Status == "Trading" {
			symbols = append(symbols, inst.Symbol)
		}
	}
	return symbols, nil
}

type subscribeRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

// Subscribe sends one subscribe frame per chunk of MaxArgsPerMessage
// orderbook.1.<symbol> topics.
func (a *Adapter) Subscribe(conn session.Conn, symbols []string) error {
	for start := 0; start < len(symbols); start += MaxArgsPerMessage {
		end := start + MaxArgsPerMessage
		if end > len(symbols) {
			end = len(symbols)
		}

		args := make([]string, 0, end-start)
		for _, sym := range symbols[start:end] {
			args = append(args, "orderbook.1."+sym)
		}

		payload, err := json.Marshal(subscribeRequest{Op: "subscribe", Args: args})
		if err != nil {
			return fmt.Errorf("encode subscribe request: %w", err)
		}
		if err := conn.WriteMessage(1, payload); err != nil {
			return fmt.Errorf("send subscribe request: %w", err)
		}
	}
	return nil
}

// IsPing/IsPong classify heartbeat frames by a cheap substring match rather
// than a full decode, avoiding an allocation on the majority of frames that
// carry book data.
func (a *Adapter) IsPing(frame []byte) bool {
	return strings.Contains(string(frame), `"op":"ping"`)
}

func (a *Adapter) IsPong(frame []byte) bool {
	return strings.Contains(string(frame), `"op":"pong"`)
}

type opFrame struct {
	Op string `json:"op"`
}

// SendPing emits the application-level ping Bybit expects every session;
// the server answers it, and a missing pong will surface as a read timeout
// in the session base rather than here.
func (a *Adapter) SendPing(conn session.Conn) error {
	payload, err := json.Marshal(opFrame{Op: "ping"})
	if err != nil {
		return err
	}
	return conn.WriteMessage(1, payload)
}

// HandlePing answers a server-initiated ping with a pong; Bybit's public
// stream does not send these today but the protocol documents it as valid.
func (a *Adapter) HandlePing(conn session.Conn, frame []byte) error {
	payload, err := json.Marshal(opFrame{Op: "pong"})
	if err != nil {
		return err
	}
	return conn.WriteMessage(1, payload)
}

func (a *Adapter) HandlePong(frame []byte) {}

type subscribeAck struct {
	Op      string `json:"op"`
	Success *bool  `json:"success"`
	RetMsg  string `json:"ret_msg"`
}

type orderbookMessage struct {
	Topic string `json:"topic"`
	Data  struct {
		Symbol string     `json:"s"`
		Bids   [][]string `json:"b"`
		Asks   [][]string `json:"a"`
	} `json:"data"`
}

// HandleMessage decodes a subscribe ack (a rejected ack is returned as an
// error, an accepted one yields no quotes) or an orderbook.* topic update
// into a Quote. Both sides must be present to emit:
// a one-sided delta returns no quotes rather than overwriting a previously
// stored both-sided quote with a half-empty one.
func (a *Adapter) HandleMessage(frame []byte) ([]model.Quote, error) {
	var ack subscribeAck
	if err := json.Unmarshal(frame, &ack); err == nil && ack.Op == "subscribe" {
		if ack.Success != nil && !*ack.Success {
			return nil, fmt.Errorf("subscribe rejected: %s", ack.RetMsg)
		}
		return nil, nil
	}

	var msg orderbookMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("decode orderbook message: %w", err)
	}
	if !strings.Contains(msg.Topic, "orderbook") || msg.Data.Symbol == "" {
		return nil, nil
	}

	q := model.Quote{Venue: model.Bybit, Symbol: model.Symbol(msg.Data.Symbol)}
	if len(msg.Data.Bids) > 0 && len(msg.Data.Bids[0]) == 2 {
		if v, ok := fastparse.ParseFloatOK(msg.Data.Bids[0][0]); ok {
			q.BidPrice = model.Ptr(v)
		}
		if v, ok := fastparse.ParseFloatOK(msg.Data.Bids[0][1]); ok {
			q.BidQty = model.Ptr(v)
		}
	}
	if len(msg.Data.Asks) > 0 && len(msg.Data.Asks[0]) == 2 {
		if v, ok := fastparse.ParseFloatOK(msg.Data.Asks[0][0]); ok {
			q.AskPrice = model.Ptr(v)
		}
		if v, ok := fastparse.ParseFloatOK(msg.Data.Asks[0][1]); ok {
			q.AskQty = model.Ptr(v)
		}
	}
	if q.BidPrice == nil || q.AskPrice == nil {
		return nil, nil
	}
	return []model.Quote{q}, nil
}
