package binance

import (
	"testing"
)

func TestAdapter_HandleMessage_FiltersEventTypeAndParsesFields(t *testing.T) {
	a := New(nil)

	frame := []byte(`{"e":"24hrTicker","s":"BTCUSDT","b":"50000.5","B":"1.2","a":"50001.0","A":"0.8"}`)
	quotes, err := a.HandleMessage(frame)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("len(quotes) = %d, want 1", len(quotes))
	}
	q := quotes[0]
	if q.Symbol != "BTCUSDT" || *q.BidPrice != 50000.5 || *q.AskPrice != 50001.0 {
		t.Fatalf("unexpected quote: %+v", q)
	}
}

func TestAdapter_HandleMessage_IgnoresOtherEventTypes(t *testing.T) {
	a := New(nil)

	frame := []byte(`{"e":"aggTrade","s":"BTCUSDT"}`)
	quotes, err := a.HandleMessage(frame)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(quotes) != 0 {
		t.Fatalf("expected no quotes for a non-ticker event, got %v", quotes)
	}
}

func TestAdapter_HandleMessage_ArrayFrame(t *testing.T) {
	a := New(nil)

	frame := []byte(`[
		{"e":"24hrTicker","s":"BTCUSDT","b":"50000","B":"1","a":"50001","A":"1"},
		{"e":"24hrTicker","s":"ETHUSDT","b":"3000","B":"1","a":"3001","A":"1"}
	]`)
	quotes, err := a.HandleMessage(frame)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("len(quotes) = %d, want 2", len(quotes))
	}
}

func TestAdapter_HandleMessage_MalformedSidePriceDropsItem(t *testing.T) {
	a := New(nil)

	frame := []byte(`{"e":"24hrTicker","s":"BTCUSDT","b":"not-a-number","B":"1.2","a":"50001.0","A":"0.8"}`)
	quotes, err := a.HandleMessage(frame)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(quotes) != 0 {
		t.Fatalf("expected a malformed bid price to drop the whole item (both sides required to emit), got %v", quotes)
	}
}

func TestAdapter_HandleMessage_ArrayFrameDropsOneSidedItemKeepsOthers(t *testing.T) {
	a := New(nil)

	frame := []byte(`[
		{"e":"24hrTicker","s":"BTCUSDT","b":"not-a-number","B":"1","a":"50001","A":"1"},
		{"e":"24hrTicker","s":"ETHUSDT","b":"3000","B":"1","a":"3001","A":"1"}
	]`)
	quotes, err := a.HandleMessage(frame)
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("len(quotes) = %d, want 1 (BTCUSDT dropped, ETHUSDT kept)", len(quotes))
	}
	if quotes[0].Symbol != "ETHUSDT" {
		t.Fatalf("unexpected surviving quote: %+v", quotes[0])
	}
}

func TestAdapter_NoopHooks(t *testing.T) {
	a := New(nil)
	if a.IsPing(nil) || a.IsPong(nil) {
		t.Fatal("Binance adapter should never classify an application-level ping/pong frame")
	}
	if err := a.Subscribe(nil, []string{"BTCUSDT"}); err != nil {
		t.Fatalf("Subscribe should be a no-op, got: %v", err)
	}
	if err := a.SendPing(nil); err != nil {
		t.Fatalf("SendPing should be a no-op, got: %v", err)
	}
	if err := a.HandlePing(nil, nil); err != nil {
		t.Fatalf("HandlePing should be a no-op, got: %v", err)
	}
}
