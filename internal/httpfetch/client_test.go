package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_GetJSON_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(time.Second, 50)
	body, err := c.GetJSON(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("body = %s, want {\"ok\":true}", body)
	}
}

func TestClient_GetJSON_RetriesOnServerError(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(time.Second, 50)
	c.retry.InitialDelay = time.Millisecond
	c.retry.MaxDelay = 5 * time.Millisecond

	body, err := c.GetJSON(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("body = %s, want {\"ok\":true}", body)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
}

func TestClient_GetJSON_FailsAfterExhaustingRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(time.Second, 50)
	c.retry.MaxAttempts = 2
	c.retry.InitialDelay = time.Millisecond
	c.retry.MaxDelay = 5 * time.Millisecond

	if _, err := c.GetJSON(context.Background(), srv.URL); err == nil {
		t.Fatal("expected an error after exhausting retries against a failing server")
	}
}
