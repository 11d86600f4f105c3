package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPNotifier_PostsEnvelope(t *testing.T) {
	var got event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("path = %q, want /events", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewHTTP(srv.URL, "coordinator")
	n.now = func() time.Time { return time.UnixMilli(1717243200000) }

	n.Notify(context.Background(), "task_created", Payload{"task_id": "t1"})

	if got.SourceApp != SourceApp {
		t.Errorf("source_app = %q, want %q", got.SourceApp, SourceApp)
	}
	if got.SessionID != "coordinator" {
		t.Errorf("session_id = %q, want coordinator", got.SessionID)
	}
	if got.HookEventType != "task_created" {
		t.Errorf("hook_event_type = %q, want task_created", got.HookEventType)
	}
	if got.Payload["task_id"] != "t1" {
		t.Errorf("payload = %v", got.Payload)
	}
	if got.Timestamp != 1717243200000 {
		t.Errorf("timestamp = %d, want milliseconds since epoch", got.Timestamp)
	}
}

func TestHTTPNotifier_SwallowsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewHTTP(srv.URL, "coordinator")

	// Must not panic or block; delivery failure is not an engine failure.
	n.Notify(context.Background(), "task_created", Payload{})
}

func TestHTTPNotifier_SwallowsTransportErrors(t *testing.T) {
	n := NewHTTP("http://127.0.0.1:1", "coordinator")
	n.Notify(context.Background(), "task_created", Payload{})
}

func TestHTTPNotifier_BreakerStopsHammering(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewHTTP(srv.URL, "coordinator")

	for i := 0; i < 20; i++ {
		n.Notify(context.Background(), "task_created", Payload{})
	}

	// The breaker opens after 5 consecutive failures; subsequent calls
	// are rejected locally.
	if h := hits.Load(); h > 6 {
		t.Errorf("expected the circuit breaker to open, server saw %d requests", h)
	}
}

func TestMulti_FansOut(t *testing.T) {
	var calls int
	fn := notifierFunc(func(context.Context, string, Payload) { calls++ })

	Multi{fn, fn, Nop{}}.Notify(context.Background(), "x", Payload{})
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

type notifierFunc func(context.Context, string, Payload)

func (f notifierFunc) Notify(ctx context.Context, eventType string, payload Payload) {
	f(ctx, eventType, payload)
}
