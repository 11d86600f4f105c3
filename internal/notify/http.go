package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// SourceApp identifies this engine in observability events.
const SourceApp = "multi-agent-coordinator"

// event is the JSON envelope posted to the collector.
type event struct {
	SourceApp     string  `json:"source_app"`
	SessionID     string  `json:"session_id"`
	HookEventType string  `json:"hook_event_type"`
	Payload       Payload `json:"payload"`
	// Timestamp is milliseconds since epoch.
	Timestamp int64 `json:"timestamp"`
}

// HTTPNotifier posts events to `{server}/events`. Non-2xx responses and
// transport errors are logged as warnings and never retried; a circuit
// breaker stops hammering a collector that is clearly down.
type HTTPNotifier struct {
	server    string
	sessionID string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	now       func() time.Time
}

// NewHTTP creates an HTTPNotifier for the given collector base URL.
func NewHTTP(server, sessionID string) *HTTPNotifier {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "observability",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[notify] %s circuit breaker: %s -> %s", name, from, to)
		},
	})

	return &HTTPNotifier{
		server:    server,
		sessionID: sessionID,
		client:    &http.Client{Timeout: 5 * time.Second},
		breaker:   breaker,
		now:       time.Now,
	}
}

// Notify implements Notifier.
func (n *HTTPNotifier) Notify(ctx context.Context, eventType string, payload Payload) {
	_, err := n.breaker.Execute(func() (interface{}, error) {
		return nil, n.post(ctx, eventType, payload)
	})
	if err != nil {
		log.Printf("[notify] could not send %s event to observability server: %v", eventType, err)
	}
}

func (n *HTTPNotifier) post(ctx context.Context, eventType string, payload Payload) error {
	body, err := json.Marshal(event{
		SourceApp:     SourceApp,
		SessionID:     n.sessionID,
		HookEventType: eventType,
		Payload:       payload,
		Timestamp:     n.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.server+"/events", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("observability server returned status %d", resp.StatusCode)
	}
	return nil
}

var _ Notifier = (*HTTPNotifier)(nil)
