// Package notify delivers lifecycle events to an external observability
// collector. Delivery is best-effort: failures are logged and otherwise
// ignored, and the engine never depends on it for correctness.
package notify

import "context"

// Payload carries the event-specific fields of a lifecycle event.
type Payload map[string]interface{}

// Notifier is the fire-and-forget delivery contract.
type Notifier interface {
	// Notify delivers one event. Implementations must not panic and
	// should swallow delivery errors after logging them.
	Notify(ctx context.Context, eventType string, payload Payload)
}

// Nop is a Notifier that discards everything. Used in tests and when no
// collector is configured.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(context.Context, string, Payload) {}

// Multi fans one event out to several notifiers in order.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, eventType string, payload Payload) {
	for _, n := range m {
		n.Notify(ctx, eventType, payload)
	}
}

var (
	_ Notifier = Nop{}
	_ Notifier = Multi{}
)
