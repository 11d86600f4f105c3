// Package coordinator wires the task store, agent registry, and message
// bus behind a serialized mutation surface and owns the scheduling loop.
package coordinator

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/maestro-sh/maestro/internal/notify"
)

// EventType represents the type of coordinator lifecycle event.
type EventType string

const (
	// EventAgentRegistered indicates an agent joined the pool.
	EventAgentRegistered EventType = "agent_registered"
	// EventTaskCreated indicates a task was created and enqueued.
	EventTaskCreated EventType = "task_created"
	// EventTaskAssigned indicates a task was matched to an agent.
	EventTaskAssigned EventType = "task_assigned"
	// EventTaskStarted indicates the assigned agent reported progress.
	EventTaskStarted EventType = "task_started"
	// EventTaskCompleted indicates a task completed successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates an execution attempt failed.
	EventTaskFailed EventType = "task_failed"
	// EventTaskCancelled indicates a pending task was cancelled.
	EventTaskCancelled EventType = "task_cancelled"
	// EventTaskCancelRequested indicates an active task was marked for
	// cooperative cancellation.
	EventTaskCancelRequested EventType = "task_cancel_requested"
)

// Event is a lifecycle event emitted by the coordinator.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// Payload holds the event-specific fields.
	Payload notify.Payload
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// Emitter is a buffered, non-blocking event channel. Scheduling never
// waits on a slow subscriber; under sustained backpressure events are
// dropped and counted.
type Emitter struct {
	events       chan Event
	droppedCount atomic.Uint64
}

// NewEmitter creates an Emitter with the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	return &Emitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event. If the channel is full it waits briefly for the
// receiver to drain, then drops the event.
func (e *Emitter) Emit(event Event) {
	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
	case <-time.After(100 * time.Millisecond):
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // log every 10th drop to avoid spam
			log.Printf("[coordinator] WARNING: event channel full, dropped event (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the total number of events that have been dropped.
func (e *Emitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns the read-only event channel.
func (e *Emitter) Events() <-chan Event {
	return e.events
}

// Close closes the event channel. Call only after all emitters stopped.
func (e *Emitter) Close() {
	close(e.events)
}
