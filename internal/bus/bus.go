// Package bus provides the append-only inter-agent message log with
// time-bounded retention.
package bus

import (
	"sync"
	"time"

	"github.com/maestro-sh/maestro/pkg/models"
)

// Bus is the append-only message log. Sequence IDs are strictly
// increasing across the life of the bus, surviving retention pruning.
type Bus struct {
	mu sync.RWMutex
	// msgs holds messages in append order. Pruning re-slices the head;
	// readers work on copies, so a prune never invalidates a read.
	msgs      []models.Message
	seq       uint64
	retention time.Duration
	now       func() time.Time
}

// New creates a Bus that prunes entries older than retention on each
// append. A non-positive retention disables pruning.
func New(retention time.Duration) *Bus {
	return &Bus{
		retention: retention,
		now:       time.Now,
	}
}

// SetClock replaces the bus clock. Test hook.
func (b *Bus) SetClock(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// Post appends a message, assigning the next sequence ID and the current
// timestamp, and returns the stored entry. It never blocks on delivery.
func (b *Bus) Post(fromAgent, toAgent, messageType, content, taskID string) models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	msg := models.Message{
		ID:          b.seq,
		FromAgent:   fromAgent,
		ToAgent:     toAgent,
		MessageType: messageType,
		Content:     content,
		Timestamp:   b.now(),
		TaskID:      taskID,
	}
	b.msgs = append(b.msgs, msg)
	b.pruneLocked()
	return msg
}

// pruneLocked drops entries older than the retention window. Best-effort:
// it only trims the contiguous expired head, which is sufficient because
// timestamps are appended in order.
func (b *Bus) pruneLocked() {
	if b.retention <= 0 {
		return
	}
	cutoff := b.now().Add(-b.retention)
	i := 0
	for i < len(b.msgs) && b.msgs[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.msgs = b.msgs[i:]
	}
}

// Since returns the messages addressed to agentID with a timestamp at or
// after since, in append order. The result is a copy: callers may iterate
// it lazily and restart it freely, unaffected by concurrent pruning.
func (b *Bus) Since(agentID string, since time.Time) []models.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []models.Message
	for _, msg := range b.msgs {
		if msg.ToAgent != agentID {
			continue
		}
		if msg.Timestamp.Before(since) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Count returns the number of retained messages.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.msgs)
}
