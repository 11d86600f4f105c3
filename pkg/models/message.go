package models

import "time"

// Message is an entry in the inter-agent message log. Messages are
// immutable once appended.
type Message struct {
	// ID is the strictly increasing sequence number assigned on append.
	ID uint64 `json:"id"`
	// FromAgent is the sender's agent ID.
	FromAgent string `json:"from_agent"`
	// ToAgent is the recipient's agent ID.
	ToAgent string `json:"to_agent"`
	// MessageType classifies the message. Opaque to the engine.
	MessageType string `json:"message_type"`
	// Content is the message body.
	Content string `json:"content"`
	// Timestamp is when the message was appended.
	Timestamp time.Time `json:"timestamp"`
	// TaskID optionally references the task this message concerns.
	TaskID string `json:"task_id,omitempty"`
}
