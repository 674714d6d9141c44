package models

import "time"

// EventKind distinguishes inbound message types from the chat bridge.
type EventKind string

const (
	EventKindChat  EventKind = "chat"
	EventKindImage EventKind = "image"
)

// InboundEvent is one message pulled from the WhatsApp bridge. Immutable
// once received; consumed exactly once per batch.
type InboundEvent struct {
	SenderName string    `json:"senderName"`
	SenderID   string    `json:"senderId"`
	Kind       EventKind `json:"kind"`
	Body       string    `json:"body,omitempty"`
	MediaRef   string    `json:"mediaRef,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Reply is an outbound message staged during a batch and sent in the
// load phase.
type Reply struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Message string `json:"message"`
}
