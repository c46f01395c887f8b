package model

import (
	"time"
)

type EventKind string

const (
	EventEnqueued     EventKind = "enqueued"
	EventAcknowledged EventKind = "acknowledged"
	EventRemoved      EventKind = "removed"
	EventCleared      EventKind = "cleared"
)

// MessageEvent describes one relay state transition. Message is set for
// enqueued and acknowledged events; removed and cleared carry only ids.
type MessageEvent struct {
	Kind      EventKind `json:"kind"`
	Recipient string    `json:"recipient"`
	MessageID string    `json:"messageId,omitempty"`
	Message   *Message  `json:"message,omitempty"`
	Dropped   []string  `json:"dropped,omitempty"`
	At        time.Time `json:"at"`
}
