// Package pubsub fans application events (state changes, log lines,
// catalog file changes) out to any number of subscribers, and from there
// onto the UI thread.
package pubsub

import "time"

// EventType tells subscribers what happened to the payload.
type EventType string

const (
	// CreatedEvent announces a new item, such as a log line.
	CreatedEvent EventType = "created"
	// UpdatedEvent announces a change to existing state.
	UpdatedEvent EventType = "updated"
)

// Event is one published payload. Seq increases by one per Publish on the
// same broker, so a subscriber can tell when it missed events.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Seq       uint64
	Timestamp time.Time
}
