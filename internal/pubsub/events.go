// Package pubsub provides a generic publish/subscribe event system.
// scoutcon uses it to fan out drained library log lines (to the terminal
// transcript) and formatted debug log entries.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// LogLineEvent carries one line drained from the library's log buffer.
	LogLineEvent EventType = "log_line"
	// LogEntryEvent carries one formatted entry written by internal/log.
	LogEntryEvent EventType = "log_entry"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}

// SubscriberFunc adapts a subscribe function, such as log.Subscribe, to
// Subscriber.
type SubscriberFunc[T any] func(ctx context.Context) <-chan Event[T]

func (f SubscriberFunc[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	return f(ctx)
}
