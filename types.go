package topicbus

import (
	"context"

	"github.com/dshills/topicbus/topic"
)

// Topic is re-exported from the topic package so callers can use
// topicbus.Topic without an extra import. Untyped string constants
// convert to it implicitly.
type Topic = topic.Topic

// Priority determines handler execution order within a single publish.
// Lower values execute first.
type Priority int

const (
	// PriorityCritical is for handlers that must observe a message before
	// anything else, such as in-memory state projections.
	PriorityCritical Priority = 0

	// PriorityHigh is for handlers that feed downstream work.
	PriorityHigh Priority = 100

	// PriorityNormal is the default priority.
	PriorityNormal Priority = 200

	// PriorityLow is for metrics, audit trails, and other handlers that
	// should run last.
	PriorityLow Priority = 300
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	default:
		return "low"
	}
}

// DeliveryMode specifies how Publish delivers messages to a subscription.
type DeliveryMode int

const (
	// DeliverySync executes the handler in the publisher's goroutine.
	// The publisher sees the outcome in the Receipt.
	DeliverySync DeliveryMode = iota

	// DeliveryAsync queues the message for delivery by the worker pool.
	// Use for handlers that must not block the publisher.
	DeliveryAsync
)

// String returns a human-readable delivery mode name.
func (m DeliveryMode) String() string {
	switch m {
	case DeliverySync:
		return "sync"
	case DeliveryAsync:
		return "async"
	default:
		return "unknown"
	}
}

// Handler is the interface for message handlers.
type Handler interface {
	// Handle processes a message. Returning an error marks the delivery
	// as failed; it never stops delivery to other subscriptions.
	Handle(ctx context.Context, msg Message) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, msg Message) error

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// PayloadHandler adapts a payload-typed function to a Handler.
// Messages whose payload is not of type T are skipped silently.
func PayloadHandler[T any](fn func(ctx context.Context, payload T) error) Handler {
	return HandlerFunc(func(ctx context.Context, msg Message) error {
		if payload, ok := msg.Payload.(T); ok {
			return fn(ctx, payload)
		}
		// Type mismatch - skip silently
		return nil
	})
}

// FilterFunc is a predicate for filtering messages.
// Return true to deliver the message, false to skip it.
type FilterFunc func(msg Message) bool

// PanicHandler is called when a handler panics during delivery.
type PanicHandler func(msg Message, recovered any, stack []byte)

// Stats contains bus statistics.
type Stats struct {
	// MessagesPublished is the total number of messages published.
	MessagesPublished uint64

	// MessagesDelivered is the total number of successful deliveries.
	MessagesDelivered uint64

	// MessagesDropped is the number of deliveries dropped (queue full, etc.).
	MessagesDropped uint64

	// HandlersExecuted is the total number of handler executions.
	HandlersExecuted uint64

	// HandlerErrors is the number of handlers that returned errors.
	HandlerErrors uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// AvgDeliveryTimeNs is the average delivery time in nanoseconds.
	AvgDeliveryTimeNs int64

	// ActiveSubscriptions is the current number of active subscriptions.
	ActiveSubscriptions int

	// QueueDepth is the current async queue depth.
	QueueDepth int
}
