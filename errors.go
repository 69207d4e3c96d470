package topicbus

import (
	"errors"

	"github.com/dshills/topicbus/topic"
)

// Sentinel errors for the message bus.
var (
	// ErrInvalidTopic is returned by Publish when the topic is empty or
	// contains empty words.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidPattern is returned by Subscribe when the pattern is empty
	// or contains empty words.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrBusClosed is returned when operations are attempted on a closed bus.
	ErrBusClosed = errors.New("bus is closed")

	// ErrQueueFull is recorded when the async queue is full and a delivery
	// is dropped.
	ErrQueueFull = errors.New("message queue is full")

	// ErrHandlerPanic is the sentinel matched by errors.Is for PanicError.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrSubscriberClosed is returned when subscribing through a closed Subscriber.
	ErrSubscriberClosed = errors.New("subscriber is closed")
)

// HandlerError wraps an error from a handler with delivery context.
type HandlerError struct {
	// SubscriptionID is the ID of the subscription whose handler failed.
	SubscriptionID string

	// Topic is the topic of the message being delivered.
	Topic topic.Topic

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return "handler error for subscription " + e.SubscriptionID + " on topic " + e.Topic.String() + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic value recovered from a handler as an error.
type PanicError struct {
	// SubscriptionID is the ID of the subscription whose handler panicked.
	SubscriptionID string

	// Topic is the topic of the message being delivered.
	Topic topic.Topic

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return "handler panic for subscription " + e.SubscriptionID + " on topic " + e.Topic.String()
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
