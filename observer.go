package topicbus

import (
	"time"

	"github.com/dshills/topicbus/topic"
)

// Outcome classifies the result of a delivery attempt.
type Outcome string

const (
	// OutcomeOK means the handler completed without error.
	OutcomeOK Outcome = "ok"

	// OutcomeError means the handler returned an error.
	OutcomeError Outcome = "error"

	// OutcomePanic means the handler panicked.
	OutcomePanic Outcome = "panic"
)

// Observer receives instrumentation callbacks from the bus.
// Implementations must be safe for concurrent use and must not block;
// they run inline on the publish and delivery paths.
type Observer interface {
	// ObservePublish is called once per published message.
	ObservePublish(t topic.Topic)

	// ObserveDelivery is called after each delivery attempt with its
	// outcome and duration. Async enqueues report on execution, not on
	// enqueue.
	ObserveDelivery(t topic.Topic, outcome Outcome, d time.Duration)

	// ObserveDrop is called when an async delivery is dropped because the
	// queue is full or the bus is shutting down.
	ObserveDrop(t topic.Topic)
}

// nopObserver is the default observer. It does nothing.
type nopObserver struct{}

func (nopObserver) ObservePublish(topic.Topic)                          {}
func (nopObserver) ObserveDelivery(topic.Topic, Outcome, time.Duration) {}
func (nopObserver) ObserveDrop(topic.Topic)                             {}
