package topicbus

import (
	"context"

	"github.com/dshills/topicbus/topic"
)

// Publisher provides a simplified API for publishing messages.
// It wraps a Bus and stamps every message with a source identifier.
type Publisher struct {
	bus    Bus
	source string
}

// NewPublisher creates a new Publisher wrapping the given bus.
// The source parameter identifies where messages originate (e.g., "orders", "billing").
func NewPublisher(bus Bus, source string) *Publisher {
	return &Publisher{
		bus:    bus,
		source: source,
	}
}

// Publish sends a message synchronously with the publisher's source.
func (p *Publisher) Publish(ctx context.Context, t topic.Topic, payload any) (Receipt, error) {
	return p.bus.PublishMsg(ctx, p.message(t, payload))
}

// PublishAsync enqueues a message with the publisher's source.
func (p *Publisher) PublishAsync(ctx context.Context, t topic.Topic, payload any) error {
	return p.bus.PublishMsgAsync(ctx, p.message(t, payload))
}

// PublishMsg publishes a pre-constructed message.
// The publisher's source is stamped only if the message has none.
func (p *Publisher) PublishMsg(ctx context.Context, msg Message) (Receipt, error) {
	if msg.Meta.Source == "" {
		msg.Meta.Source = p.source
	}
	return p.bus.PublishMsg(ctx, msg)
}

// PublishWithCorrelation publishes a message with a correlation ID.
// Useful for tracking related messages across operations.
func (p *Publisher) PublishWithCorrelation(ctx context.Context, t topic.Topic, payload any, correlationID string) (Receipt, error) {
	return p.bus.PublishMsg(ctx, p.message(t, payload).WithCorrelation(correlationID))
}

// PublishWithCausation publishes a message with a causation ID.
// Useful for tracking message chains where one message causes another.
func (p *Publisher) PublishWithCausation(ctx context.Context, t topic.Topic, payload any, causationID string) (Receipt, error) {
	return p.bus.PublishMsg(ctx, p.message(t, payload).WithCausation(causationID))
}

// Reply publishes a response to a previously received message.
// The reply carries the original's correlation ID (falling back to the
// original's message ID when none is set) and records the original as
// its cause.
func (p *Publisher) Reply(ctx context.Context, to Message, t topic.Topic, payload any) (Receipt, error) {
	correlationID := to.Meta.CorrelationID
	if correlationID == "" {
		correlationID = to.Meta.ID
	}

	msg := p.message(t, payload).
		WithCorrelation(correlationID).
		WithCausation(to.Meta.ID)
	return p.bus.PublishMsg(ctx, msg)
}

// message builds a message stamped with the publisher's source.
func (p *Publisher) message(t topic.Topic, payload any) Message {
	return NewMessage(t, payload).WithSource(p.source)
}

// Source returns the publisher's source identifier.
func (p *Publisher) Source() string {
	return p.source
}

// Bus returns the underlying bus.
func (p *Publisher) Bus() Bus {
	return p.bus
}
