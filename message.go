package topicbus

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/topicbus/topic"
)

// timeNow is a variable to allow testing with fixed timestamps.
var timeNow = time.Now

// Message is the unit of delivery on the bus.
// Messages are values; handlers receive their own copy of the struct.
type Message struct {
	// Topic is the dot-delimited subject the message was published under.
	Topic topic.Topic

	// Payload is the message body. The bus never inspects it.
	Payload any

	// Meta contains standard message information.
	Meta Metadata
}

// Metadata contains standard information attached to every message.
type Metadata struct {
	// ID is a unique identifier for this message instance.
	ID string

	// Source identifies the component that published the message.
	Source string

	// Timestamp is when the message was created.
	Timestamp time.Time

	// CorrelationID links related messages (e.g., request/response).
	CorrelationID string

	// CausationID links to the message that caused this one.
	CausationID string
}

// NewMessage creates a message with a generated ID and the current time.
func NewMessage(t topic.Topic, payload any) Message {
	return Message{
		Topic:   t,
		Payload: payload,
		Meta: Metadata{
			ID:        uuid.NewString(),
			Timestamp: timeNow(),
		},
	}
}

// WithSource returns a copy of the message with the source set.
func (m Message) WithSource(source string) Message {
	m.Meta.Source = source
	return m
}

// WithCorrelation returns a copy of the message with a correlation ID set.
func (m Message) WithCorrelation(correlationID string) Message {
	m.Meta.CorrelationID = correlationID
	return m
}

// WithCausation returns a copy of the message with a causation ID set.
func (m Message) WithCausation(causationID string) Message {
	m.Meta.CausationID = causationID
	return m
}
