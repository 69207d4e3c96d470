package topicbus

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/topicbus/topic"
)

// Common filter predicates for subscriptions.

// FilterBySource creates a filter that only allows messages from the specified source.
func FilterBySource(source string) FilterFunc {
	return func(msg Message) bool {
		return msg.Meta.Source == source
	}
}

// FilterBySourcePrefix creates a filter that only allows messages from sources starting with prefix.
func FilterBySourcePrefix(prefix string) FilterFunc {
	return func(msg Message) bool {
		return msg.Meta.Source != "" && strings.HasPrefix(msg.Meta.Source, prefix)
	}
}

// FilterBySources creates a filter that only allows messages from one of the specified sources.
func FilterBySources(sources ...string) FilterFunc {
	sourceSet := make(map[string]bool, len(sources))
	for _, s := range sources {
		sourceSet[s] = true
	}
	return func(msg Message) bool {
		return sourceSet[msg.Meta.Source]
	}
}

// FilterExcludeSource creates a filter that excludes messages from the specified source.
func FilterExcludeSource(source string) FilterFunc {
	return func(msg Message) bool {
		return msg.Meta.Source != source
	}
}

// FilterByTopic creates a filter that only allows messages matching the topic pattern.
// This is useful when subscribing to a wildcard but wanting finer-grained control.
func FilterByTopic(pattern topic.Topic) FilterFunc {
	return func(msg Message) bool {
		return msg.Topic.Matches(pattern)
	}
}

// FilterByTopicPrefix creates a filter for messages whose topics start with
// the given segments. The comparison is segment-aware: "orders.us" is a
// prefix of "orders.us.east" but not of "orders.usa".
func FilterByTopicPrefix(prefix topic.Topic) FilterFunc {
	return func(msg Message) bool {
		return msg.Topic.HasPrefix(prefix)
	}
}

// FilterExcludeTopic creates a filter that excludes messages matching the topic pattern.
func FilterExcludeTopic(pattern topic.Topic) FilterFunc {
	return func(msg Message) bool {
		return !msg.Topic.Matches(pattern)
	}
}

// FilterByCorrelation creates a filter that only allows messages with the specified correlation ID.
func FilterByCorrelation(correlationID string) FilterFunc {
	return func(msg Message) bool {
		return msg.Meta.CorrelationID == correlationID
	}
}

// FilterByCausation creates a filter that only allows messages with the specified causation ID.
func FilterByCausation(causationID string) FilterFunc {
	return func(msg Message) bool {
		return msg.Meta.CausationID == causationID
	}
}

// FilterPayload creates a filter based on the payload.
// Messages whose payload is not of type T are filtered out.
func FilterPayload[T any](predicate func(payload T) bool) FilterFunc {
	return func(msg Message) bool {
		payload, ok := msg.Payload.(T)
		if !ok {
			return false
		}
		return predicate(payload)
	}
}

// FilterJSON creates a filter that inspects a JSON payload.
// The payload must be a string, []byte, or json.RawMessage holding JSON;
// other payload types never match. The path uses gjson syntax, e.g.
// "user.roles.0" or "items.#". The predicate receives the value at that
// path (which may be a non-existent Result).
func FilterJSON(path string, predicate func(value gjson.Result) bool) FilterFunc {
	return func(msg Message) bool {
		switch p := msg.Payload.(type) {
		case string:
			return predicate(gjson.Get(p, path))
		case []byte:
			return predicate(gjson.GetBytes(p, path))
		case json.RawMessage:
			return predicate(gjson.GetBytes(p, path))
		default:
			return false
		}
	}
}

// FilterAnd combines multiple filters with AND logic.
// All filters must pass for the message to be delivered.
func FilterAnd(filters ...FilterFunc) FilterFunc {
	return func(msg Message) bool {
		for _, f := range filters {
			if !f(msg) {
				return false
			}
		}
		return true
	}
}

// FilterOr combines multiple filters with OR logic.
// At least one filter must pass for the message to be delivered.
func FilterOr(filters ...FilterFunc) FilterFunc {
	return func(msg Message) bool {
		for _, f := range filters {
			if f(msg) {
				return true
			}
		}
		return false
	}
}

// FilterNot negates a filter.
func FilterNot(filter FilterFunc) FilterFunc {
	return func(msg Message) bool {
		return !filter(msg)
	}
}

// FilterAll allows all messages (no filtering).
func FilterAll() FilterFunc {
	return func(Message) bool {
		return true
	}
}

// FilterNone blocks all messages.
func FilterNone() FilterFunc {
	return func(Message) bool {
		return false
	}
}
