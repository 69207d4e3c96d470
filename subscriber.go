package topicbus

import (
	"context"
	"sync"

	"github.com/dshills/topicbus/topic"
)

// Subscriber provides a simplified API for subscribing to messages.
// It tracks its subscriptions and cancels them all on Close, so a
// component can tear down its bus wiring in one call.
type Subscriber struct {
	bus           Bus
	subscriptions []Subscription
	mu            sync.Mutex
	closed        bool
}

// NewSubscriber creates a new Subscriber wrapping the given bus.
func NewSubscriber(bus Bus) *Subscriber {
	return &Subscriber{
		bus:           bus,
		subscriptions: make([]Subscription, 0),
	}
}

// Subscribe creates a subscription for the given topic pattern.
// The subscription is tracked for cleanup when Close is called.
func (s *Subscriber) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSubscriberClosed
	}

	sub, err := s.bus.Subscribe(pattern, handler, opts...)
	if err != nil {
		return nil, err
	}

	s.subscriptions = append(s.subscriptions, sub)
	return sub, nil
}

// SubscribeFunc creates a subscription with a function handler.
func (s *Subscriber) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	return s.Subscribe(pattern, fn, opts...)
}

// SubscribeOnce creates a one-time subscription that auto-cancels after the
// first successful delivery.
func (s *Subscriber) SubscribeOnce(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	opts = append(opts, WithOnce())
	return s.Subscribe(pattern, handler, opts...)
}

// SubscribeOnceFunc creates a one-time subscription with a function handler.
func (s *Subscriber) SubscribeOnceFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	opts = append(opts, WithOnce())
	return s.SubscribeFunc(pattern, fn, opts...)
}

// SubscribeAsync creates an asynchronous subscription.
// Messages will be delivered via the async worker pool.
func (s *Subscriber) SubscribeAsync(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	opts = append(opts, WithDeliveryMode(DeliveryAsync))
	return s.Subscribe(pattern, handler, opts...)
}

// SubscribeAsyncFunc creates an asynchronous subscription with a function handler.
func (s *Subscriber) SubscribeAsyncFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	opts = append(opts, WithDeliveryMode(DeliveryAsync))
	return s.SubscribeFunc(pattern, fn, opts...)
}

// SubscribeWithFilter creates a subscription with a filter predicate.
// The handler is only called for messages that pass the filter.
func (s *Subscriber) SubscribeWithFilter(pattern topic.Topic, handler Handler, filter FilterFunc, opts ...SubscriptionOption) (Subscription, error) {
	opts = append(opts, WithFilter(filter))
	return s.Subscribe(pattern, handler, opts...)
}

// SubscribePayload creates a subscription that extracts and handles the
// payload directly. Messages whose payload is not of type T are skipped.
func SubscribePayload[T any](s *Subscriber, pattern topic.Topic, handler func(ctx context.Context, payload T) error, opts ...SubscriptionOption) (Subscription, error) {
	return s.Subscribe(pattern, PayloadHandler(handler), opts...)
}

// Unsubscribe removes a specific subscription.
func (s *Subscriber) Unsubscribe(sub Subscription) bool {
	if sub == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, tracked := range s.subscriptions {
		if tracked.ID() == sub.ID() {
			s.subscriptions = append(s.subscriptions[:i], s.subscriptions[i+1:]...)
			break
		}
	}

	return s.bus.Unsubscribe(sub.ID())
}

// UnsubscribeAll removes all subscriptions managed by this subscriber.
func (s *Subscriber) UnsubscribeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		s.bus.Unsubscribe(sub.ID())
	}
	s.subscriptions = s.subscriptions[:0]
}

// Close cancels all subscriptions and prevents new ones.
// This should be called when the owning component is being shut down.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	for _, sub := range s.subscriptions {
		s.bus.Unsubscribe(sub.ID())
	}
	s.subscriptions = nil

	return nil
}

// Count returns the number of live tracked subscriptions. Subscriptions
// cancelled outside this Subscriber, such as consumed one-time
// subscriptions, are pruned from tracking.
func (s *Subscriber) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.subscriptions[:0]
	for _, sub := range s.subscriptions {
		if sub.State() != SubscriptionStateCancelled {
			live = append(live, sub)
		}
	}
	s.subscriptions = live

	return len(live)
}

// IsClosed returns true if the subscriber has been closed.
func (s *Subscriber) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Bus returns the underlying bus.
func (s *Subscriber) Bus() Bus {
	return s.bus
}
