package topicbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/topicbus/dispatch"
	"github.com/dshills/topicbus/topic"
)

// Bus is the central message bus interface.
type Bus interface {
	// Publishing
	Publish(ctx context.Context, t topic.Topic, payload any) (Receipt, error)
	PublishMsg(ctx context.Context, msg Message) (Receipt, error)
	PublishAsync(ctx context.Context, t topic.Topic, payload any) error
	PublishMsgAsync(ctx context.Context, msg Message) error

	// Subscription
	Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error)
	SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)
	Unsubscribe(id string) bool

	// Status
	Stats() Stats

	// Lifecycle
	Close(ctx context.Context) error
}

// Receipt summarizes the outcome of a single publish.
type Receipt struct {
	// Matched is the number of active subscriptions whose patterns matched
	// the topic, whether or not the message was delivered to them.
	Matched int

	// Delivered is the number of successful synchronous deliveries.
	Delivered int

	// Enqueued is the number of deliveries handed to the async queue.
	// Their outcomes are reported through Stats and the Observer, not here.
	Enqueued int

	// Errors contains one entry per failed delivery: handler errors,
	// handler panics, and enqueue failures. Entries are *HandlerError or
	// *PanicError.
	Errors []error
}

// Ok returns true if no delivery failed.
func (r Receipt) Ok() bool {
	return len(r.Errors) == 0
}

// Err returns all delivery failures joined into a single error,
// or nil if none failed.
func (r Receipt) Err() error {
	return errors.Join(r.Errors...)
}

// bus is the default Bus implementation.
type bus struct {
	// Subscription management
	registry *registry

	// Dispatchers
	syncDispatcher  *dispatch.SyncDispatcher
	asyncDispatcher *dispatch.AsyncDispatcher

	// State
	closed atomic.Bool

	// Configuration
	config   busConfig
	logger   *zap.Logger
	observer Observer

	// Stats
	messagesPublished atomic.Uint64
	messagesDelivered atomic.Uint64
	messagesDropped   atomic.Uint64
	handlersExecuted  atomic.Uint64
	handlerErrors     atomic.Uint64
	handlerPanics     atomic.Uint64
	totalDeliveryNs   atomic.Int64
}

// New creates a message bus with the given options.
// The returned bus is ready for use; its async workers are already running.
// Call Close to shut it down.
func New(opts ...BusOption) Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	b := &bus{
		registry: newRegistry(),
		config:   config,
		logger:   config.logger,
		observer: config.observer,
	}

	b.syncDispatcher = dispatch.NewSyncDispatcher(
		dispatch.WithPanicHandler(b.syncPanicHook),
	)

	b.asyncDispatcher = dispatch.NewAsyncDispatcher(
		dispatch.WithQueueSize(config.queueSize),
		dispatch.WithWorkerCount(config.workers),
		dispatch.WithAsyncTimeout(config.defaultTimeout),
		dispatch.WithAsyncPanicHandler(b.asyncPanicHook),
	)

	// A freshly created dispatcher cannot already be running.
	_ = b.asyncDispatcher.Start()

	return b
}

var (
	defaultBus     Bus
	defaultBusOnce sync.Once
)

// Default returns a process-wide shared bus with default options.
// It is created on first use and is never closed.
func Default() Bus {
	defaultBusOnce.Do(func() {
		defaultBus = New()
	})
	return defaultBus
}

// Publish sends a message to all subscriptions matching the topic.
// Sync subscriptions execute in the caller's goroutine before Publish
// returns; async subscriptions are enqueued for the worker pool.
func (b *bus) Publish(ctx context.Context, t topic.Topic, payload any) (Receipt, error) {
	return b.PublishMsg(ctx, NewMessage(t, payload))
}

// PublishMsg publishes a pre-constructed message.
// Missing metadata (ID, timestamp) is filled in.
func (b *bus) PublishMsg(ctx context.Context, msg Message) (Receipt, error) {
	if b.closed.Load() {
		return Receipt{}, ErrBusClosed
	}
	if !msg.Topic.IsValid() {
		return Receipt{}, ErrInvalidTopic
	}

	b.prepare(&msg)

	b.messagesPublished.Add(1)
	b.observer.ObservePublish(msg.Topic)

	subs := b.registry.MatchActive(msg.Topic)

	receipt := Receipt{Matched: len(subs)}
	for _, sub := range subs {
		if !sub.ShouldDeliver(msg) {
			continue
		}

		if sub.Config().DeliveryMode == DeliveryAsync {
			b.enqueue(ctx, msg, sub, &receipt)
		} else {
			b.deliverSync(ctx, msg, sub, &receipt)
		}
	}

	return receipt, nil
}

// PublishAsync enqueues a message for delivery to all matching
// subscriptions without waiting for any handler.
func (b *bus) PublishAsync(ctx context.Context, t topic.Topic, payload any) error {
	return b.PublishMsgAsync(ctx, NewMessage(t, payload))
}

// PublishMsgAsync enqueues a pre-constructed message for delivery to all
// matching subscriptions, regardless of their delivery mode. Deliveries
// dropped because the queue is full are counted in Stats and reported to
// the Observer; they do not fail the publish.
func (b *bus) PublishMsgAsync(ctx context.Context, msg Message) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if !msg.Topic.IsValid() {
		return ErrInvalidTopic
	}

	b.prepare(&msg)

	b.messagesPublished.Add(1)
	b.observer.ObservePublish(msg.Topic)

	subs := b.registry.MatchActive(msg.Topic)

	var receipt Receipt
	for _, sub := range subs {
		if !sub.ShouldDeliver(msg) {
			continue
		}
		b.enqueue(ctx, msg, sub, &receipt)
	}

	return nil
}

// prepare fills in missing message metadata.
func (b *bus) prepare(msg *Message) {
	if msg.Meta.ID == "" {
		msg.Meta.ID = uuid.NewString()
	}
	if msg.Meta.Timestamp.IsZero() {
		msg.Meta.Timestamp = timeNow()
	}
}

// deliverSync executes a handler in the caller's goroutine and records the
// outcome on the receipt.
func (b *bus) deliverSync(ctx context.Context, msg Message, sub *subscription, receipt *Receipt) {
	result := b.syncDispatcher.Dispatch(ctx, msg, handlerAdapter{sub})

	b.totalDeliveryNs.Add(result.Duration.Nanoseconds())

	if result.Skipped {
		// Context cancelled before the handler ran.
		receipt.Errors = append(receipt.Errors, &HandlerError{
			SubscriptionID: sub.ID(),
			Topic:          msg.Topic,
			Err:            result.Error,
		})
		return
	}

	b.handlersExecuted.Add(1)

	switch {
	case result.Panicked:
		b.handlerPanics.Add(1)
		b.observer.ObserveDelivery(msg.Topic, OutcomePanic, result.Duration)
		b.logger.Error("handler panic",
			zap.String("subscription", sub.ID()),
			zap.String("topic", msg.Topic.String()),
			zap.Any("panic", result.PanicValue),
			zap.ByteString("stack", result.PanicStack),
		)
		receipt.Errors = append(receipt.Errors, &PanicError{
			SubscriptionID: sub.ID(),
			Topic:          msg.Topic,
			Value:          result.PanicValue,
			Stack:          string(result.PanicStack),
		})
	case result.Error != nil:
		b.handlerErrors.Add(1)
		b.observer.ObserveDelivery(msg.Topic, OutcomeError, result.Duration)
		b.logger.Warn("handler error",
			zap.String("subscription", sub.ID()),
			zap.String("topic", msg.Topic.String()),
			zap.Error(result.Error),
		)
		receipt.Errors = append(receipt.Errors, &HandlerError{
			SubscriptionID: sub.ID(),
			Topic:          msg.Topic,
			Err:            result.Error,
		})
	case result.Success:
		b.messagesDelivered.Add(1)
		b.observer.ObserveDelivery(msg.Topic, OutcomeOK, result.Duration)
		receipt.Delivered++

		if sub.Config().Once {
			sub.Cancel()
			b.registry.Remove(sub.ID())
		}
	}
}

// enqueue hands a delivery to the async worker pool and records the
// outcome on the receipt. Once subscriptions are consumed at enqueue time.
func (b *bus) enqueue(ctx context.Context, msg Message, sub *subscription, receipt *Receipt) {
	err := b.asyncDispatcher.Enqueue(ctx, msg, b.asyncHandler(sub))
	if err != nil {
		b.messagesDropped.Add(1)
		b.observer.ObserveDrop(msg.Topic)
		b.logger.Warn("async delivery dropped",
			zap.String("subscription", sub.ID()),
			zap.String("topic", msg.Topic.String()),
			zap.Error(err),
		)
		receipt.Errors = append(receipt.Errors, &HandlerError{
			SubscriptionID: sub.ID(),
			Topic:          msg.Topic,
			Err:            mapDispatchErr(err),
		})
		return
	}

	receipt.Enqueued++

	if sub.Config().Once {
		sub.Cancel()
		b.registry.Remove(sub.ID())
	}
}

// asyncHandler wraps a subscription's handler for async execution,
// adding observer and logging accounting. Panics escape to the worker's
// executor, which routes them through the async panic hook.
func (b *bus) asyncHandler(sub *subscription) dispatch.Handler {
	return dispatch.HandlerFunc(func(ctx context.Context, raw any) error {
		msg, ok := raw.(Message)
		if !ok {
			return nil
		}

		start := time.Now()
		err := sub.handler.Handle(ctx, msg)
		if err != nil {
			b.observer.ObserveDelivery(msg.Topic, OutcomeError, time.Since(start))
			b.logger.Warn("handler error",
				zap.String("subscription", sub.ID()),
				zap.String("topic", msg.Topic.String()),
				zap.Error(err),
			)
			return err
		}

		b.observer.ObserveDelivery(msg.Topic, OutcomeOK, time.Since(start))
		return nil
	})
}

// syncPanicHook adapts the dispatch panic handler signature to the user's
// hook. Logging and observation for sync panics happen in deliverSync,
// which sees the full Result.
func (b *bus) syncPanicHook(raw any, panicValue any, stack []byte) {
	if b.config.panicHandler == nil {
		return
	}
	if msg, ok := raw.(Message); ok {
		b.config.panicHandler(msg, panicValue, stack)
	}
}

// asyncPanicHook handles panics from async workers, where no Result
// reaches the bus. The async dispatcher's own stats count the panic.
func (b *bus) asyncPanicHook(raw any, panicValue any, stack []byte) {
	msg, ok := raw.(Message)
	if !ok {
		return
	}

	b.observer.ObserveDelivery(msg.Topic, OutcomePanic, 0)
	b.logger.Error("handler panic",
		zap.String("topic", msg.Topic.String()),
		zap.Any("panic", panicValue),
		zap.ByteString("stack", stack),
	)

	if b.config.panicHandler != nil {
		b.config.panicHandler(msg, panicValue, stack)
	}
}

// Subscribe creates a subscription for the given topic pattern.
// This method is safe to call concurrently, including from handlers
// during a publish.
func (b *bus) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if b.closed.Load() {
		return nil, ErrBusClosed
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidPattern
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	sub := newSubscription(uuid.NewString(), pattern, handler, opts...)
	b.registry.Add(sub)

	b.logger.Debug("subscription added",
		zap.String("subscription", sub.ID()),
		zap.String("pattern", pattern.String()),
	)

	return sub, nil
}

// SubscribeFunc is a convenience method for subscribing with a function handler.
func (b *bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe cancels and removes a subscription by ID.
// Returns false if no such subscription exists. It is safe to call more
// than once; later calls return false.
func (b *bus) Unsubscribe(id string) bool {
	sub, ok := b.registry.Get(id)
	if !ok {
		return false
	}

	sub.Cancel()
	removed := b.registry.Remove(id)
	if removed {
		b.logger.Debug("subscription removed", zap.String("subscription", id))
	}
	return removed
}

// Stats returns current bus statistics.
func (b *bus) Stats() Stats {
	asyncStats := b.asyncDispatcher.Stats()

	// Sync outcomes are counted on the bus as deliverSync observes each
	// Result; async outcomes are counted by the async dispatcher.
	handlersExecuted := b.handlersExecuted.Load() + asyncStats.Processed

	totalDeliveryNs := b.totalDeliveryNs.Load() + asyncStats.TotalDuration.Nanoseconds()
	var avgNs int64
	if handlersExecuted > 0 {
		avgNs = totalDeliveryNs / int64(handlersExecuted)
	}

	return Stats{
		MessagesPublished:   b.messagesPublished.Load(),
		MessagesDelivered:   b.messagesDelivered.Load() + asyncStats.Succeeded,
		MessagesDropped:     b.messagesDropped.Load(),
		HandlersExecuted:    handlersExecuted,
		HandlerErrors:       b.handlerErrors.Load() + asyncStats.Failed,
		HandlerPanics:       b.handlerPanics.Load() + asyncStats.Panicked,
		AvgDeliveryTimeNs:   avgNs,
		ActiveSubscriptions: b.registry.CountActive(),
		QueueDepth:          asyncStats.QueueDepth,
	}
}

// Close shuts the bus down. It stops accepting publishes and
// subscriptions, drains the async queue until the context is cancelled,
// and cancels all subscriptions. A second call returns ErrBusClosed.
func (b *bus) Close(ctx context.Context) error {
	if !b.closed.CompareAndSwap(false, true) {
		return ErrBusClosed
	}

	err := b.asyncDispatcher.Stop(ctx)

	for _, sub := range b.registry.All() {
		sub.Cancel()
	}
	b.registry.Clear()

	if err != nil {
		b.logger.Warn("bus closed with pending deliveries", zap.Error(err))
		return err
	}

	b.logger.Debug("bus closed")
	return nil
}

// mapDispatchErr translates dispatch package sentinels to bus sentinels.
func mapDispatchErr(err error) error {
	switch {
	case errors.Is(err, dispatch.ErrQueueFull):
		return ErrQueueFull
	case errors.Is(err, dispatch.ErrNotRunning):
		return ErrBusClosed
	default:
		return err
	}
}

// handlerAdapter adapts a subscription's typed handler to the dispatch
// package's type-erased handler.
type handlerAdapter struct {
	sub *subscription
}

// Handle implements dispatch.Handler.
func (a handlerAdapter) Handle(ctx context.Context, raw any) error {
	msg, ok := raw.(Message)
	if !ok {
		return nil
	}
	return a.sub.handler.Handle(ctx, msg)
}
