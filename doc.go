// Package topicbus provides an in-process publish/subscribe message bus
// with hierarchical topics and wildcard subscriptions.
//
// The bus routes messages from publishers to subscriptions without either
// side knowing about the other. Components communicate through topics
// instead of direct dependencies, which keeps modules decoupled and makes
// wiring testable.
//
// # Architecture
//
// The bus consists of several interconnected components:
//
//	                  ┌──────────────────────────────────────────┐
//	                  │                   Bus                     │
//	                  │  - Subscription registry                  │
//	                  │  - Topic matching (trie-based)            │
//	                  │  - Sync/Async dispatch                    │
//	                  └──────────────────────────────────────────┘
//	                                    │
//	        ┌───────────────────────────┼───────────────────────────┐
//	        ▼                           ▼                           ▼
//	┌─────────────────┐       ┌─────────────────┐       ┌─────────────────┐
//	│    Registry     │       │     Filter      │       │   Publisher /   │
//	│  - Subscription │       │  - Topic-based  │       │   Subscriber    │
//	│    management   │       │  - Source-based │       │  - Source stamp │
//	│  - Ordering     │       │  - Payload/JSON │       │  - Cleanup      │
//	└─────────────────┘       └─────────────────┘       └─────────────────┘
//
// # Topics
//
// Messages are published under hierarchical topics with dot notation:
//
//	orders.created             - An order was created
//	orders.us.shipped          - An order shipped from the US region
//	config.changed             - Configuration was modified
//
// # Wildcard Patterns
//
// Subscriptions are made against patterns, which may use wildcards:
//
//	orders.*          - matches orders.created, orders.shipped (one word)
//	orders.#          - matches orders, orders.us.shipped (zero or more words)
//	orders.#.shipped  - matches orders.shipped, orders.us.west.shipped
//	*.changed         - matches config.changed, schema.changed
//	#                 - matches every topic
//
// A '*' matches exactly one word; a '#' matches any number of words,
// including none. Wildcards must stand alone as whole words: "or*" is a
// literal word, not a wildcard.
//
// # Delivery Modes
//
// Each subscription chooses how Publish delivers to it:
//
//   - Sync: the handler runs in the publisher's goroutine and its outcome
//     is reported in the publish Receipt.
//   - Async: the delivery is queued for the worker pool and the publisher
//     does not wait.
//
// Choose synchronous delivery for state changes other handlers depend on
// and for publishers that need per-delivery outcomes. Choose asynchronous
// delivery for metrics, audit trails, and slow consumers.
//
// PublishAsync sidesteps the per-subscription mode and enqueues every
// matching delivery.
//
// # Ordering
//
// For one publish, sync handlers execute in priority order (lower values
// first); ties run in subscription order. This makes delivery
// deterministic: the same subscriptions receive the same message in the
// same order every time.
//
// # Basic Usage
//
//	bus := topicbus.New()
//	defer bus.Close(context.Background())
//
//	// Subscribe with a wildcard pattern
//	sub, err := bus.SubscribeFunc("orders.#", func(ctx context.Context, msg topicbus.Message) error {
//	    fmt.Printf("order event: %s\n", msg.Topic)
//	    return nil
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bus.Unsubscribe(sub.ID())
//
//	// Publish and inspect the receipt
//	receipt, err := bus.Publish(ctx, "orders.us.created", order)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !receipt.Ok() {
//	    log.Printf("delivery failures: %v", receipt.Err())
//	}
//
// # Filtering
//
// Filters narrow a subscription beyond its pattern:
//
//	bus.Subscribe("orders.#", handler,
//	    topicbus.WithFilter(topicbus.FilterBySource("checkout")),
//	)
//
//	// Composite filters
//	f := topicbus.FilterAnd(
//	    topicbus.FilterBySource("checkout"),
//	    topicbus.FilterPayload(func(o Order) bool { return o.Total > 100 }),
//	)
//
// # Thread Safety
//
// The Bus and all public types are safe for concurrent use. Subscriptions
// can be added and removed while messages are being published, including
// from inside handlers. Individual handlers must manage their own thread
// safety.
//
// # Subpackages
//
//   - topic: Topic types and trie-based pattern matching
//   - dispatch: Synchronous and asynchronous dispatch implementations
//   - config: File-based configuration with hot reload
//   - metrics: Prometheus instrumentation via the Observer interface
package topicbus
