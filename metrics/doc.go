// Package metrics exposes bus activity as Prometheus metrics.
//
// Observer implements the topicbus.Observer interface and records four
// instruments:
//
//	topicbus_messages_published_total{topic}   - publishes, by topic
//	topicbus_deliveries_total{outcome}         - delivery attempts, by ok/error/panic
//	topicbus_messages_dropped_total            - async deliveries dropped
//	topicbus_delivery_duration_seconds         - handler execution time
//
// Wire it into a bus at construction:
//
//	registry := prometheus.NewRegistry()
//	bus := topicbus.New(
//	    topicbus.WithObserver(metrics.NewObserver(registry)),
//	)
package metrics
