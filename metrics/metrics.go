package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dshills/topicbus"
	"github.com/dshills/topicbus/topic"
)

// Observer records bus activity as Prometheus metrics.
// It implements topicbus.Observer; attach it with topicbus.WithObserver.
type Observer struct {
	published  *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	dropped    prometheus.Counter
	duration   prometheus.Histogram
}

// NewObserver creates an observer with its metrics registered on the
// given registerer. A nil registerer uses the Prometheus default.
//
// The published counter is labeled by topic verbatim. Buses with an
// unbounded topic space should keep that in mind when sizing scrapes.
func NewObserver(registerer prometheus.Registerer) *Observer {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Observer{
		published: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "topicbus_messages_published_total",
				Help: "Total number of messages published, by topic.",
			},
			[]string{"topic"},
		),
		deliveries: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "topicbus_deliveries_total",
				Help: "Total number of delivery attempts, by outcome (ok, error, panic).",
			},
			[]string{"outcome"},
		),
		dropped: promauto.With(registerer).NewCounter(
			prometheus.CounterOpts{
				Name: "topicbus_messages_dropped_total",
				Help: "Total number of async deliveries dropped because the queue was full.",
			},
		),
		duration: promauto.With(registerer).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "topicbus_delivery_duration_seconds",
				Help:    "Handler execution time in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// ObservePublish implements topicbus.Observer.
func (o *Observer) ObservePublish(t topic.Topic) {
	o.published.WithLabelValues(t.String()).Inc()
}

// ObserveDelivery implements topicbus.Observer.
func (o *Observer) ObserveDelivery(t topic.Topic, outcome topicbus.Outcome, d time.Duration) {
	o.deliveries.WithLabelValues(string(outcome)).Inc()
	o.duration.Observe(d.Seconds())
}

// ObserveDrop implements topicbus.Observer.
func (o *Observer) ObserveDrop(t topic.Topic) {
	o.dropped.Inc()
}

// Ensure Observer implements topicbus.Observer.
var _ topicbus.Observer = (*Observer)(nil)
