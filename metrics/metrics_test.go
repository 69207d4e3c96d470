package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/topicbus"
)

func TestNewObserver_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(reg)
	require.NotNil(t, obs)

	// Counters with labels only appear in a gather after first use.
	obs.ObservePublish("orders.created")
	obs.ObserveDelivery("orders.created", topicbus.OutcomeOK, 5*time.Millisecond)
	obs.ObserveDrop("orders.created")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}

	for _, want := range []string{
		"topicbus_messages_published_total",
		"topicbus_deliveries_total",
		"topicbus_messages_dropped_total",
		"topicbus_delivery_duration_seconds",
	} {
		assert.True(t, names[want], "metric %s not registered", want)
	}
}

func TestObserver_ObservePublish(t *testing.T) {
	obs := NewObserver(prometheus.NewRegistry())

	obs.ObservePublish("orders.created")
	obs.ObservePublish("orders.created")
	obs.ObservePublish("billing.charged")

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.published.WithLabelValues("orders.created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.published.WithLabelValues("billing.charged")))
}

func TestObserver_ObserveDelivery(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewObserver(reg)

	obs.ObserveDelivery("orders.created", topicbus.OutcomeOK, 10*time.Millisecond)
	obs.ObserveDelivery("orders.created", topicbus.OutcomeOK, 20*time.Millisecond)
	obs.ObserveDelivery("orders.created", topicbus.OutcomeError, 30*time.Millisecond)
	obs.ObserveDelivery("orders.created", topicbus.OutcomePanic, 40*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(obs.deliveries.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.deliveries.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.deliveries.WithLabelValues("panic")))

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "topicbus_delivery_duration_seconds" {
			continue
		}
		found = true
		require.Len(t, mf.GetMetric(), 1)
		h := mf.GetMetric()[0].GetHistogram()
		assert.Equal(t, uint64(4), h.GetSampleCount())
		assert.InDelta(t, 0.1, h.GetSampleSum(), 1e-9) // 10+20+30+40 ms
	}
	require.True(t, found, "duration histogram not gathered")
}

func TestObserver_ObserveDrop(t *testing.T) {
	obs := NewObserver(prometheus.NewRegistry())

	obs.ObserveDrop("orders.created")
	obs.ObserveDrop("billing.charged")
	obs.ObserveDrop("orders.created")

	// Drops are not labeled by topic.
	assert.Equal(t, 3.0, testutil.ToFloat64(obs.dropped))
}

func TestObserver_OnBus(t *testing.T) {
	obs := NewObserver(prometheus.NewRegistry())

	bus := topicbus.New(topicbus.WithObserver(obs))
	defer bus.Close(context.Background())

	_, err := bus.SubscribeFunc("orders.created", func(ctx context.Context, msg topicbus.Message) error {
		return nil
	})
	require.NoError(t, err)

	_, err = bus.SubscribeFunc("orders.#", func(ctx context.Context, msg topicbus.Message) error {
		return errors.New("downstream unavailable")
	})
	require.NoError(t, err)

	_, err = bus.Publish(context.Background(), "orders.created", "order-1")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(obs.published.WithLabelValues("orders.created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.deliveries.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.deliveries.WithLabelValues("error")))
}
