package topicbus

import (
	"time"

	"go.uber.org/zap"
)

// busConfig contains configuration for the bus.
type busConfig struct {
	// queueSize is the async delivery queue capacity.
	queueSize int

	// workers is the number of async worker goroutines.
	workers int

	// defaultTimeout is the default timeout for async handler execution.
	defaultTimeout time.Duration

	// logger receives bus lifecycle and delivery failure logs.
	logger *zap.Logger

	// observer receives publish and delivery observations.
	observer Observer

	// panicHandler is called when a handler panics.
	panicHandler PanicHandler
}

// defaultBusConfig returns the default bus configuration.
func defaultBusConfig() busConfig {
	return busConfig{
		queueSize:      10000,
		workers:        10,
		defaultTimeout: 5 * time.Second,
		logger:         zap.NewNop(),
		observer:       nopObserver{},
		panicHandler:   nil,
	}
}

// BusOption is a function that configures the bus.
type BusOption func(*busConfig)

// WithQueueSize sets the async delivery queue capacity.
func WithQueueSize(size int) BusOption {
	return func(c *busConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithWorkers sets the number of async worker goroutines.
func WithWorkers(n int) BusOption {
	return func(c *busConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithAsyncTimeout sets the default timeout for async handler execution.
// A zero or negative timeout disables the per-handler deadline.
func WithAsyncTimeout(d time.Duration) BusOption {
	return func(c *busConfig) {
		c.defaultTimeout = d
	}
}

// WithLogger sets the logger used by the bus.
func WithLogger(logger *zap.Logger) BusOption {
	return func(c *busConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets an observer for publish and delivery instrumentation.
func WithObserver(o Observer) BusOption {
	return func(c *busConfig) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithPanicHandler sets a hook invoked when a handler panics.
// The bus always recovers handler panics; the hook is for reporting.
func WithPanicHandler(h PanicHandler) BusOption {
	return func(c *busConfig) {
		c.panicHandler = h
	}
}
