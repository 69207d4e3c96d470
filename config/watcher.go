package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/topicbus"
)

// Topics published by the watcher when a bus is attached.
const (
	// TopicReloaded carries the new Config as payload after a successful reload.
	TopicReloaded = topicbus.Topic("config.reloaded")

	// TopicError carries the reload error as payload.
	TopicError = topicbus.Topic("config.error")
)

// OnReload is called after each reload attempt with the loaded
// configuration and the error, if any. On error, cfg holds the defaults.
type OnReload func(cfg Config, err error)

// Watcher monitors a configuration file and reloads it on change.
type Watcher struct {
	path     string
	onReload OnReload
	bus      topicbus.Bus
	logger   *zap.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher

	mu     sync.Mutex
	closed bool

	// Debounce timer; writes often arrive in bursts during a save.
	timerMu sync.Mutex
	timer   *time.Timer

	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithOnReload sets the reload callback.
func WithOnReload(fn OnReload) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithBus attaches a bus. Successful reloads are published under
// TopicReloaded with the new Config as payload; failures under TopicError
// with the error as payload.
func WithBus(bus topicbus.Bus) WatcherOption {
	return func(w *Watcher) {
		w.bus = bus
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets how long the watcher waits for writes to settle
// before reloading.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// NewWatcher starts watching the configuration file at path.
// The file does not need to exist yet; creating it later triggers a
// reload. Call Close to stop watching.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory rather than the file: editors often replace the
	// file on save, and a watch on the old inode goes stale.
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		logger:   zap.NewNop(),
		debounce: 100 * time.Millisecond,
		watcher:  fsw,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.timerMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timerMu.Unlock()

	w.closedWg.Wait()
	return w.watcher.Close()
}

// isClosed reports whether Close has been called.
func (w *Watcher) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// processLoop handles incoming fsnotify events.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", zap.Error(err))
		}
	}
}

// handleEvent filters directory events down to writes of the watched file.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}

	w.scheduleReload()
}

// scheduleReload arms the debounce timer, replacing any pending reload.
func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// reload loads the file and reports the result.
func (w *Watcher) reload() {
	if w.isClosed() {
		return
	}

	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload failed",
			zap.String("path", w.path),
			zap.Error(err),
		)
		if w.bus != nil {
			_ = w.bus.PublishAsync(context.Background(), TopicError, err)
		}
		if w.onReload != nil {
			w.onReload(cfg, err)
		}
		return
	}

	w.logger.Info("config reloaded", zap.String("path", w.path))
	if w.bus != nil {
		_ = w.bus.PublishAsync(context.Background(), TopicReloaded, cfg)
	}
	if w.onReload != nil {
		w.onReload(cfg, nil)
	}
}
