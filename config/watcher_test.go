package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/topicbus"
)

type reloadEvent struct {
	cfg Config
	err error
}

func TestNewWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.toml")

	w, err := NewWatcher(path)
	require.NoError(t, err)

	assert.Equal(t, path, w.Path())
	require.NoError(t, w.Close())
}

func TestWatcher_Close_Idempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "bus.toml"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatcher_ReloadOnWrite(t *testing.T) {
	path := writeConfig(t, "bus.toml", `workers = 2`)

	reloads := make(chan reloadEvent, 4)
	w, err := NewWatcher(path,
		WithDebounce(20*time.Millisecond),
		WithOnReload(func(cfg Config, err error) {
			reloads <- reloadEvent{cfg: cfg, err: err}
		}),
	)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`workers = 7`), 0o644))

	select {
	case ev := <-reloads:
		require.NoError(t, ev.err)
		assert.Equal(t, 7, ev.cfg.Workers)
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback was not called")
	}
}

func TestWatcher_ReloadOnCreate(t *testing.T) {
	// The watched file does not exist yet
	path := filepath.Join(t.TempDir(), "bus.toml")

	reloads := make(chan reloadEvent, 4)
	w, err := NewWatcher(path,
		WithDebounce(20*time.Millisecond),
		WithOnReload(func(cfg Config, err error) {
			reloads <- reloadEvent{cfg: cfg, err: err}
		}),
	)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`workers = 3`), 0o644))

	select {
	case ev := <-reloads:
		require.NoError(t, ev.err)
		assert.Equal(t, 3, ev.cfg.Workers)
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback was not called for created file")
	}
}

func TestWatcher_ReloadError(t *testing.T) {
	path := writeConfig(t, "bus.toml", `workers = 2`)

	reloads := make(chan reloadEvent, 4)
	w, err := NewWatcher(path,
		WithDebounce(20*time.Millisecond),
		WithOnReload(func(cfg Config, err error) {
			reloads <- reloadEvent{cfg: cfg, err: err}
		}),
	)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`workers = [`), 0o644))

	select {
	case ev := <-reloads:
		require.Error(t, ev.err)
		var pe *ParseError
		require.ErrorAs(t, ev.err, &pe)
		// The callback still receives usable defaults
		assert.Equal(t, Default().QueueSize, ev.cfg.QueueSize)
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback was not called for invalid file")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bus.toml")
	require.NoError(t, os.WriteFile(path, []byte(`workers = 2`), 0o644))

	var reloadCount atomic.Int32
	w, err := NewWatcher(path,
		WithDebounce(10*time.Millisecond),
		WithOnReload(func(cfg Config, err error) {
			reloadCount.Add(1)
		}),
	)
	require.NoError(t, err)
	defer w.Close()

	// A sibling file in the watched directory must not trigger a reload
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), reloadCount.Load())
}

func TestWatcher_DebouncedWrites(t *testing.T) {
	path := writeConfig(t, "bus.toml", `workers = 1`)

	var lastWorkers atomic.Int32
	w, err := NewWatcher(path,
		WithDebounce(50*time.Millisecond),
		WithOnReload(func(cfg Config, err error) {
			if err == nil {
				lastWorkers.Store(int32(cfg.Workers))
			}
		}),
	)
	require.NoError(t, err)
	defer w.Close()

	// A burst of writes settles on the final contents
	for i := 2; i <= 4; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("workers = %d", i)), 0o644))
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if lastWorkers.Load() == 4 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, int32(4), lastWorkers.Load())
}

func TestWatcher_PublishesOnBus(t *testing.T) {
	bus := topicbus.New()
	defer bus.Close(context.Background())

	received := make(chan topicbus.Message, 1)
	_, err := bus.SubscribeFunc(TopicReloaded, func(ctx context.Context, msg topicbus.Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	path := writeConfig(t, "bus.toml", `workers = 2`)

	w, err := NewWatcher(path,
		WithBus(bus),
		WithDebounce(20*time.Millisecond),
	)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`workers = 9`), 0o644))

	select {
	case msg := <-received:
		cfg, ok := msg.Payload.(Config)
		require.True(t, ok, "payload should be a Config")
		assert.Equal(t, 9, cfg.Workers)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload message was published")
	}
}

func TestWatcher_PublishesErrorOnBus(t *testing.T) {
	bus := topicbus.New()
	defer bus.Close(context.Background())

	received := make(chan topicbus.Message, 1)
	_, err := bus.SubscribeFunc(TopicError, func(ctx context.Context, msg topicbus.Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	path := writeConfig(t, "bus.toml", `workers = 2`)

	w, err := NewWatcher(path,
		WithBus(bus),
		WithDebounce(20*time.Millisecond),
	)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte(`workers = [`), 0o644))

	select {
	case msg := <-received:
		loadErr, ok := msg.Payload.(error)
		require.True(t, ok, "payload should be an error")
		var pe *ParseError
		assert.ErrorAs(t, loadErr, &pe)
	case <-time.After(2 * time.Second):
		t.Fatal("no error message was published")
	}
}
