// Package config loads bus settings from TOML or YAML files.
//
// The format is chosen by file extension (.toml, .yaml, .yml). A missing
// file yields the defaults, and keys absent from the file keep their
// default values, so deployments only write the settings they change.
//
//	cfg, err := config.Load("topicbus.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger, err := cfg.NewLogger()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	bus := topicbus.New(append(cfg.Options(), topicbus.WithLogger(logger))...)
//
// # Live Reload
//
// Watcher monitors the file with fsnotify and reloads it when written.
// Reload results can be delivered through a callback, published on a bus
// (under config.reloaded / config.error), or both:
//
//	w, err := config.NewWatcher("topicbus.toml",
//	    config.WithBus(bus),
//	    config.WithOnReload(func(cfg config.Config, err error) {
//	        if err == nil {
//	            level.SetLevel(parse(cfg.Logging.Level))
//	        }
//	    }),
//	)
//	defer w.Close()
//
// Note that a running bus does not resize its queue or worker pool; reload
// consumers apply what can change at runtime, such as log levels.
package config
