package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/dshills/topicbus"
)

// Config holds bus settings loaded from a file.
type Config struct {
	// QueueSize is the async delivery queue capacity.
	QueueSize int `toml:"queue_size" yaml:"queue_size"`

	// Workers is the number of async worker goroutines.
	Workers int `toml:"workers" yaml:"workers"`

	// Timeout is the per-handler timeout for async delivery.
	// Accepts Go duration strings such as "250ms" or "5s".
	Timeout Duration `toml:"timeout" yaml:"timeout"`

	// Logging configures the bus logger.
	Logging Logging `toml:"logging" yaml:"logging"`
}

// Logging holds logger settings.
type Logging struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `toml:"level" yaml:"level"`
}

// Default returns the default configuration.
// Values match the bus defaults, so a missing file changes nothing.
func Default() Config {
	return Config{
		QueueSize: 10000,
		Workers:   10,
		Timeout:   Duration(5 * time.Second),
		Logging: Logging{
			Level: "info",
		},
	}
}

// Load reads configuration from the given path. The format is chosen by
// extension: .toml, .yaml, or .yml. A missing file is not an error; the
// defaults are returned. Keys absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return cfg, &ParseError{Path: path, Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.QueueSize <= 0 {
		return &ValidationError{Field: "queue_size", Message: "must be positive"}
	}
	if c.Workers <= 0 {
		return &ValidationError{Field: "workers", Message: "must be positive"}
	}
	if c.Timeout < 0 {
		return &ValidationError{Field: "timeout", Message: "must not be negative"}
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return &ValidationError{Field: "logging.level", Message: err.Error()}
	}

	return nil
}

// Options converts the configuration into bus options.
func (c Config) Options() []topicbus.BusOption {
	return []topicbus.BusOption{
		topicbus.WithQueueSize(c.QueueSize),
		topicbus.WithWorkers(c.Workers),
		topicbus.WithAsyncTimeout(c.Timeout.Std()),
	}
}

// NewLogger builds a console logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return nil, &ValidationError{Field: "logging.level", Message: err.Error()}
	}

	atomicLevel := zap.NewAtomicLevel()
	atomicLevel.SetLevel(level)

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:   "msg",
		LevelKey:     "level",
		TimeKey:      "time",
		CallerKey:    "caller",
		EncodeLevel:  zapcore.CapitalLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		atomicLevel,
	)

	return zap.New(core, zap.AddCaller()), nil
}

// Duration wraps time.Duration so config files can use strings like "5s".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalText parses a Go duration string. TOML decoding uses this.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalYAML parses a Go duration string from a YAML scalar.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalText renders the duration in Go's duration syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
