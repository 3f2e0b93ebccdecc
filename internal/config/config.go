package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Dispatcher modes.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
	ModeNull  = "null"
)

// EnvPrefix prefixes every environment override, e.g. EPICENTER_DISPATCH_MODE.
const EnvPrefix = "EPICENTER_"

// Config is the complete epicenter configuration.
type Config struct {
	Dispatch DispatchConfig `toml:"dispatch" yaml:"dispatch"`
	Log      LogConfig      `toml:"log" yaml:"log"`
	Trace    TraceConfig    `toml:"trace" yaml:"trace"`
	Journal  JournalConfig  `toml:"journal" yaml:"journal"`

	// Scripts are registered in order, before the journal recorder.
	Scripts []ScriptConfig `toml:"scripts" yaml:"scripts"`
}

// DispatchConfig selects and sizes the dispatcher.
type DispatchConfig struct {
	Mode            string   `toml:"mode" yaml:"mode" env:"MODE"`
	Workers         int      `toml:"workers" yaml:"workers" env:"WORKERS"`
	QueueSize       int      `toml:"queue_size" yaml:"queue_size" env:"QUEUE_SIZE"`
	ListenerTimeout Duration `toml:"listener_timeout" yaml:"listener_timeout" env:"LISTENER_TIMEOUT"`
}

// LogConfig configures the root hclog logger.
type LogConfig struct {
	Level string `toml:"level" yaml:"level" env:"LEVEL"`
	JSON  bool   `toml:"json" yaml:"json" env:"JSON"`
}

// TraceConfig configures OpenTelemetry export.
type TraceConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled" env:"ENABLED"`
	Endpoint    string `toml:"endpoint" yaml:"endpoint" env:"ENDPOINT"`
	Insecure    bool   `toml:"insecure" yaml:"insecure" env:"INSECURE"`
	ServiceName string `toml:"service_name" yaml:"service_name" env:"SERVICE_NAME"`
}

// JournalConfig configures the SQLite journal. An empty path disables it.
type JournalConfig struct {
	Path string `toml:"path" yaml:"path" env:"PATH"`
}

// ScriptConfig names a Lua script listener.
type ScriptConfig struct {
	Path     string   `toml:"path" yaml:"path"`
	Function string   `toml:"function" yaml:"function"`
	Timeout  Duration `toml:"timeout" yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dispatch: DispatchConfig{
			Mode:      ModeSync,
			Workers:   10,
			QueueSize: 1024,
		},
		Log: LogConfig{
			Level: "info",
		},
		Trace: TraceConfig{
			ServiceName: "epicenter",
		},
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	switch c.Dispatch.Mode {
	case ModeSync, ModeAsync, ModeNull:
	default:
		add("dispatch.mode", "must be one of sync, async, null", c.Dispatch.Mode)
	}
	if c.Dispatch.Mode == ModeAsync {
		if c.Dispatch.Workers <= 0 {
			add("dispatch.workers", "must be positive", c.Dispatch.Workers)
		}
		if c.Dispatch.QueueSize <= 0 {
			add("dispatch.queue_size", "must be positive", c.Dispatch.QueueSize)
		}
	}
	if c.Dispatch.ListenerTimeout < 0 {
		add("dispatch.listener_timeout", "must not be negative", c.Dispatch.ListenerTimeout)
	}

	if hclog.LevelFromString(c.Log.Level) == hclog.NoLevel {
		add("log.level", "unknown level", c.Log.Level)
	}

	if c.Trace.Enabled && c.Trace.ServiceName == "" {
		add("trace.service_name", "required when tracing is enabled", c.Trace.ServiceName)
	}

	for i, s := range c.Scripts {
		if s.Path == "" {
			add(fmt.Sprintf("scripts[%d].path", i), "required", s.Path)
		}
		if s.Timeout < 0 {
			add(fmt.Sprintf("scripts[%d].timeout", i), "must not be negative", s.Timeout)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Duration is a time.Duration written as a string such as "250ms" in
// config files and environment variables.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String formats the duration like time.Duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}
