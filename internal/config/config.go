package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "COURIER_"

// Validation errors.
var (
	ErrInvalidCapacity   = errors.New("queue capacity must be positive")
	ErrInvalidMaxPayload = errors.New("max payload must be positive")
)

// Config is Courier's runtime configuration.
type Config struct {
	Mailbox MailboxConfig `toml:"mailbox"`
	Plugins PluginConfig  `toml:"plugins"`
	Logging LoggingConfig `toml:"logging"`
}

// MailboxConfig tunes the routing kernel.
type MailboxConfig struct {
	// QueueCapacity is the per-endpoint queue depth.
	QueueCapacity int `toml:"queue_capacity"`

	// MaxPayload caps envelope payload sizes in bytes.
	MaxPayload int `toml:"max_payload"`
}

// PluginConfig controls plugin discovery and loading.
type PluginConfig struct {
	// Paths lists plugin files to load at startup.
	Paths []string `toml:"paths"`

	// Dirs lists directories scanned for plugin manifests.
	Dirs []string `toml:"dirs"`

	// Watch reloads plugins when their directories change.
	Watch bool `toml:"watch"`

	// Strict makes any load failure fatal at startup.
	Strict bool `toml:"strict"`
}

// LoggingConfig controls log output and envelope tracing.
type LoggingConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`

	// Trace logs every accepted envelope at debug level.
	Trace bool `toml:"trace"`

	// TraceFilter is a glob matched against opcode names.
	TraceFilter string `toml:"trace_filter"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Mailbox: MailboxConfig{
			QueueCapacity: 256,
			MaxPayload:    1 << 20,
		},
		Logging: LoggingConfig{
			Level:       "INFO",
			TraceFilter: "*",
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file,
// and environment overrides. An empty path skips the file layer; a
// missing file at an explicit path is also skipped.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to env overrides.
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays COURIER_* environment variables onto the config.
// Empty values count as set.
func (c *Config) applyEnv() {
	if v, ok := lookup("QUEUE_CAPACITY"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Mailbox.QueueCapacity = n
		}
	}
	if v, ok := lookup("MAX_PAYLOAD"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Mailbox.MaxPayload = n
		}
	}
	if v, ok := lookup("PLUGIN_DIRS"); ok {
		c.Plugins.Dirs = splitList(v)
	}
	if v, ok := lookup("PLUGIN_WATCH"); ok {
		c.Plugins.Watch = parseBool(v)
	}
	if v, ok := lookup("PLUGIN_STRICT"); ok {
		c.Plugins.Strict = parseBool(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookup("LOG_JSON"); ok {
		c.Logging.JSON = parseBool(v)
	}
	if v, ok := lookup("TRACE"); ok {
		c.Logging.Trace = parseBool(v)
	}
	if v, ok := lookup("TRACE_FILTER"); ok {
		c.Logging.TraceFilter = v
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Mailbox.QueueCapacity <= 0 {
		return ErrInvalidCapacity
	}
	if c.Mailbox.MaxPayload <= 0 {
		return ErrInvalidMaxPayload
	}
	return nil
}

func lookup(name string) (string, bool) {
	return os.LookupEnv(EnvPrefix + name)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, string(os.PathListSeparator)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
