package types

import (
	"fmt"
	"time"
)

// Config is the top-level configuration document. It carries the notifier
// settings, the per-watcher configuration sections, and process-level
// settings for logging and shutdown.
type Config struct {
	// Notifier is forwarded verbatim to the notifier constructor.
	Notifier NotifierConfig `yaml:"notifier" json:"notifier"`

	// Watchers maps a watcher unit name to that unit's own configuration.
	// Absence of a section is never an error; the unit receives an empty
	// mapping instead.
	Watchers map[string]WatcherConfig `yaml:"watchers" json:"watchers"`

	// Logging controls the file sink and log level.
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Shutdown controls the graceful shutdown behavior.
	Shutdown ShutdownConfig `yaml:"shutdown" json:"shutdown"`
}

// NotifierConfig configures the outbound notification transport.
type NotifierConfig struct {
	// Type selects the transport: "webhook" or "log". Empty defaults to "log".
	Type string `yaml:"type" json:"type"`

	// URL is the webhook endpoint. Required for the webhook type.
	URL string `yaml:"url" json:"url"`

	// Timeout is the per-delivery timeout as a duration string (e.g. "10s").
	Timeout string `yaml:"timeout" json:"timeout"`

	// Headers are added to every webhook request.
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// LoggingConfig configures the rotated file sink and optional level override.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" json:"level"`

	// File is the log file path. The directory is created if missing.
	File string `yaml:"file" json:"file"`

	// MaxSizeMB is the rotation threshold in megabytes.
	MaxSizeMB int `yaml:"maxSizeMB" json:"maxSizeMB"`

	// MaxAgeDays is the retention period for rotated files.
	MaxAgeDays int `yaml:"maxAgeDays" json:"maxAgeDays"`

	// MaxBackups limits how many rotated files are kept. 0 keeps all
	// within the retention period.
	MaxBackups int `yaml:"maxBackups" json:"maxBackups"`
}

// ShutdownConfig controls the supervisor's shutdown wind-down.
type ShutdownConfig struct {
	// GracePeriod bounds how long the supervisor waits for watchers to
	// honor cancellation before abandoning them (duration string).
	GracePeriod string `yaml:"gracePeriod" json:"gracePeriod"`
}

// Default values applied by ApplyDefaults.
const (
	DefaultLogLevel        = "info"
	DefaultLogFile         = "logs/aquarium.log"
	DefaultLogMaxSizeMB    = 10
	DefaultLogMaxAgeDays   = 7
	DefaultNotifierTimeout = "10s"
	DefaultGracePeriod     = "30s"
)

// ApplyDefaults fills in zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Notifier.Timeout == "" {
		c.Notifier.Timeout = DefaultNotifierTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.File == "" {
		c.Logging.File = DefaultLogFile
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}
	if c.Shutdown.GracePeriod == "" {
		c.Shutdown.GracePeriod = DefaultGracePeriod
	}
}

// Validate checks the configuration for errors that should abort startup.
func (c *Config) Validate() error {
	if c.Notifier.Timeout != "" {
		if _, err := time.ParseDuration(c.Notifier.Timeout); err != nil {
			return fmt.Errorf("invalid notifier timeout %q: %w", c.Notifier.Timeout, err)
		}
	}
	if c.Shutdown.GracePeriod != "" {
		if _, err := time.ParseDuration(c.Shutdown.GracePeriod); err != nil {
			return fmt.Errorf("invalid shutdown grace period %q: %w", c.Shutdown.GracePeriod, err)
		}
	}
	if c.Logging.MaxSizeMB < 0 {
		return fmt.Errorf("logging maxSizeMB must not be negative, got %d", c.Logging.MaxSizeMB)
	}
	return nil
}

// GracePeriod returns the parsed shutdown grace period.
// Validate guarantees the value parses; a zero config falls back to the default.
func (c *Config) GracePeriod() time.Duration {
	d, err := time.ParseDuration(c.Shutdown.GracePeriod)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultGracePeriod)
	}
	return d
}

// WatcherConfigFor returns the configuration section for the named watcher
// unit. A missing section yields an empty, non-nil mapping so that absence
// of configuration is never fatal to a watcher.
func (c *Config) WatcherConfigFor(name string) WatcherConfig {
	if c == nil || c.Watchers == nil {
		return WatcherConfig{}
	}
	if wc, ok := c.Watchers[name]; ok && wc != nil {
		return wc
	}
	return WatcherConfig{}
}

// WatcherConfig is an opaque key-value mapping passed verbatim to a watcher
// unit. The typed accessors below follow the convention that a missing or
// mistyped key falls back to the caller's default; watchers that need strict
// validation parse the raw map themselves.
type WatcherConfig map[string]interface{}

// Enabled reports whether the watcher is enabled. Watchers are enabled by
// default; only an explicit `enabled: false` opts a unit out of the run.
func (wc WatcherConfig) Enabled() bool {
	return wc.GetBool("enabled", true)
}

// GetString returns the string value for key, or def when absent or mistyped.
func (wc WatcherConfig) GetString(key, def string) string {
	if v, ok := wc[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// GetBool returns the boolean value for key, or def when absent or mistyped.
func (wc WatcherConfig) GetBool(key string, def bool) bool {
	if v, ok := wc[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// GetInt returns the integer value for key, or def when absent or mistyped.
// YAML numbers decode as int and JSON numbers as float64; both are accepted.
func (wc WatcherConfig) GetInt(key string, def int) int {
	if v, ok := wc[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

// GetFloat returns the float value for key, or def when absent or mistyped.
func (wc WatcherConfig) GetFloat(key string, def float64) float64 {
	if v, ok := wc[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	return def
}

// GetDuration returns the duration value for key parsed from a string
// (e.g. "30s"), or def when absent, mistyped, or unparseable.
func (wc WatcherConfig) GetDuration(key string, def time.Duration) time.Duration {
	if v, ok := wc[key]; ok {
		if s, ok := v.(string); ok {
			if d, err := time.ParseDuration(s); err == nil {
				return d
			}
		}
	}
	return def
}

// GetStringSlice returns the string slice value for key, or def when absent
// or mistyped. YAML sequences decode as []interface{}; non-string elements
// cause the whole value to be rejected in favor of def.
func (wc WatcherConfig) GetStringSlice(key string, def []string) []string {
	v, ok := wc[key]
	if !ok {
		return def
	}
	switch vals := v.(type) {
	case []string:
		out := make([]string, len(vals))
		copy(out, vals)
		return out
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			s, ok := item.(string)
			if !ok {
				return def
			}
			out = append(out, s)
		}
		return out
	}
	return def
}
