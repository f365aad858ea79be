package types

import (
	"testing"
	"time"
)

func TestConfig_WatcherConfigFor(t *testing.T) {
	config := &Config{
		Watchers: map[string]WatcherConfig{
			"system-cpu": {"threshold": 85},
			"empty":      nil,
		},
	}

	// Present section
	wc := config.WatcherConfigFor("system-cpu")
	if got := wc.GetInt("threshold", 0); got != 85 {
		t.Errorf("expected threshold 85, got %d", got)
	}

	// Absent section must yield an empty, non-nil mapping
	wc = config.WatcherConfigFor("does-not-exist")
	if wc == nil {
		t.Fatal("absent section should return non-nil config")
	}
	if len(wc) != 0 {
		t.Errorf("absent section should return empty config, got %v", wc)
	}

	// Explicit nil section behaves like an absent one
	wc = config.WatcherConfigFor("empty")
	if wc == nil {
		t.Fatal("nil section should return non-nil config")
	}
}

func TestConfig_WatcherConfigFor_NilMap(t *testing.T) {
	config := &Config{}

	wc := config.WatcherConfigFor("anything")
	if wc == nil {
		t.Fatal("nil watchers map should return non-nil config")
	}
	if len(wc) != 0 {
		t.Errorf("expected empty config, got %v", wc)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	config := &Config{}
	config.ApplyDefaults()

	if config.Logging.Level != DefaultLogLevel {
		t.Errorf("expected default level %q, got %q", DefaultLogLevel, config.Logging.Level)
	}
	if config.Logging.File != DefaultLogFile {
		t.Errorf("expected default file %q, got %q", DefaultLogFile, config.Logging.File)
	}
	if config.Logging.MaxSizeMB != DefaultLogMaxSizeMB {
		t.Errorf("expected default max size %d, got %d", DefaultLogMaxSizeMB, config.Logging.MaxSizeMB)
	}
	if config.Notifier.Timeout != DefaultNotifierTimeout {
		t.Errorf("expected default timeout %q, got %q", DefaultNotifierTimeout, config.Notifier.Timeout)
	}
	if config.Shutdown.GracePeriod != DefaultGracePeriod {
		t.Errorf("expected default grace period %q, got %q", DefaultGracePeriod, config.Shutdown.GracePeriod)
	}

	// Explicit values survive ApplyDefaults
	config = &Config{Logging: LoggingConfig{Level: "debug", MaxSizeMB: 50}}
	config.ApplyDefaults()
	if config.Logging.Level != "debug" {
		t.Errorf("explicit level overwritten: %q", config.Logging.Level)
	}
	if config.Logging.MaxSizeMB != 50 {
		t.Errorf("explicit max size overwritten: %d", config.Logging.MaxSizeMB)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "empty config is valid",
			config: Config{},
		},
		{
			name:   "valid durations",
			config: Config{Notifier: NotifierConfig{Timeout: "5s"}, Shutdown: ShutdownConfig{GracePeriod: "1m"}},
		},
		{
			name:    "invalid notifier timeout",
			config:  Config{Notifier: NotifierConfig{Timeout: "banana"}},
			wantErr: true,
		},
		{
			name:    "invalid grace period",
			config:  Config{Shutdown: ShutdownConfig{GracePeriod: "10 parsecs"}},
			wantErr: true,
		},
		{
			name:    "negative max size",
			config:  Config{Logging: LoggingConfig{MaxSizeMB: -1}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GracePeriod(t *testing.T) {
	config := &Config{Shutdown: ShutdownConfig{GracePeriod: "45s"}}
	if got := config.GracePeriod(); got != 45*time.Second {
		t.Errorf("expected 45s, got %v", got)
	}

	// Unset falls back to the default rather than zero
	config = &Config{}
	if got := config.GracePeriod(); got != 30*time.Second {
		t.Errorf("expected 30s default, got %v", got)
	}
}

func TestWatcherConfig_Enabled(t *testing.T) {
	if !(WatcherConfig{}).Enabled() {
		t.Error("empty config should be enabled by default")
	}
	if (WatcherConfig{"enabled": false}).Enabled() {
		t.Error("enabled: false should disable the watcher")
	}
	if !(WatcherConfig{"enabled": true}).Enabled() {
		t.Error("enabled: true should keep the watcher enabled")
	}
	if !(WatcherConfig{"enabled": "false"}).Enabled() {
		t.Error("mistyped enabled value should fall back to the default")
	}
}

func TestWatcherConfig_Getters(t *testing.T) {
	wc := WatcherConfig{
		"name":     "primary",
		"count":    3,
		"bigCount": int64(9),
		"ratio":    0.5,
		"jsonNum":  float64(7),
		"flag":     true,
		"interval": "90s",
		"badDur":   "soon",
		"paths":    []interface{}{"/", "/var"},
		"typed":    []string{"a", "b"},
		"mixed":    []interface{}{"ok", 5},
	}

	if got := wc.GetString("name", "x"); got != "primary" {
		t.Errorf("GetString = %q", got)
	}
	if got := wc.GetString("missing", "fallback"); got != "fallback" {
		t.Errorf("GetString fallback = %q", got)
	}
	if got := wc.GetInt("count", 0); got != 3 {
		t.Errorf("GetInt = %d", got)
	}
	if got := wc.GetInt("bigCount", 0); got != 9 {
		t.Errorf("GetInt int64 = %d", got)
	}
	if got := wc.GetInt("jsonNum", 0); got != 7 {
		t.Errorf("GetInt float64 = %d", got)
	}
	if got := wc.GetFloat("ratio", 0); got != 0.5 {
		t.Errorf("GetFloat = %v", got)
	}
	if got := wc.GetFloat("count", 0); got != 3.0 {
		t.Errorf("GetFloat from int = %v", got)
	}
	if got := wc.GetBool("flag", false); !got {
		t.Error("GetBool = false")
	}
	if got := wc.GetDuration("interval", time.Second); got != 90*time.Second {
		t.Errorf("GetDuration = %v", got)
	}
	if got := wc.GetDuration("badDur", 5*time.Second); got != 5*time.Second {
		t.Errorf("GetDuration unparseable = %v", got)
	}
	if got := wc.GetDuration("missing", 2*time.Second); got != 2*time.Second {
		t.Errorf("GetDuration fallback = %v", got)
	}

	paths := wc.GetStringSlice("paths", nil)
	if len(paths) != 2 || paths[0] != "/" || paths[1] != "/var" {
		t.Errorf("GetStringSlice = %v", paths)
	}
	typed := wc.GetStringSlice("typed", nil)
	if len(typed) != 2 || typed[1] != "b" {
		t.Errorf("GetStringSlice typed = %v", typed)
	}
	if got := wc.GetStringSlice("mixed", []string{"def"}); len(got) != 1 || got[0] != "def" {
		t.Errorf("GetStringSlice mixed should fall back, got %v", got)
	}
}
