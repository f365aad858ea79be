// Package logger provides structured logging for Watcher Aquarium using
// Logrus. Log output always goes to a size-rotated file; console output is
// added on top when verbose mode is enabled. Rotated files are retained for
// a bounded number of days and compressed.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/supporttools/watcher-aquarium/pkg/types"
)

// Global logger instance
var (
	log            *logrus.Logger
	mu             sync.RWMutex
	currentLogFile io.Closer // rotating file sink, tracked for cleanup
)

// init creates a default logger so packages can log before Initialize runs.
func init() {
	log = logrus.New()
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
}

// Initialize sets up the global logger from the logging configuration.
// The file sink is always active; when verbose is true log lines are also
// written to stdout. Initialize is thread-safe and may be called again to
// reconfigure (e.g. once defaults are replaced by the loaded config).
func Initialize(cfg types.LoggingConfig, verbose bool) error {
	mu.Lock()
	defer mu.Unlock()

	// Close the previous file sink if re-initializing
	if currentLogFile != nil {
		if err := currentLogFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close previous log file: %v\n", err)
		}
		currentLogFile = nil
	}

	newLog := logrus.New()

	level := cfg.Level
	if level == "" {
		level = types.DefaultLogLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	newLog.SetLevel(lvl)

	newLog.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	file := cfg.File
	if file == "" {
		file = types.DefaultLogFile
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory %q: %w", dir, err)
		}
	}

	maxSize := cfg.MaxSizeMB
	if maxSize <= 0 {
		maxSize = types.DefaultLogMaxSizeMB
	}
	maxAge := cfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = types.DefaultLogMaxAgeDays
	}

	rotated := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxAge:     maxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}
	currentLogFile = rotated

	var writer io.Writer = rotated
	if verbose {
		writer = io.MultiWriter(os.Stdout, rotated)
	}
	newLog.SetOutput(writer)

	log = newLog
	return nil
}

// Get returns the global logger instance
func Get() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithFields returns a logger entry with structured fields.
// Use this to add context to log messages:
//
//	logger.WithFields(logrus.Fields{
//	    "component": "supervisor",
//	    "watcher": "system-cpu",
//	}).Info("Watcher started")
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}

// WithField returns a logger entry with a single structured field
func WithField(key string, value interface{}) *logrus.Entry {
	return Get().WithField(key, value)
}

// WithError returns a logger entry with an error field
func WithError(err error) *logrus.Entry {
	return Get().WithError(err)
}

// Helper functions for direct logging

// Debug logs a message at level Debug
func Debug(args ...interface{}) {
	Get().Debug(args...)
}

// Info logs a message at level Info
func Info(args ...interface{}) {
	Get().Info(args...)
}

// Warn logs a message at level Warn
func Warn(args ...interface{}) {
	Get().Warn(args...)
}

// Error logs a message at level Error
func Error(args ...interface{}) {
	Get().Error(args...)
}

// Debugf logs a formatted message at level Debug
func Debugf(format string, args ...interface{}) {
	Get().Debugf(format, args...)
}

// Infof logs a formatted message at level Info
func Infof(format string, args ...interface{}) {
	Get().Infof(format, args...)
}

// Warnf logs a formatted message at level Warn
func Warnf(format string, args ...interface{}) {
	Get().Warnf(format, args...)
}

// Errorf logs a formatted message at level Error
func Errorf(format string, args ...interface{}) {
	Get().Errorf(format, args...)
}

// SetLevel sets the log level programmatically
func SetLevel(level logrus.Level) {
	Get().SetLevel(level)
}

// GetLevel returns the current log level
func GetLevel() logrus.Level {
	return Get().GetLevel()
}

// SetOutput redirects log output. Intended for tests.
func SetOutput(w io.Writer) {
	Get().SetOutput(w)
}

// Close closes the rotating log file if one is open.
// This function is thread-safe and should be called during application
// shutdown. It's safe to call Close() multiple times.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if currentLogFile != nil {
		err := currentLogFile.Close()
		currentLogFile = nil
		return err
	}
	return nil
}
