// Package logfile provides a watcher that follows a log file and alerts
// when appended lines match configured patterns.
package logfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/types"
	"github.com/supporttools/watcher-aquarium/pkg/watchers"
)

// Register the log pattern watcher with the global registry during package initialization.
func init() {
	watchers.MustRegister(watchers.Unit{
		Name:        "log-pattern",
		Init:        initLogPattern,
		Description: "Follows a log file and alerts on lines matching configured patterns",
	})
}

// maxLineLength bounds a single scanned log line.
const maxLineLength = 256 * 1024

func initLogPattern(n types.Notifier, cfg types.WatcherConfig) (watchers.RunFunc, error) {
	path := cfg.GetString("path", "")
	if path == "" {
		// No file configured means nothing to run.
		return nil, nil
	}

	raw := cfg.GetStringSlice("patterns", nil)
	if len(raw) == 0 {
		return nil, fmt.Errorf("patterns must not be empty")
	}

	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	w := &logPatternWatcher{
		notifier: n,
		path:     filepath.Clean(path),
		patterns: patterns,
	}
	return w.run, nil
}

// logPatternWatcher tails a single file. It watches the parent directory so
// rotation (rename plus recreate) is picked up, and it tracks a byte offset
// so each appended line is scanned once.
type logPatternWatcher struct {
	notifier types.Notifier
	path     string
	patterns []*regexp.Regexp
	offset   int64
}

func (w *logPatternWatcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory, not the file: the file may not exist yet and
	// may be replaced during rotation.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	// Start from the current end of file; only new lines are reported.
	if info, err := os.Stat(w.path); err == nil {
		w.offset = info.Size()
	}

	logger.Infof("Following %s for %d pattern(s)", w.path, len(w.patterns))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// Recreated after rotation: start from the beginning.
				w.offset = 0
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.consume(ctx)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warnf("File watcher error for %s", w.path)
		}
	}
}

// consume scans lines appended since the last offset and notifies per match.
func (w *logPatternWatcher) consume(ctx context.Context) {
	file, err := os.Open(w.path)
	if err != nil {
		logger.WithError(err).Warnf("Failed to open %s", w.path)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		logger.WithError(err).Warnf("Failed to stat %s", w.path)
		return
	}
	if info.Size() < w.offset {
		// Truncated in place; re-read from the start.
		w.offset = 0
	}

	if _, err := file.Seek(w.offset, io.SeekStart); err != nil {
		logger.WithError(err).Warnf("Failed to seek in %s", w.path)
		return
	}

	// The offset only ever advances past newline-terminated lines. A
	// partially flushed line stays unread until the writer finishes it, so
	// a pattern spanning two flushes is matched against the whole line.
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				logger.WithError(err).Warnf("Failed to read %s", w.path)
			}
			return
		}
		w.offset += int64(len(line))

		line = strings.TrimRight(line, "\r\n")
		if len(line) > maxLineLength {
			logger.Warnf("Skipping oversized line in %s (%d bytes)", w.path, len(line))
			continue
		}

		if pattern, matched := w.match(line); matched {
			msg := fmt.Sprintf("Pattern %q matched in %s: %s", pattern, w.path, line)
			sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := w.notifier.Send(sendCtx, msg); err != nil {
				logger.WithError(err).Warnf("Failed to send log pattern alert for %s", w.path)
			}
			cancel()
		}
	}
}

// match returns the first pattern that matches the line.
func (w *logPatternWatcher) match(line string) (string, bool) {
	for _, re := range w.patterns {
		if re.MatchString(line) {
			return re.String(), true
		}
	}
	return "", false
}
