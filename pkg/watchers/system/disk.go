package system

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/types"
	"github.com/supporttools/watcher-aquarium/pkg/watchers"
)

// Register the disk watcher with the global registry during package initialization.
func init() {
	watchers.MustRegister(watchers.Unit{
		Name:        "system-disk",
		Init:        initDisk,
		Description: "Alerts when disk usage on a watched path crosses a threshold",
	})
}

const (
	defaultDiskInterval  = 5 * time.Minute
	defaultDiskThreshold = 90.0
)

func initDisk(n types.Notifier, cfg types.WatcherConfig) (watchers.RunFunc, error) {
	w, err := newDiskWatcher(n, cfg)
	if err != nil {
		return nil, err
	}
	return w.run, nil
}

// diskWatcher samples filesystem usage for each configured path and alerts
// on threshold crossings, tracking state per path.
type diskWatcher struct {
	notifier  types.Notifier
	interval  time.Duration
	threshold float64
	paths     []string
	states    map[string]*thresholdState
}

func newDiskWatcher(n types.Notifier, cfg types.WatcherConfig) (*diskWatcher, error) {
	interval := cfg.GetDuration("interval", defaultDiskInterval)
	if interval < time.Second {
		return nil, fmt.Errorf("interval too small, minimum 1s, got %v", interval)
	}

	threshold := cfg.GetFloat("threshold", defaultDiskThreshold)
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}

	paths := cfg.GetStringSlice("paths", []string{"/"})
	if len(paths) == 0 {
		return nil, fmt.Errorf("paths must not be empty")
	}

	states := make(map[string]*thresholdState, len(paths))
	for _, p := range paths {
		states[p] = &thresholdState{}
	}

	return &diskWatcher{
		notifier:  n,
		interval:  interval,
		threshold: threshold,
		paths:     paths,
		states:    states,
	}, nil
}

func (w *diskWatcher) run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *diskWatcher) check(ctx context.Context) {
	for _, path := range w.paths {
		usage, err := disk.UsageWithContext(ctx, path)
		if err != nil {
			logger.WithError(err).Warnf("Disk sample failed for %q", path)
			continue
		}

		subject := fmt.Sprintf("Disk %s", path)
		if msg, fire := w.states[path].evaluate(subject, usage.UsedPercent, w.threshold); fire {
			if err := w.notifier.Send(ctx, msg); err != nil {
				logger.WithError(err).Warnf("Failed to send disk alert for %q", path)
			}
		}
	}
}
