package system

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/types"
	"github.com/supporttools/watcher-aquarium/pkg/watchers"
)

// Register the memory watcher with the global registry during package initialization.
func init() {
	watchers.MustRegister(watchers.Unit{
		Name:        "system-memory",
		Init:        initMemory,
		Description: "Alerts when memory utilization crosses a threshold",
	})
}

const (
	defaultMemoryInterval  = 60 * time.Second
	defaultMemoryThreshold = 90.0
)

func initMemory(n types.Notifier, cfg types.WatcherConfig) (watchers.RunFunc, error) {
	w, err := newMemoryWatcher(n, cfg)
	if err != nil {
		return nil, err
	}
	return w.run, nil
}

// memoryWatcher samples virtual memory usage and alerts on threshold crossings.
type memoryWatcher struct {
	notifier  types.Notifier
	interval  time.Duration
	threshold float64
	state     thresholdState
}

func newMemoryWatcher(n types.Notifier, cfg types.WatcherConfig) (*memoryWatcher, error) {
	interval := cfg.GetDuration("interval", defaultMemoryInterval)
	if interval < time.Second {
		return nil, fmt.Errorf("interval too small, minimum 1s, got %v", interval)
	}

	threshold := cfg.GetFloat("threshold", defaultMemoryThreshold)
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}

	return &memoryWatcher{
		notifier:  n,
		interval:  interval,
		threshold: threshold,
	}, nil
}

func (w *memoryWatcher) run(ctx context.Context) error {
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

func (w *memoryWatcher) check(ctx context.Context) {
	vmem, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		logger.WithError(err).Warn("Memory sample failed")
		return
	}

	if msg, fire := w.state.evaluate("Memory", vmem.UsedPercent, w.threshold); fire {
		if err := w.notifier.Send(ctx, msg); err != nil {
			logger.WithError(err).Warn("Failed to send memory alert")
		}
	}
}
