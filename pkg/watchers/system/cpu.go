package system

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/types"
	"github.com/supporttools/watcher-aquarium/pkg/watchers"
)

// Register the CPU watcher with the global registry during package initialization.
func init() {
	watchers.MustRegister(watchers.Unit{
		Name:        "system-cpu",
		Init:        initCPU,
		Description: "Alerts when CPU utilization crosses a threshold",
	})
}

const (
	defaultCPUInterval  = 60 * time.Second
	defaultCPUThreshold = 90.0
)

func initCPU(n types.Notifier, cfg types.WatcherConfig) (watchers.RunFunc, error) {
	w, err := newCPUWatcher(n, cfg)
	if err != nil {
		return nil, err
	}
	return w.run, nil
}

// cpuWatcher samples total CPU utilization and alerts on threshold crossings.
type cpuWatcher struct {
	notifier  types.Notifier
	interval  time.Duration
	threshold float64
	state     thresholdState
}

func newCPUWatcher(n types.Notifier, cfg types.WatcherConfig) (*cpuWatcher, error) {
	interval := cfg.GetDuration("interval", defaultCPUInterval)
	if interval < time.Second {
		return nil, fmt.Errorf("interval too small, minimum 1s, got %v", interval)
	}

	threshold := cfg.GetFloat("threshold", defaultCPUThreshold)
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}

	return &cpuWatcher{
		notifier:  n,
		interval:  interval,
		threshold: threshold,
	}, nil
}

func (w *cpuWatcher) run(ctx context.Context) error {
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

func (w *cpuWatcher) check(ctx context.Context) {
	// Interval 0 measures since the previous call instead of blocking.
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		logger.WithError(err).Warn("CPU sample failed")
		return
	}
	if len(percents) == 0 {
		return
	}

	if msg, fire := w.state.evaluate("CPU", percents[0], w.threshold); fire {
		if err := w.notifier.Send(ctx, msg); err != nil {
			logger.WithError(err).Warn("Failed to send CPU alert")
		}
	}
}
