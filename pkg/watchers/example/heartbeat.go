// Package example provides an example watcher implementation that
// demonstrates the watcher registration and init patterns used by Watcher
// Aquarium.
//
// The heartbeat watcher is particularly useful for verifying that the
// notification pipeline works end to end, and serves as a template for
// implementing new watchers.
package example

import (
	"context"
	"fmt"
	"time"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/types"
	"github.com/supporttools/watcher-aquarium/pkg/watchers"
)

// Register the heartbeat watcher with the global registry during package
// initialization. This demonstrates the self-registration pattern that all
// watchers should follow.
func init() {
	watchers.MustRegister(watchers.Unit{
		Name:        "heartbeat",
		Init:        initHeartbeat,
		Description: "Sends a periodic liveness notification",
	})
}

const defaultHeartbeatInterval = 24 * time.Hour

// initHeartbeat creates the heartbeat run function. This demonstrates the
// standard init pattern: parse configuration, validate, apply defaults, and
// return a closure over the resulting state.
func initHeartbeat(n types.Notifier, cfg types.WatcherConfig) (watchers.RunFunc, error) {
	interval := cfg.GetDuration("interval", defaultHeartbeatInterval)
	if interval < time.Second {
		return nil, fmt.Errorf("interval too small, minimum 1s, got %v", interval)
	}

	message := cfg.GetString("message", "Watcher Aquarium is alive")

	w := &heartbeatWatcher{
		notifier: n,
		interval: interval,
		message:  message,
	}
	return w.run, nil
}

type heartbeatWatcher struct {
	notifier types.Notifier
	interval time.Duration
	message  string
}

// run follows the loop shape every periodic watcher uses: a ticker, a
// select on the context, and a per-iteration action.
func (w *heartbeatWatcher) run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.beat(ctx)
		}
	}
}

func (w *heartbeatWatcher) beat(ctx context.Context) {
	msg := fmt.Sprintf("%s (%s)", w.message, time.Now().Format(time.RFC3339))
	if err := w.notifier.Send(ctx, msg); err != nil {
		logger.WithError(err).Warn("Failed to send heartbeat notification")
	}
}
