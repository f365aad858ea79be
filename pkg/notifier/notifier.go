// Package notifier provides the outbound notification transports shared by
// all watchers. A notifier accepts plain text messages from any watcher task
// concurrently; the supervisor closes it once every task has stopped.
package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/types"
)

// New creates a notifier from the notifier configuration section.
// An empty type selects the log notifier so a minimal config still works;
// an unknown type is a configuration error.
func New(cfg types.NotifierConfig) (types.Notifier, error) {
	switch strings.ToLower(cfg.Type) {
	case "", "log":
		return NewLogNotifier(), nil
	case "webhook":
		return NewWebhookNotifier(cfg)
	default:
		return nil, fmt.Errorf("unknown notifier type %q (supported: webhook, log)", cfg.Type)
	}
}

// LogNotifier writes notifications to the application log. It is the default
// transport and is also useful in tests and dry runs.
type LogNotifier struct {
	closeOnce sync.Once
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send writes the message to the log.
func (n *LogNotifier) Send(_ context.Context, text string) error {
	logger.WithField("notifier", "log").Infof("Notification: %s", text)
	return nil
}

// Close is a no-op; it exists to satisfy the Notifier contract and stays
// idempotent like every other transport.
func (n *LogNotifier) Close() error {
	n.closeOnce.Do(func() {})
	return nil
}
