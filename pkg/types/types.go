// Package types defines the core interfaces and configuration types for
// Watcher Aquarium.
package types

import (
	"context"
)

// Notifier is the outbound alerting capability shared by all watchers.
// Implementations must be safe for concurrent use by multiple watcher
// tasks; Close is invoked exactly once by the supervisor after every
// watcher task has reached a terminal state.
type Notifier interface {
	// Send delivers a notification message. Delivery is best-effort;
	// callers treat a returned error as loggable, never fatal.
	Send(ctx context.Context, text string) error

	// Close releases any underlying connections. Implementations must
	// make Close idempotent.
	Close() error
}
