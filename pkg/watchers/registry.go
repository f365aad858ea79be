// Package watchers provides the pluggable watcher registry for Watcher
// Aquarium.
//
// The registry allows watcher units to self-register via func init() and
// provides deterministic, thread-safe discovery of the runnable set. This
// gives a clean factory pattern where watcher implementations can be
// discovered and started without tight coupling; it is the compile-time
// equivalent of scanning a plugin directory.
//
// Usage Example:
//
//	// Watcher registration (typically in a watcher package init())
//	func init() {
//		watchers.MustRegister(watchers.Unit{
//			Name:        "system-disk",
//			Init:        initDisk,
//			Description: "Alerts when disk usage crosses a threshold",
//		})
//	}
//
//	// Discovery at startup
//	units := watchers.Discover()
package watchers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/types"
)

// RunFunc is a long-running watcher operation. It must honor cooperative
// cancellation: when the context is cancelled it unwinds and returns,
// typically with nil or ctx.Err(). Returning for any other reason is
// unusual for a watcher but not an error.
type RunFunc func(ctx context.Context) error

// InitFunc is the entry point every watcher unit exposes. It receives the
// shared notifier and the unit's own configuration section and returns the
// operation to run. A nil RunFunc means "nothing to run" and the unit is
// silently skipped. An error (or panic) is a start failure for this unit
// only; it never affects sibling units.
type InitFunc func(notifier types.Notifier, config types.WatcherConfig) (RunFunc, error)

// Unit describes a registered watcher: its unique name, its entry point,
// and human-readable documentation. Units are immutable after registration.
type Unit struct {
	// Name is the unique identifier for this watcher. It doubles as the
	// configuration section name under `watchers:`. A leading underscore
	// marks the unit private and excludes it from discovery.
	Name string

	// Init is the unit's entry point. Units registered without one are
	// skipped at discovery time with a warning.
	Init InitFunc

	// Description provides human-readable documentation for this watcher.
	Description string
}

// Registry manages watcher unit registration and discovery. Registration
// happens at init time; discovery happens once at startup. The registry
// preserves insertion order so repeated discovery of the same set is
// deterministic, which keeps startup logs reproducible.
type Registry struct {
	// mu protects units and order from concurrent access
	mu sync.RWMutex

	// units maps unit names to their registration info
	units map[string]*Unit

	// order records registration order for deterministic discovery
	order []string
}

// DefaultRegistry is the global watcher registry instance.
// Most applications should use this instance through the package-level
// functions rather than creating their own registry.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new empty watcher registry. This is primarily
// useful for testing; applications normally use the DefaultRegistry.
func NewRegistry() *Registry {
	return &Registry{
		units: make(map[string]*Unit),
	}
}

// ErrEmptyWatcherName is returned when attempting to register a unit with an empty name.
var ErrEmptyWatcherName = errors.New("watcher name cannot be empty")

// ErrDuplicateWatcher is returned when attempting to register a name that already exists.
var ErrDuplicateWatcher = errors.New("watcher is already registered")

// Register adds a watcher unit to the registry. This is typically called
// from watcher package init() functions to self-register implementations.
//
// A nil Init is accepted: such a unit is the static analog of a plugin
// module that lacks the required entry point, and Discover skips it with a
// warning instead of failing registration.
func (r *Registry) Register(unit Unit) error {
	if unit.Name == "" {
		return ErrEmptyWatcherName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.units[unit.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateWatcher, unit.Name)
	}

	unitCopy := unit
	r.units[unit.Name] = &unitCopy
	r.order = append(r.order, unit.Name)
	return nil
}

// MustRegister adds a watcher unit to the registry and panics on error.
// Intended for init() functions where a registration failure is a
// programming error that should be caught during development.
func (r *Registry) MustRegister(unit Unit) {
	if err := r.Register(unit); err != nil {
		panic(fmt.Sprintf("watcher registration failed: %v", err))
	}
}

// Discover returns the runnable watcher units in registration order.
// Units whose name starts with an underscore are private and excluded;
// units without an entry point are skipped with a warning. One unusable
// unit never prevents discovery of the others. An empty result is not an
// error; the caller decides how to report it.
func (r *Registry) Discover() []Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := make([]Unit, 0, len(r.order))
	for _, name := range r.order {
		unit := r.units[name]

		if strings.HasPrefix(name, "_") {
			logger.Debugf("Skipping private watcher %q", name)
			continue
		}
		if unit.Init == nil {
			logger.Warnf("Watcher %q has no entry point, skipping", name)
			continue
		}

		units = append(units, *unit)
		logger.Debugf("Discovered watcher: %s", name)
	}

	return units
}

// Registered returns all registered unit names in registration order,
// including private and entry-point-less units. Useful for debugging and
// help text.
func (r *Registry) Registered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// IsRegistered checks whether a watcher name is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.units[name]
	return exists
}

// Package-level convenience functions that operate on the DefaultRegistry.

// Register registers a watcher unit with the default registry.
// See Registry.Register for details.
func Register(unit Unit) error {
	return DefaultRegistry.Register(unit)
}

// MustRegister registers a watcher unit with the default registry and panics on error.
// See Registry.MustRegister for details.
func MustRegister(unit Unit) {
	DefaultRegistry.MustRegister(unit)
}

// Discover returns the runnable units from the default registry.
// See Registry.Discover for details.
func Discover() []Unit {
	return DefaultRegistry.Discover()
}

// Registered returns all registered names from the default registry.
// See Registry.Registered for details.
func Registered() []string {
	return DefaultRegistry.Registered()
}

// IsRegistered checks a name against the default registry.
// See Registry.IsRegistered for details.
func IsRegistered(name string) bool {
	return DefaultRegistry.IsRegistered(name)
}
