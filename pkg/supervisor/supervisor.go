// Package supervisor runs the watcher lifecycle: it starts one concurrent
// task per discovered watcher unit, announces the running set through the
// shared notifier, waits for completion or an interrupt, and drives a
// two-phase graceful shutdown (cancel all, then await all with errors
// suppressed) before releasing the notifier.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/types"
	"github.com/supporttools/watcher-aquarium/pkg/watchers"
)

// TaskState describes where a watcher task is in its lifecycle.
type TaskState string

// Task lifecycle states. Completed, Failed, and Cancelled are terminal;
// no further transitions occur once a task reaches one of them.
const (
	TaskStarting  TaskState = "Starting"
	TaskRunning   TaskState = "Running"
	TaskCompleted TaskState = "Completed"
	TaskFailed    TaskState = "Failed"
	TaskCancelled TaskState = "Cancelled"
)

// Terminal reports whether the state is a terminal state.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// ErrNoWatchers is returned by Run when no watcher task could be started.
// The process treats this as a fatal startup condition.
var ErrNoWatchers = errors.New("no watcher tasks started")

// WatcherHandle represents a running watcher task: its owning unit name,
// its current state, and a channel to await its termination.
type WatcherHandle struct {
	name string
	done chan struct{}

	mu    sync.Mutex
	state TaskState
	err   error
}

// Name returns the owning watcher unit's name.
func (h *WatcherHandle) Name() string {
	return h.name
}

// State returns the task's current lifecycle state.
func (h *WatcherHandle) State() TaskState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Err returns the error the task terminated with, if any.
// Only meaningful once State() is terminal.
func (h *WatcherHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Done returns a channel that is closed when the task reaches a terminal state.
func (h *WatcherHandle) Done() <-chan struct{} {
	return h.done
}

// setState transitions the task to a new state. Terminal states are sticky:
// once reached, no further transition is applied.
func (h *WatcherHandle) setState(state TaskState, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state.Terminal() {
		return
	}
	h.state = state
	h.err = err
}

// Supervisor owns the watcher task set and the shared notifier handle.
// It is single-use: create one, call Run once.
type Supervisor struct {
	notifier    types.Notifier
	gracePeriod time.Duration

	mu      sync.Mutex
	handles []*WatcherHandle
	wg      sync.WaitGroup

	shutdownOnce sync.Once
}

// New creates a supervisor around the shared notifier. gracePeriod bounds
// how long shutdown waits for watchers to honor cancellation; a
// non-positive value falls back to 30 seconds.
//
// Watcher tasks never see the notifier directly: they share a sealable
// wrapper, so a straggler abandoned after the grace period cannot reach
// the transport once it has been closed.
func New(n types.Notifier, gracePeriod time.Duration) *Supervisor {
	if gracePeriod <= 0 {
		gracePeriod = 30 * time.Second
	}
	return &Supervisor{
		notifier:    &sealableNotifier{inner: n},
		gracePeriod: gracePeriod,
	}
}

// Handles returns the supervised task handles. The slice is a copy; the
// handles themselves are shared and safe for concurrent inspection.
func (s *Supervisor) Handles() []*WatcherHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*WatcherHandle, len(s.handles))
	copy(out, s.handles)
	return out
}

// Run executes the full watcher lifecycle and blocks until shutdown has
// completed. Cancelling ctx is the external interrupt trigger: it starts
// the graceful shutdown rather than abandoning the tasks.
//
// Run returns ErrNoWatchers when the unit set is empty or every unit failed
// to start; in that case no notification is sent and the notifier is NOT
// closed (no task ever shared it, ownership stays with the caller). Any
// other return is nil: watcher failures are contained at the task boundary
// and surface only in the log.
func (s *Supervisor) Run(ctx context.Context, units []watchers.Unit, cfg *types.Config) error {
	if len(units) == 0 {
		logger.Warn("No watchers found")
		return ErrNoWatchers
	}

	// runCtx is the cancellation fan-out for all watcher tasks. It derives
	// from ctx so an external interrupt reaches every task directly.
	runCtx, cancelAll := context.WithCancel(ctx)
	defer cancelAll()

	// Start phase. All starts are attempted before anything waits, so
	// cancellation can never interleave with a task start.
	for _, unit := range units {
		watcherCfg := cfg.WatcherConfigFor(unit.Name)

		if !watcherCfg.Enabled() {
			logger.Infof("Watcher %q is disabled, skipping", unit.Name)
			continue
		}

		run, err := invokeInit(unit, s.notifier, watcherCfg)
		if err != nil {
			logger.WithError(err).Errorf("Failed to initialize watcher %q", unit.Name)
			continue
		}
		if run == nil {
			logger.Debugf("Watcher %q has nothing to run, skipping", unit.Name)
			continue
		}

		handle := &WatcherHandle{
			name:  unit.Name,
			done:  make(chan struct{}),
			state: TaskStarting,
		}

		s.mu.Lock()
		s.handles = append(s.handles, handle)
		s.mu.Unlock()

		s.wg.Add(1)
		go s.runTask(runCtx, handle, run)

		logger.Infof("Started watcher: %s", unit.Name)
	}

	started := s.Handles()
	if len(started) == 0 {
		logger.Error("No watcher tasks started")
		return ErrNoWatchers
	}

	logger.Infof("Running %d watcher(s)...", len(started))

	// Startup announcement goes out after all starts were attempted and
	// strictly before the wait phase begins. Delivery failure is not fatal.
	if err := s.notifier.Send(ctx, startupMessage(started)); err != nil {
		logger.WithError(err).Warn("Failed to send startup notification")
	} else {
		logger.Info("Startup notification sent")
	}

	// Wait phase: all tasks terminal, or external interrupt.
	allDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(allDone)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping watchers...")
	case <-allDone:
		logger.Info("All watcher tasks finished")
	}

	s.shutdown(cancelAll, allDone)
	return nil
}

// runTask drives a single watcher task from Running to a terminal state.
// Panics and errors are contained here; nothing propagates to siblings.
func (s *Supervisor) runTask(ctx context.Context, handle *WatcherHandle, run watchers.RunFunc) {
	defer s.wg.Done()
	defer close(handle.done)

	handle.setState(TaskRunning, nil)

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("watcher panicked: %v", r)
			}
		}()
		err = run(ctx)
	}()

	switch {
	case err == nil && ctx.Err() == nil:
		// Watchers are expected to run indefinitely, so a clean return is
		// unusual but not an error.
		handle.setState(TaskCompleted, nil)
		logger.Infof("Watcher %q completed", handle.name)
	case err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		handle.setState(TaskCancelled, nil)
		logger.Infof("Watcher %q cancelled", handle.name)
	default:
		handle.setState(TaskFailed, err)
		logger.WithError(err).Errorf("Watcher %q failed", handle.name)
	}
}

// shutdown performs the two-phase wind-down exactly once: cancel every
// task, await them all within the grace period while suppressing their
// errors, then release the notifier. No watcher's slow or failing teardown
// may block or fail the shutdown of its siblings.
func (s *Supervisor) shutdown(cancelAll context.CancelFunc, allDone <-chan struct{}) {
	s.shutdownOnce.Do(func() {
		logger.Info("Stopping all watchers...")

		// Phase one: cancellation fan-out.
		cancelAll()

		// Phase two: await-all, bounded by the grace period so one
		// misbehaving watcher cannot stall shutdown indefinitely.
		timer := time.NewTimer(s.gracePeriod)
		defer timer.Stop()

		select {
		case <-allDone:
		case <-timer.C:
			logger.Warnf("Shutdown grace period %v exceeded, abandoning: %s",
				s.gracePeriod, strings.Join(s.pendingNames(), ", "))
		}

		// Wind-down errors were already logged by runTask; summarize the
		// failed set here instead of propagating anything.
		for _, handle := range s.Handles() {
			if handle.State() == TaskFailed {
				logger.Debugf("Watcher %q ended in state %s: %v", handle.Name(), TaskFailed, handle.Err())
			}
		}

		if err := s.notifier.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close notifier")
		}

		logger.Info("All watchers stopped")
	})
}

// pendingNames lists tasks that have not reached a terminal state yet.
func (s *Supervisor) pendingNames() []string {
	var names []string
	for _, handle := range s.Handles() {
		if !handle.State().Terminal() {
			names = append(names, handle.Name())
		}
	}
	return names
}

// invokeInit calls a unit's entry point with panic recovery, so one buggy
// watcher cannot take down the start phase.
func invokeInit(unit watchers.Unit, n types.Notifier, cfg types.WatcherConfig) (run watchers.RunFunc, err error) {
	defer func() {
		if r := recover(); r != nil {
			run = nil
			err = fmt.Errorf("watcher init panicked: %v", r)
		}
	}()
	return unit.Init(n, cfg)
}

// sealableNotifier is the shared handle watcher tasks send through. Close
// seals the handle before closing the underlying transport: in-flight Send
// calls complete first, and any Send arriving afterwards (a straggler
// abandoned after the grace period) is dropped with a log line instead of
// reaching a closed transport.
type sealableNotifier struct {
	mu     sync.RWMutex
	sealed bool
	inner  types.Notifier
}

func (n *sealableNotifier) Send(ctx context.Context, text string) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.sealed {
		logger.Debugf("Dropping notification sent after shutdown: %q", text)
		return nil
	}
	return n.inner.Send(ctx, text)
}

func (n *sealableNotifier) Close() error {
	n.mu.Lock()
	if n.sealed {
		n.mu.Unlock()
		return nil
	}
	n.sealed = true
	n.mu.Unlock()
	return n.inner.Close()
}

// startupMessage composes the startup announcement: a short header followed
// by one bullet per started watcher.
func startupMessage(handles []*WatcherHandle) string {
	var b strings.Builder
	b.WriteString("# Watcher Aquarium started\n\nActive watchers:\n")
	for _, handle := range handles {
		fmt.Fprintf(&b, "- `%s`\n", handle.Name())
	}
	return b.String()
}
