// Package system provides system-resource watchers for Watcher Aquarium.
// Each watcher samples a resource via gopsutil at a configurable interval
// and alerts through the shared notifier when usage crosses a threshold,
// with a recovery notification once usage drops back below it.
package system

import (
	"fmt"
)

// thresholdState tracks whether a metric is currently above its threshold
// so alerts fire on transitions only, never on every sample.
type thresholdState struct {
	above bool
}

// evaluate compares a sample against the threshold and returns a
// notification message when the metric transitions across it.
func (s *thresholdState) evaluate(subject string, value, threshold float64) (string, bool) {
	switch {
	case value >= threshold && !s.above:
		s.above = true
		return fmt.Sprintf("%s usage at %.1f%% (threshold %.1f%%)", subject, value, threshold), true
	case value < threshold && s.above:
		s.above = false
		return fmt.Sprintf("%s usage recovered to %.1f%% (threshold %.1f%%)", subject, value, threshold), true
	}
	return "", false
}

// validateThreshold checks a percentage threshold from watcher config.
func validateThreshold(threshold float64) error {
	if threshold <= 0 || threshold > 100 {
		return fmt.Errorf("threshold must be in (0, 100], got %v", threshold)
	}
	return nil
}
