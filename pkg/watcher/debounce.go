package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is the default settle time after a change burst.
// Bank files are rewritten whole, so a short window is enough to coalesce
// the write/rename pair of an atomic save.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces bursts of triggers into a single callback after a
// quiet period.
type Debouncer struct {
	duration time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given settle duration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Trigger schedules fn to run after the settle duration, resetting the
// clock if a trigger is already pending. Only the latest fn runs.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Duration returns the settle duration.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}

// Cancel drops any pending trigger.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
