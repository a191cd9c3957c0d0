package filters

import (
	"sync"
	"time"
)

// Timer is the cancel handle of a scheduled callback. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler schedules callbacks. Tests substitute a manual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type DebouncerOption func(*Debouncer)

func WithScheduler(s Scheduler) DebouncerOption {
	return func(d *Debouncer) {
		if s != nil {
			d.scheduler = s
		}
	}
}

// Debouncer commits the latest pushed snapshot once no push arrived for the interval.
// At most one commit is pending at any time.
type Debouncer struct {
	interval  time.Duration
	commit    func(Snapshot)
	scheduler Scheduler

	// commitMu serializes commit callbacks so an older value can never land after a newer one.
	commitMu sync.Mutex

	mu      sync.Mutex
	timer   Timer
	pending *Snapshot
	gen     uint64
	closed  bool
}

// NewDebouncer builds a debouncer. A non-positive interval commits synchronously on Push.
// commit must not call back into the debouncer.
func NewDebouncer(interval time.Duration, commit func(Snapshot), opts ...DebouncerOption) *Debouncer {
	d := &Debouncer{
		interval:  interval,
		commit:    commit,
		scheduler: wallClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Push replaces the pending snapshot and restarts the quiet timer.
func (d *Debouncer) Push(s Snapshot) {
	if d.interval <= 0 {
		d.Commit(s)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.stopLocked()
	d.gen++
	gen := d.gen
	snap := s.Clone()
	d.pending = &snap
	d.timer = d.scheduler.AfterFunc(d.interval, func() { d.fire(gen) })
}

// Commit drops anything pending and commits s immediately.
func (d *Debouncer) Commit(s Snapshot) {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.stopLocked()
	d.gen++
	d.pending = nil
	d.mu.Unlock()

	d.commit(s.Clone())
}

// Flush commits the pending snapshot now. It reports whether there was one.
func (d *Debouncer) Flush() bool {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	if d.closed || d.pending == nil {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	d.gen++
	snap := *d.pending
	d.pending = nil
	d.mu.Unlock()

	d.commit(snap)
	return true
}

// Pending reports whether a commit is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Close cancels the pending timer. Once Close returns, no commit is running and none will run.
func (d *Debouncer) Close() {
	d.mu.Lock()
	d.closed = true
	d.stopLocked()
	d.gen++
	d.pending = nil
	d.mu.Unlock()

	d.commitMu.Lock()
	d.commitMu.Unlock() //nolint:staticcheck // waits for an in-progress commit
}

func (d *Debouncer) fire(gen uint64) {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	if d.closed || gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	snap := *d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	d.commit(snap)
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
