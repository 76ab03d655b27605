// Package schedule runs deferred component callbacks on a single event loop.
//
// Every callback a Scheduler runs executes on that scheduler's loop, one at a
// time, so component state needs no locking beyond what the reactive
// primitives already do. Deferred work is returned as a *Task that the owner
// can cancel on teardown.
package schedule

import (
	"sync/atomic"
	"time"
)

// Scheduler defers callbacks.
type Scheduler interface {
	// After runs fn once d has elapsed.
	After(d time.Duration, fn func()) *Task
	// Defer runs fn on the next tick, after the current callback returns.
	Defer(fn func()) *Task
}

// Task is a handle to a scheduled callback.
type Task struct {
	fn       func()
	canceled atomic.Bool
	done     atomic.Bool
	stop     func() bool
}

func newTask(fn func()) *Task {
	return &Task{fn: fn}
}

// Cancel prevents the callback from running. It reports whether the task was
// still pending. Calling Cancel on a nil task is a no-op.
func (t *Task) Cancel() bool {
	if t == nil || t.done.Load() {
		return false
	}
	if !t.canceled.CompareAndSwap(false, true) {
		return false
	}
	if t.stop != nil {
		t.stop()
	}
	return true
}

// Pending reports whether the callback has neither run nor been canceled.
func (t *Task) Pending() bool {
	return t != nil && !t.done.Load() && !t.canceled.Load()
}

// run executes the callback unless it was canceled. It runs at most once.
func (t *Task) run() {
	if t.canceled.Load() || !t.done.CompareAndSwap(false, true) {
		return
	}
	t.fn()
}
