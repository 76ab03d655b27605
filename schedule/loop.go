package schedule

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Post after the loop has been closed.
var ErrClosed = errors.New("schedule: loop closed")

// Loop is a Scheduler backed by real timers and a single goroutine.
// External events enter through Post; timers and deferred callbacks are
// queued onto the same goroutine, so nothing runs concurrently. Callbacks run
// in the order they were posted.
type Loop struct {
	wake chan struct{}
	done chan struct{}

	mu      sync.Mutex
	closed  bool
	pending []func()
	timers  map[*Task]struct{}
}

// NewLoop starts a loop. size is the initial queue capacity; the queue grows
// as needed.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	l := &Loop{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		pending: make([]func(), 0, size),
		timers:  make(map[*Task]struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case <-l.wake:
		case <-l.done:
			return
		}
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || len(l.pending) == 0 {
		return nil, false
	}
	fn := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return fn, true
}

// Post enqueues fn to run on the loop goroutine. It never blocks, so
// callbacks may post to their own loop.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from the loop goroutine.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// After implements Scheduler.
func (l *Loop) After(d time.Duration, fn func()) *Task {
	t := newTask(fn)
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		t.canceled.Store(true)
		return t
	}
	l.timers[t] = struct{}{}
	// The timer callback and Close both take l.mu, so stop is set before
	// either can see the task.
	timer := time.AfterFunc(d, func() {
		l.forget(t)
		_ = l.Post(t.run)
	})
	t.stop = func() bool {
		l.forget(t)
		return timer.Stop()
	}
	l.mu.Unlock()
	return t
}

// Defer implements Scheduler.
func (l *Loop) Defer(fn func()) *Task {
	t := newTask(fn)
	if err := l.Post(t.run); err != nil {
		t.canceled.Store(true)
	}
	return t
}

func (l *Loop) forget(t *Task) {
	l.mu.Lock()
	delete(l.timers, t)
	l.mu.Unlock()
}

// Close cancels pending timers and stops the loop. Queued callbacks that
// have not started are dropped.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	timers := make([]*Task, 0, len(l.timers))
	for t := range l.timers {
		timers = append(timers, t)
	}
	l.timers = nil
	l.pending = nil
	l.mu.Unlock()

	for _, t := range timers {
		t.Cancel()
	}
	close(l.done)
}
