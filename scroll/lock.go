// Package scroll provides the reference-counted page scroll lock shared by
// every overlay on a page.
//
// The page is scroll-locked while at least one Lock is held. Observers are
// told about transitions only, never about nested acquisitions.
package scroll

import "sync"

// Locker owns the scroll state of one page.
type Locker struct {
	mu        sync.Mutex
	count     int
	observers []func(locked bool)
}

// NewLocker returns an unlocked Locker.
func NewLocker() *Locker {
	return &Locker{}
}

// Lock is a held scroll lock. Release it exactly when the overlay goes away;
// extra Release calls are ignored.
type Lock struct {
	once sync.Once
	l    *Locker
}

// Acquire takes a lock. The page becomes locked on the first acquisition.
func (l *Locker) Acquire() *Lock {
	l.mu.Lock()
	l.count++
	first := l.count == 1
	obs := l.snapshot()
	l.mu.Unlock()

	if first {
		notify(obs, true)
	}
	return &Lock{l: l}
}

// Release gives the lock back. The page unlocks when the last lock is released.
func (k *Lock) Release() {
	if k == nil {
		return
	}
	k.once.Do(func() {
		k.l.release()
	})
}

func (l *Locker) release() {
	l.mu.Lock()
	if l.count == 0 {
		l.mu.Unlock()
		return
	}
	l.count--
	last := l.count == 0
	obs := l.snapshot()
	l.mu.Unlock()

	if last {
		notify(obs, false)
	}
}

// Locked reports whether any lock is held.
func (l *Locker) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count > 0
}

// Count returns the number of held locks.
func (l *Locker) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// OnChange registers fn to be called with the new state on every
// locked/unlocked transition.
func (l *Locker) OnChange(fn func(locked bool)) {
	l.mu.Lock()
	l.observers = append(l.observers, fn)
	l.mu.Unlock()
}

func (l *Locker) snapshot() []func(bool) {
	out := make([]func(bool), len(l.observers))
	copy(out, l.observers)
	return out
}

func notify(obs []func(bool), locked bool) {
	for _, fn := range obs {
		fn(locked)
	}
}

// Overflow returns the CSS overflow value for the page body.
func Overflow(locked bool) string {
	if locked {
		return "hidden"
	}
	return "auto"
}
