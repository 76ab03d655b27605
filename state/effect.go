package state

import "sync"

// CleanupFunc is returned by an effect body and runs before the next run or on Dispose.
type CleanupFunc func()

// EffectFn is the body of an effect.
type EffectFn func() CleanupFunc

// Effect runs a side effect immediately and again whenever a dependency changes.
type Effect struct {
	mu       sync.Mutex
	fn       EffectFn
	cleanup  CleanupFunc
	unsubs   []Unsubscribe
	disposed bool
}

// NewEffect creates an effect and runs it once.
func NewEffect(fn EffectFn, deps ...Observable) *Effect {
	e := &Effect{fn: fn}
	e.run()
	for _, o := range deps {
		e.unsubs = append(e.unsubs, o.SubscribeAny(func(any) { e.run() }))
	}
	return e
}

func (e *Effect) run() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	prev := e.cleanup
	e.cleanup = nil
	e.mu.Unlock()

	if prev != nil {
		prev()
	}
	next := e.fn()

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		if next != nil {
			next()
		}
		return
	}
	e.cleanup = next
	e.mu.Unlock()
}

// Dispose runs the last cleanup and stops tracking dependencies. Safe to call twice.
func (e *Effect) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	cleanup := e.cleanup
	e.cleanup = nil
	unsubs := e.unsubs
	e.unsubs = nil
	e.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
	if cleanup != nil {
		cleanup()
	}
}

// Source is anything readable and subscribable with a typed value.
type Source[T any] interface {
	Get() T
	Subscribe(Subscriber[T]) Unsubscribe
}

// Watch calls fn with the current value of src and again on every change.
//
// Example:
//
//	stop := state.Watch(gate, func(ok bool) { button.SetDisabled(!ok) })
//	defer stop()
func Watch[T any](src Source[T], fn func(T)) Unsubscribe {
	fn(src.Get())
	return src.Subscribe(fn)
}
