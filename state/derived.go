package state

import (
	"sync"

	json "github.com/goccy/go-json"
)

// Derived is a computed value that recalculates when any dependency changes.
// Recomputation is lazy: a dependency change marks the value dirty and
// notifies subscribers only if the recomputed value differs.
type Derived[T any] struct {
	mu sync.RWMutex
	// refreshing serializes compute-and-store so a slow compute cannot
	// overwrite a newer result.
	refreshing sync.Mutex

	id      string
	val     T
	compute func() T
	dirty   bool
	subs    subscribers[T]
	unsubs  []Unsubscribe
}

// NewDerived creates a derived value. compute runs once immediately.
//
// Example:
//
//	qty := state.NewRune(2)
//	total := state.DerivedFrom(func() int64 { return 500 * int64(qty.Get()) }, qty)
func NewDerived[T any](compute func() T) *Derived[T] {
	d := &Derived[T]{id: nextID(), compute: compute}
	d.val = compute()
	return d
}

// DerivedFrom creates a derived value that depends on the given observables.
func DerivedFrom[T any](compute func() T, deps ...Observable) *Derived[T] {
	d := NewDerived(compute)
	for _, o := range deps {
		d.DependOn(o)
	}
	return d
}

// DependOn makes d recompute whenever o changes.
func (d *Derived[T]) DependOn(o Observable) {
	unsub := o.SubscribeAny(func(any) { d.invalidate() })
	d.mu.Lock()
	d.unsubs = append(d.unsubs, unsub)
	d.mu.Unlock()
}

// invalidate recomputes eagerly when someone is listening, otherwise it only
// marks the value dirty for the next Get.
func (d *Derived[T]) invalidate() {
	d.mu.Lock()
	if len(d.subs.entries) == 0 {
		d.dirty = true
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.refresh()
}

func (d *Derived[T]) refresh() {
	d.refreshing.Lock()
	next := d.compute()

	d.mu.Lock()
	d.dirty = false
	if equal(d.val, next) {
		d.mu.Unlock()
		d.refreshing.Unlock()
		return
	}
	d.val = next
	subs := d.subs.snapshot()
	d.mu.Unlock()
	d.refreshing.Unlock()

	for _, sub := range subs {
		sub.fn(next)
	}
}

// Get returns the current value, recomputing first if a dependency changed.
func (d *Derived[T]) Get() T {
	d.mu.RLock()
	dirty := d.dirty
	d.mu.RUnlock()
	if dirty {
		d.refresh()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.val
}

// GetAny implements Observable.
func (d *Derived[T]) GetAny() any {
	return d.Get()
}

// Subscribe registers fn for changes of the computed value.
func (d *Derived[T]) Subscribe(fn Subscriber[T]) Unsubscribe {
	d.mu.Lock()
	id := d.subs.add(fn)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		d.subs.remove(id)
		d.mu.Unlock()
	}
}

// SubscribeAny implements Observable.
func (d *Derived[T]) SubscribeAny(fn func(any)) Unsubscribe {
	return d.Subscribe(func(v T) { fn(v) })
}

// ID identifies the derived value in client sync messages.
func (d *Derived[T]) ID() string {
	return d.id
}

// MarshalJSON encodes the derived value as {"id": ..., "value": ...}.
func (d *Derived[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"id":    d.id,
		"value": d.Get(),
	})
}

// Dispose drops all dependency subscriptions and subscribers.
func (d *Derived[T]) Dispose() {
	d.mu.Lock()
	unsubs := d.unsubs
	d.unsubs = nil
	d.subs.entries = nil
	d.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}
