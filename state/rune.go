// Package state provides the reactive primitives behind qpick components.
// Rune[T] holds a value and notifies subscribers on change; Derived[T] computes a
// value from other observables and recomputes lazily when they change.
package state

import (
	"reflect"
	"strconv"
	"sync"
	"sync/atomic"

	json "github.com/goccy/go-json"
)

// Unsubscribe is returned by Subscribe to remove the subscription.
type Unsubscribe func()

// Subscriber receives value updates.
type Subscriber[T any] func(T)

// Observable is the type-erased view of a rune or derived value.
type Observable interface {
	SubscribeAny(func(any)) Unsubscribe
	GetAny() any
}

type subEntry[T any] struct {
	id uint64
	fn Subscriber[T]
}

// subscribers is the subscription list shared by Rune and Derived.
type subscribers[T any] struct {
	entries []subEntry[T]
	nextID  uint64
}

func (s *subscribers[T]) add(fn Subscriber[T]) uint64 {
	s.nextID++
	s.entries = append(s.entries, subEntry[T]{id: s.nextID, fn: fn})
	return s.nextID
}

func (s *subscribers[T]) remove(id uint64) {
	for i, sub := range s.entries {
		if sub.id == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *subscribers[T]) snapshot() []subEntry[T] {
	out := make([]subEntry[T], len(s.entries))
	copy(out, s.entries)
	return out
}

var idCounter atomic.Uint64

func nextID() string {
	return strconv.FormatUint(idCounter.Add(1), 10)
}

// Rune is a reactive value cell.
//
// Example:
//
//	visible := state.NewRune(false)
//	unsub := visible.Subscribe(func(v bool) { log.Println("visible:", v) })
//	defer unsub()
//	visible.Set(true)
type Rune[T any] struct {
	mu   sync.RWMutex
	id   string
	val  T
	subs subscribers[T]
}

// NewRune creates a Rune holding initial.
func NewRune[T any](initial T) *Rune[T] {
	return &Rune[T]{id: nextID(), val: initial}
}

// Get returns the current value.
func (r *Rune[T]) Get() T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.val
}

// GetAny implements Observable.
func (r *Rune[T]) GetAny() any {
	return r.Get()
}

// Set stores value and notifies subscribers synchronously if it changed.
// Subscribers run outside the lock, in registration order.
func (r *Rune[T]) Set(value T) {
	r.mu.Lock()
	if equal(r.val, value) {
		r.mu.Unlock()
		return
	}
	r.val = value
	subs := r.subs.snapshot()
	r.mu.Unlock()

	for _, sub := range subs {
		sub.fn(value)
	}
}

// Update sets the result of fn applied to the current value.
func (r *Rune[T]) Update(fn func(T) T) {
	r.mu.Lock()
	next := fn(r.val)
	if equal(r.val, next) {
		r.mu.Unlock()
		return
	}
	r.val = next
	subs := r.subs.snapshot()
	r.mu.Unlock()

	for _, sub := range subs {
		sub.fn(next)
	}
}

// Subscribe registers fn for future changes.
func (r *Rune[T]) Subscribe(fn Subscriber[T]) Unsubscribe {
	r.mu.Lock()
	id := r.subs.add(fn)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.subs.remove(id)
			r.mu.Unlock()
		})
	}
}

// SubscribeAny implements Observable.
func (r *Rune[T]) SubscribeAny(fn func(any)) Unsubscribe {
	return r.Subscribe(func(v T) { fn(v) })
}

// ID identifies the rune in client sync messages.
func (r *Rune[T]) ID() string {
	return r.id
}

// MarshalJSON encodes the rune as {"id": ..., "value": ...}.
func (r *Rune[T]) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return json.Marshal(map[string]any{
		"id":    r.id,
		"value": r.val,
	})
}

// equal avoids reflection for the scalar types components mostly store.
func equal[T any](a, b T) bool {
	switch av := any(a).(type) {
	case bool:
		bv, ok := any(b).(bool)
		return ok && av == bv
	case int:
		bv, ok := any(b).(int)
		return ok && av == bv
	case int64:
		bv, ok := any(b).(int64)
		return ok && av == bv
	case string:
		bv, ok := any(b).(string)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}
