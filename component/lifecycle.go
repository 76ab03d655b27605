// Package component provides lifecycle management for qpick components.
// A component mounts once, may update many times, and is destroyed once;
// cleanup hooks release whatever the component acquired while mounted.
package component

import "sync"

// Phase is the current phase of a component's lifecycle.
type Phase int

const (
	// PhaseCreated is the state after construction, before Mount.
	PhaseCreated Phase = iota
	// PhaseMounted is the state between Mount and Destroy.
	PhaseMounted
	// PhaseDestroyed is terminal.
	PhaseDestroyed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseMounted:
		return "mounted"
	case PhaseDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Hook runs during a lifecycle transition.
type Hook func()

// Lifecycle tracks a component's phase and runs its hooks.
type Lifecycle struct {
	mu sync.Mutex

	phase     Phase
	onMount   []Hook
	onUpdate  []Hook
	onDestroy []Hook
	cleanups  []Hook
}

// NewLifecycle creates a lifecycle in PhaseCreated.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// IsMounted reports whether the component is mounted.
func (l *Lifecycle) IsMounted() bool {
	return l.Phase() == PhaseMounted
}

// OnMount registers a hook to run when the component mounts.
func (l *Lifecycle) OnMount(h Hook) {
	l.mu.Lock()
	l.onMount = append(l.onMount, h)
	l.mu.Unlock()
}

// OnUpdate registers a hook to run on every Update while mounted.
func (l *Lifecycle) OnUpdate(h Hook) {
	l.mu.Lock()
	l.onUpdate = append(l.onUpdate, h)
	l.mu.Unlock()
}

// OnDestroy registers a hook to run after cleanups on Destroy.
func (l *Lifecycle) OnDestroy(h Hook) {
	l.mu.Lock()
	l.onDestroy = append(l.onDestroy, h)
	l.mu.Unlock()
}

// OnCleanup registers a cleanup. Cleanups run on Destroy in reverse
// registration order. If the component is already destroyed, h runs now.
func (l *Lifecycle) OnCleanup(h Hook) {
	l.mu.Lock()
	if l.phase == PhaseDestroyed {
		l.mu.Unlock()
		h()
		return
	}
	l.cleanups = append(l.cleanups, h)
	l.mu.Unlock()
}

// Mount moves the component to PhaseMounted and runs mount hooks once.
func (l *Lifecycle) Mount() {
	l.mu.Lock()
	if l.phase != PhaseCreated {
		l.mu.Unlock()
		return
	}
	l.phase = PhaseMounted
	hooks := copyHooks(l.onMount)
	l.mu.Unlock()

	run(hooks)
}

// Update runs update hooks if the component is mounted.
func (l *Lifecycle) Update() {
	l.mu.Lock()
	if l.phase != PhaseMounted {
		l.mu.Unlock()
		return
	}
	hooks := copyHooks(l.onUpdate)
	l.mu.Unlock()

	run(hooks)
}

// Destroy runs cleanups then destroy hooks, once.
func (l *Lifecycle) Destroy() {
	l.mu.Lock()
	if l.phase == PhaseDestroyed {
		l.mu.Unlock()
		return
	}
	l.phase = PhaseDestroyed
	cleanups := l.cleanups
	hooks := copyHooks(l.onDestroy)
	l.cleanups = nil
	l.onMount, l.onUpdate, l.onDestroy = nil, nil, nil
	l.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		if cleanups[i] != nil {
			cleanups[i]()
		}
	}
	run(hooks)
}

// Aware is implemented by components that expose their lifecycle.
type Aware interface {
	Lifecycle() *Lifecycle
}

// Mount mounts children before their parent, depth-first.
func Mount(parent Aware, children ...Aware) {
	for _, c := range children {
		c.Lifecycle().Mount()
	}
	parent.Lifecycle().Mount()
}

// Destroy destroys the parent before its children.
func Destroy(parent Aware, children ...Aware) {
	parent.Lifecycle().Destroy()
	for _, c := range children {
		c.Lifecycle().Destroy()
	}
}

func copyHooks(h []Hook) []Hook {
	out := make([]Hook, len(h))
	copy(out, h)
	return out
}

func run(hooks []Hook) {
	for _, h := range hooks {
		if h != nil {
			h()
		}
	}
}
