// Package modal implements the overlay dialog used across the storefront.
//
// A Modal is controlled by its owner through Props.Open and reports close
// requests through Props.OnClose. Closing is animated: the content is hidden
// at once, and OnClose fires CloseDelay later so the exit animation can play
// before the owner unmounts the dialog. While open, the modal holds a page
// scroll lock.
package modal

import (
	"time"

	"github.com/aydenstechdungeon/qpick/component"
	"github.com/aydenstechdungeon/qpick/i18n"
	"github.com/aydenstechdungeon/qpick/schedule"
	"github.com/aydenstechdungeon/qpick/scroll"
	"github.com/aydenstechdungeon/qpick/state"
)

const (
	// CloseDelay is the exit animation window between a close request and OnClose.
	CloseDelay = 300 * time.Millisecond
	// SwipeThreshold is the downward distance a swipe must exceed to close.
	SwipeThreshold = 100.0
	// DefaultZIndex is used when Props.ZIndex is zero.
	DefaultZIndex = 1
)

// Phase is the animation phase of a modal.
type Phase int

const (
	Closed Phase = iota
	Opening
	Open
	Closing
)

func (p Phase) String() string {
	switch p {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// Props are the inputs a modal's owner controls.
type Props struct {
	// Open is the requested state.
	Open bool
	// OnClose is called when the user dismisses the modal. Without it every
	// close affordance is inert.
	OnClose func()
	// CloseIcon enables the close button and the swipe strip.
	CloseIcon bool
	// Title is reserved; it is not rendered.
	Title string
	// ZIndex of the overlay, DefaultZIndex when zero.
	ZIndex int
	// StyleContent and StyleWrapper are inline style overrides.
	StyleContent map[string]string
	StyleWrapper map[string]string
}

// Option configures a Modal.
type Option func(*Modal)

// WithCloseDelay overrides CloseDelay.
func WithCloseDelay(d time.Duration) Option {
	return func(m *Modal) {
		if d >= 0 {
			m.closeDelay = d
		}
	}
}

// WithTranslator sets the translator for the close button label.
func WithTranslator(t i18n.Translator) Option {
	return func(m *Modal) {
		if t != nil {
			m.t = t
		}
	}
}

// WithID sets the DOM id of the overlay.
func WithID(id string) Option {
	return func(m *Modal) {
		m.id = id
	}
}

// Modal is one dialog instance. All methods must be called from the
// scheduler's event loop.
type Modal struct {
	id         string
	props      Props
	sched      schedule.Scheduler
	locker     *scroll.Locker
	lc         *component.Lifecycle
	t          i18n.Translator
	closeDelay time.Duration

	requestedOpen *state.Rune[bool]
	visible       *state.Rune[bool]
	phase         *state.Rune[Phase]

	touchStartY float64
	touching    bool

	lock    *scroll.Lock
	opened  *schedule.Task
	closing *schedule.Task
}

// New mounts a modal. If props.Open is already set the modal opens at once.
func New(props Props, sched schedule.Scheduler, locker *scroll.Locker, opts ...Option) *Modal {
	m := &Modal{
		id:            "modal",
		sched:         sched,
		locker:        locker,
		lc:            component.NewLifecycle(),
		t:             i18n.Keys,
		closeDelay:    CloseDelay,
		requestedOpen: state.NewRune(false),
		visible:       state.NewRune(false),
		phase:         state.NewRune(Closed),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.lc.OnCleanup(m.release)
	m.lc.OnCleanup(func() {
		m.opened.Cancel()
		m.closing.Cancel()
	})
	m.lc.Mount()

	m.Update(props)
	return m
}

// Lifecycle implements component.Aware.
func (m *Modal) Lifecycle() *component.Lifecycle {
	return m.lc
}

// ID returns the DOM id of the overlay.
func (m *Modal) ID() string {
	return m.id
}

// Props returns the current props.
func (m *Modal) Props() Props {
	return m.props
}

// Update replaces the props and applies an Open transition if there is one.
func (m *Modal) Update(props Props) {
	if !m.lc.IsMounted() {
		return
	}
	if props.ZIndex == 0 {
		props.ZIndex = DefaultZIndex
	}
	m.props = props
	m.SetOpen(props.Open)
	m.lc.Update()
}

// SetOpen applies the owner's requested state.
func (m *Modal) SetOpen(open bool) {
	if !m.lc.IsMounted() {
		return
	}
	m.props.Open = open
	if open == m.requestedOpen.Get() {
		return
	}
	if open {
		m.open()
	} else {
		m.unmount()
	}
}

func (m *Modal) open() {
	// A reopen supersedes a close still waiting on its animation.
	m.closing.Cancel()
	m.closing = nil

	if m.lock == nil {
		m.lock = m.locker.Acquire()
	}
	m.requestedOpen.Set(true)
	m.visible.Set(true)
	m.phase.Set(Opening)

	m.opened.Cancel()
	m.opened = m.sched.After(m.closeDelay, func() {
		m.opened = nil
		if m.phase.Get() == Opening {
			m.phase.Set(Open)
		}
	})
}

// unmount handles Open going false: nothing is rendered from here on. A close
// already in flight still delivers its OnClose.
func (m *Modal) unmount() {
	m.opened.Cancel()
	m.opened = nil
	m.touching = false

	m.requestedOpen.Set(false)
	m.visible.Set(false)
	if m.closing == nil {
		m.phase.Set(Closed)
		m.release()
	}
}

func (m *Modal) release() {
	if m.lock != nil {
		m.lock.Release()
		m.lock = nil
	}
}

// Close starts the close animation and schedules OnClose. It is a no-op when
// OnClose is nil, when nothing is rendered, or when a close is already pending.
func (m *Modal) Close() {
	if m.props.OnClose == nil || !m.requestedOpen.Get() || m.closing != nil {
		return
	}
	m.opened.Cancel()
	m.opened = nil

	m.visible.Set(false)
	m.phase.Set(Closing)

	onClose := m.props.OnClose
	m.closing = m.sched.After(m.closeDelay, func() {
		m.closing = nil
		m.phase.Set(Closed)
		onClose()
		m.release()
	})
}

// PressOverlay handles a press on the background outside the content.
func (m *Modal) PressOverlay() {
	m.Close()
}

// PressContent handles a press inside the content. It never closes.
func (m *Modal) PressContent() {}

// PressCloseButton handles the close button.
func (m *Modal) PressCloseButton() {
	if !m.props.CloseIcon {
		return
	}
	m.Close()
}

// TouchStart records the start of a gesture on the swipe strip.
func (m *Modal) TouchStart(y float64) {
	if !m.props.CloseIcon || !m.requestedOpen.Get() {
		return
	}
	m.touchStartY = y
	m.touching = true
}

// TouchEnd completes a gesture. A downward swipe longer than SwipeThreshold
// closes the modal.
func (m *Modal) TouchEnd(y float64) {
	if !m.touching {
		return
	}
	m.touching = false
	if y-m.touchStartY > SwipeThreshold {
		m.Close()
	}
}

// Rendered reports whether the modal produces any output.
func (m *Modal) Rendered() bool {
	return m.requestedOpen.Get()
}

// Visible reports the animation flag: true while shown, false while closing.
func (m *Modal) Visible() bool {
	return m.visible.Get()
}

// Phase returns the current animation phase.
func (m *Modal) Phase() Phase {
	return m.phase.Get()
}

// ClosePending reports whether OnClose is scheduled.
func (m *Modal) ClosePending() bool {
	return m.closing.Pending()
}

// Observables returns the reactive values views depend on.
func (m *Modal) Observables() []state.Observable {
	return []state.Observable{m.requestedOpen, m.visible, m.phase}
}

// Dispose unmounts the modal, canceling a pending close and releasing the
// scroll lock. OnClose is not called.
func (m *Modal) Dispose() {
	m.lc.Destroy()
}
