package checkout

import (
	"errors"

	"github.com/aydenstechdungeon/qpick/component"
	"github.com/aydenstechdungeon/qpick/i18n"
	"github.com/aydenstechdungeon/qpick/modal"
	"github.com/aydenstechdungeon/qpick/money"
	"github.com/aydenstechdungeon/qpick/schedule"
	"github.com/aydenstechdungeon/qpick/scroll"
	"github.com/aydenstechdungeon/qpick/state"
)

// DefaultCatalogPath is where the shopper lands after a purchase.
const DefaultCatalogPath = "/qpick/catalog"

// Flow is the confirmation state of the sidebar.
type Flow int

const (
	Idle Flow = iota
	ConfirmPending
	Completed
)

func (f Flow) String() string {
	switch f {
	case Idle:
		return "idle"
	case ConfirmPending:
		return "confirm-pending"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Watchable is implemented by readers that can report changes. The sidebar
// recomputes its total and gate when any of the observables change.
type Watchable interface {
	Observables() []state.Observable
}

// Config holds the sidebar's collaborators.
type Config struct {
	Reader    Reader
	Actions   Actions
	Navigator Navigator
	Scheduler schedule.Scheduler
	Locker    *scroll.Locker

	// Translator labels the view. Defaults to i18n.Keys.
	Translator i18n.Translator
	// Locale selects number formatting. Defaults to "en".
	Locale string
	// CatalogPath defaults to DefaultCatalogPath.
	CatalogPath string
	// ConfirmCloseIcon enables the close button and swipe strip on the
	// confirmation dialog.
	ConfirmCloseIcon bool
	// ModalOptions are passed to the confirmation dialog.
	ModalOptions []modal.Option
}

// Sidebar is the checkout sidebar of one page. Like Modal, all methods must
// be called from the scheduler's event loop.
type Sidebar struct {
	id          string
	reader      Reader
	actions     Actions
	nav         Navigator
	sched       schedule.Scheduler
	t           i18n.Translator
	fmt         *money.Formatter
	catalogPath string

	lc      *component.Lifecycle
	confirm *modal.Modal
	flow    *state.Rune[Flow]
	rev     *state.Rune[uint64]
	total   *state.Derived[money.Amount]
	ready   *state.Derived[bool]

	navTask *schedule.Task
}

// New mounts a sidebar together with its confirmation dialog.
func New(cfg Config) *Sidebar {
	if cfg.Translator == nil {
		cfg.Translator = i18n.Keys
	}
	if cfg.Locale == "" {
		cfg.Locale = "en"
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = DefaultCatalogPath
	}

	s := &Sidebar{
		id:          "checkout",
		reader:      cfg.Reader,
		actions:     cfg.Actions,
		nav:         cfg.Navigator,
		sched:       cfg.Scheduler,
		t:           cfg.Translator,
		fmt:         money.NewFormatter(cfg.Locale),
		catalogPath: cfg.CatalogPath,
		lc:          component.NewLifecycle(),
		flow:        state.NewRune(Idle),
		rev:         state.NewRune(uint64(0)),
	}

	deps := []state.Observable{s.rev}
	if w, ok := cfg.Reader.(Watchable); ok {
		deps = append(deps, w.Observables()...)
	}
	s.total = state.DerivedFrom(func() money.Amount {
		return Total(s.reader.Order())
	}, deps...)
	s.ready = state.DerivedFrom(func() bool {
		return IsPurchasable(s.reader.Order(), s.reader.UserErrors(), s.reader.AddressValid())
	}, deps...)

	opts := append([]modal.Option{
		modal.WithID(s.id + "-confirm"),
		modal.WithTranslator(cfg.Translator),
	}, cfg.ModalOptions...)
	s.confirm = modal.New(modal.Props{
		OnClose:   s.dismiss,
		CloseIcon: cfg.ConfirmCloseIcon,
	}, cfg.Scheduler, cfg.Locker, opts...)

	s.lc.OnCleanup(func() {
		s.navTask.Cancel()
		s.total.Dispose()
		s.ready.Dispose()
	})
	component.Mount(s, s.confirm)
	return s
}

// Lifecycle implements component.Aware.
func (s *Sidebar) Lifecycle() *component.Lifecycle {
	return s.lc
}

// Modal returns the confirmation dialog.
func (s *Sidebar) Modal() *modal.Modal {
	return s.confirm
}

// Flow returns the confirmation state.
func (s *Sidebar) Flow() Flow {
	return s.flow.Get()
}

// Total returns the current order total.
func (s *Sidebar) Total() money.Amount {
	return s.total.Get()
}

// Purchasable reports whether the buy action is enabled.
func (s *Sidebar) Purchasable() bool {
	return s.ready.Get()
}

// Refresh recomputes the total and gate after the reader changed. Readers
// implementing Watchable do not need it.
func (s *Sidebar) Refresh() {
	s.rev.Update(func(v uint64) uint64 { return v + 1 })
}

// Buy opens the confirmation dialog. The gate is not re-checked: the view
// never binds a disabled button.
func (s *Sidebar) Buy() {
	if s.flow.Get() != Idle {
		return
	}
	s.flow.Set(ConfirmPending)
	s.confirm.SetOpen(true)
}

// Confirm completes the purchase: it closes the dialog, schedules navigation
// to the catalog for the next tick, then clears cart, form, user form and
// address. Every clear runs even when another fails; the failures are
// returned joined and nothing is rolled back.
func (s *Sidebar) Confirm() error {
	if s.flow.Get() != ConfirmPending {
		return nil
	}
	s.flow.Set(Completed)
	s.confirm.SetOpen(false)

	path := s.catalogPath
	s.navTask = s.sched.Defer(func() {
		s.navTask = nil
		if s.nav != nil {
			s.nav.Navigate(path)
		}
	})

	err := errors.Join(
		s.actions.ClearCart(),
		s.actions.ClearForm(),
		s.actions.ClearFormUser(),
		s.actions.ClearAddress(),
	)
	s.Refresh()
	return err
}

// Cancel dismisses the dialog through its animated close path.
func (s *Sidebar) Cancel() {
	s.confirm.Close()
}

// dismiss is the dialog's OnClose: the shopper backed out.
func (s *Sidebar) dismiss() {
	if s.flow.Get() == ConfirmPending {
		s.flow.Set(Idle)
	}
	s.confirm.SetOpen(false)
}

// Observables returns everything the sidebar view depends on.
func (s *Sidebar) Observables() []state.Observable {
	return append([]state.Observable{s.flow, s.total, s.ready}, s.confirm.Observables()...)
}

// Dispose unmounts the sidebar and its dialog and cancels a pending
// navigation.
func (s *Sidebar) Dispose() {
	component.Destroy(s, s.confirm)
}
