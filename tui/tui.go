// Package tui is a terminal front end for a shopper session: the cart, the
// checkout sidebar and its confirmation dialog, driven from the keyboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aydenstechdungeon/qpick/checkout"
	"github.com/aydenstechdungeon/qpick/i18n"
	"github.com/aydenstechdungeon/qpick/modal"
	"github.com/aydenstechdungeon/qpick/money"
	"github.com/aydenstechdungeon/qpick/schedule"
	"github.com/aydenstechdungeon/qpick/scroll"
	"github.com/aydenstechdungeon/qpick/shop"
)

// DefaultTick is how often the dialog timers advance.
const DefaultTick = 50 * time.Millisecond

type tickMsg time.Time

// Option configures a Model.
type Option func(*Model)

// WithTick changes the timer resolution.
func WithTick(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.tick = d
		}
	}
}

// WithCatalogPath sets where a completed purchase navigates.
func WithCatalogPath(path string) Option {
	return func(m *Model) { m.catalogPath = path }
}

// WithCloseDelay sets the dialog's close animation length.
func WithCloseDelay(d time.Duration) Option {
	return func(m *Model) { m.closeDelay = d }
}

// Model is the bubbletea model. Dialog timers run on a manual scheduler that
// each tick advances, so every callback runs inside Update.
type Model struct {
	sess    *shop.Session
	catalog *shop.Catalog
	t       i18n.Translator
	locale  string
	fmt     *money.Formatter

	sched   *schedule.Manual
	locker  *scroll.Locker
	sidebar *checkout.Sidebar

	tick        time.Duration
	catalogPath string
	closeDelay  time.Duration

	next      int
	navigated string
	location  string
	status    string
	err       error
}

// New builds a model for sess.
func New(sess *shop.Session, catalog *shop.Catalog, t i18n.Translator, locale string, opts ...Option) *Model {
	m := &Model{
		sess:        sess,
		catalog:     catalog,
		t:           t,
		locale:      locale,
		fmt:         money.NewFormatter(locale),
		sched:       schedule.NewManual(),
		locker:      scroll.NewLocker(),
		tick:        DefaultTick,
		catalogPath: checkout.DefaultCatalogPath,
		closeDelay:  modal.CloseDelay,
		location:    "checkout",
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sidebar = m.newSidebar()
	return m
}

func (m *Model) newSidebar() *checkout.Sidebar {
	return checkout.New(checkout.Config{
		Reader:           m.sess,
		Actions:          m.sess,
		Navigator:        checkout.NavigatorFunc(func(path string) { m.navigated = path }),
		Scheduler:        m.sched,
		Locker:           m.locker,
		Translator:       m.t,
		Locale:           m.locale,
		CatalogPath:      m.catalogPath,
		ConfirmCloseIcon: true,
		ModalOptions:     []modal.Option{modal.WithCloseDelay(m.closeDelay)},
	})
}

// Sidebar returns the live checkout sidebar.
func (m *Model) Sidebar() *checkout.Sidebar {
	return m.sidebar
}

// Location is the last page a completed purchase navigated to.
func (m *Model) Location() string {
	return m.location
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.tickCmd()
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.sched.Advance(m.tick)
		m.afterNavigate()
		return m, m.tickCmd()
	case tea.KeyMsg:
		if m.handleKey(msg.String()) {
			m.sidebar.Dispose()
			return m, tea.Quit
		}
		// Deferred work such as navigation is due on the next turn.
		m.sched.Flush()
		m.afterNavigate()
	}
	return m, nil
}

// handleKey applies one key press and reports whether to quit.
func (m *Model) handleKey(key string) bool {
	dialog := m.sidebar.Modal()
	m.status = ""

	switch key {
	case "ctrl+c", "q":
		return true
	case "a":
		products := m.catalog.Products()
		if len(products) > 0 {
			p := products[m.next%len(products)]
			m.next++
			m.setErr(m.sess.AddProduct(p.ID))
		}
	case "r":
		if lines := m.sess.Order().Products; len(lines) > 0 {
			m.setErr(m.sess.RemoveProduct(lines[len(lines)-1].ID))
		}
	case "p":
		m.setErr(m.sess.SetDeliveryType(checkout.Pickup))
		if len(m.sess.Order().Pickup) == 0 {
			m.setErr(m.sess.SetPickup(shop.PickupPoints()[0]))
		}
	case "d":
		m.setErr(m.sess.SetDeliveryType(checkout.Delivery))
	case "enter", "b":
		if !m.sidebar.Purchasable() {
			m.status = "order is not ready"
			return false
		}
		m.sidebar.Buy()
	case "y":
		if dialog.Rendered() {
			m.setErr(m.sidebar.Confirm())
		}
	case "n":
		m.sidebar.Cancel()
	case "esc":
		dialog.PressOverlay()
	case "x":
		dialog.PressCloseButton()
	case "s":
		dialog.TouchStart(0)
		dialog.TouchEnd(modal.SwipeThreshold + 1)
	}
	return false
}

func (m *Model) setErr(err error) {
	if err != nil {
		m.err = err
	}
}

// afterNavigate swaps in a fresh sidebar once a purchase has navigated away,
// the way a page load would.
func (m *Model) afterNavigate() {
	if m.navigated == "" {
		return
	}
	m.location = m.navigated
	m.status = "→ " + m.navigated
	m.navigated = ""
	m.sidebar.Dispose()
	m.sidebar = m.newSidebar()
}

// View implements tea.Model.
func (m *Model) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("QPICK") + "  " + mutedStyle.Render(m.location))
	if m.locker.Locked() {
		sb.WriteString(mutedStyle.Render("  [scroll locked]"))
	}
	sb.WriteString("\n\n")

	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.cartView(), " ", m.sidebarView()))
	sb.WriteString("\n")

	if dialog := m.dialogView(); dialog != "" {
		sb.WriteString("\n" + dialog + "\n")
	}
	if m.status != "" {
		sb.WriteString("\n" + mutedStyle.Render(m.status))
	}
	if m.err != nil {
		sb.WriteString("\n" + errorStyle.Render(m.err.Error()))
	}
	sb.WriteString("\n" + mutedStyle.Render("a add · r remove · p pickup · d delivery · enter buy · q quit"))
	return sb.String()
}

func (m *Model) cartView() string {
	order := m.sess.Order()
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.t.T("cart")) + "\n")
	if len(order.Products) == 0 {
		sb.WriteString(mutedStyle.Render(m.t.T("emptyCart")))
	}
	for _, p := range order.Products {
		fmt.Fprintf(&sb, "%s × %d  %s\n", p.Title, p.Quantity, m.fmt.Format(p.Price*money.Amount(p.Quantity)))
	}
	return panelStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func (m *Model) sidebarView() string {
	order := m.sess.Order()
	delivery, value := m.t.T("delivery"), m.t.T("free")
	if order.Type == checkout.Pickup {
		delivery = m.t.T("pickup")
	}
	if s := checkout.Surcharge(order); s > 0 {
		value = m.fmt.Format(s)
	}

	button := buttonDisabledStyle
	if m.sidebar.Purchasable() {
		button = buttonStyle
	}
	return panelStyle.Render(strings.Join([]string{
		delivery + ": " + value,
		titleStyle.Render(m.t.T("total") + ": " + m.fmt.Format(m.sidebar.Total())),
		"",
		button.Render(m.t.T("buyAll")),
	}, "\n"))
}

func (m *Model) dialogView() string {
	dialog := m.sidebar.Modal()
	if !dialog.Rendered() {
		return ""
	}
	style := dialogStyle
	if dialog.Phase() == modal.Closing {
		style = dialogClosingStyle
	}
	body := strings.Join([]string{
		titleStyle.Render(m.t.T("checkoutEnd.title")) + "   " + mutedStyle.Render("[x] "+m.t.T("close")),
		"",
		m.t.T("checkoutEnd.text"),
		"",
		buttonStyle.Render("[y] "+m.t.T("checkoutEnd.ok")) + "  " + buttonDisabledStyle.Render("[n] "+m.t.T("checkoutEnd.cancel")),
	}, "\n")
	return style.Render(body)
}

// Run starts the program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, m *Model) error {
	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
