package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aydenstechdungeon/qpick/checkout"
	"github.com/aydenstechdungeon/qpick/i18n"
	"github.com/aydenstechdungeon/qpick/modal"
	"github.com/aydenstechdungeon/qpick/shop"
	"github.com/aydenstechdungeon/qpick/store"
)

func newModel(t *testing.T) *Model {
	t.Helper()
	storage := store.NewMemoryStorage(time.Minute)
	t.Cleanup(func() { _ = storage.Close() })

	st := shop.New(storage, store.NewMemoryPubSub())
	sess, err := st.Open(context.Background(), "tui")
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	bundle, err := i18n.New("en")
	require.NoError(t, err)
	return New(sess, st.Catalog(), bundle.For("en"), "en",
		WithTick(100*time.Millisecond),
		WithCloseDelay(300*time.Millisecond),
	)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		m.Update(key(k))
	}
}

func tick(m *Model, n int) {
	for i := 0; i < n; i++ {
		m.Update(tickMsg(time.Now()))
	}
}

func TestCartAndTotal(t *testing.T) {
	m := newModel(t)
	assert.Contains(t, m.View(), "Your cart is empty")

	press(m, "a")
	view := m.View()
	assert.Contains(t, view, "Apple BYZ S852I × 1")
	assert.Contains(t, view, "Delivery: 1,299 ₽")
	assert.Contains(t, view, "Total: 4,226 ₽")

	press(m, "p")
	view = m.View()
	assert.Contains(t, view, "Pickup: Free")
	assert.Contains(t, view, "Total: 2,927 ₽")
	assert.True(t, m.Sidebar().Purchasable())

	press(m, "r")
	assert.Contains(t, m.View(), "Your cart is empty")
}

func TestBuyBlockedUntilReady(t *testing.T) {
	m := newModel(t)
	press(m, "a", "enter")
	assert.Equal(t, checkout.Idle, m.Sidebar().Flow())
	assert.Contains(t, m.View(), "order is not ready")
}

func TestBuyAndConfirm(t *testing.T) {
	m := newModel(t)
	press(m, "a", "p", "enter")

	assert.Equal(t, checkout.ConfirmPending, m.Sidebar().Flow())
	view := m.View()
	assert.Contains(t, view, "Thank you for your order!")
	assert.Contains(t, view, "[scroll locked]")

	before := m.Sidebar()
	press(m, "y")

	assert.Equal(t, "/qpick/catalog", m.Location())
	assert.NotSame(t, before, m.Sidebar(), "navigation mounts a fresh sidebar")
	assert.Equal(t, checkout.Completed, before.Flow())
	assert.Equal(t, checkout.Idle, m.Sidebar().Flow())

	view = m.View()
	assert.Contains(t, view, "Your cart is empty")
	assert.NotContains(t, view, "Thank you for your order!")
	assert.NotContains(t, view, "[scroll locked]")
}

func TestDismissWaitsForCloseDelay(t *testing.T) {
	for _, k := range []string{"esc", "x", "s", "n"} {
		t.Run(k, func(t *testing.T) {
			m := newModel(t)
			press(m, "a", "p", "enter", k)

			dialog := m.Sidebar().Modal()
			assert.Equal(t, modal.Closing, dialog.Phase())
			assert.Equal(t, checkout.ConfirmPending, m.Sidebar().Flow())

			tick(m, 2)
			assert.True(t, dialog.Rendered(), "still animating")

			tick(m, 1)
			assert.False(t, dialog.Rendered())
			assert.Equal(t, checkout.Idle, m.Sidebar().Flow())
			assert.NotContains(t, m.View(), "[scroll locked]")
			assert.Equal(t, "checkout", m.Location())
		})
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}
