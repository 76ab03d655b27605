package server

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aydenstechdungeon/qpick/checkout"
)

// dialSocket serves h on a local port and opens the checkout socket for
// sessionID.
func dialSocket(t *testing.T, h *harness, sessionID string) *websocket.Conn {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = h.srv.App().Listener(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = h.srv.Shutdown(ctx)
	})

	token, err := h.srv.sessions.Issue(sessionID)
	require.NoError(t, err)
	header := http.Header{}
	header.Set("Cookie", SessionCookie+"="+token)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+WebSocketPath, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads frames until match accepts one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(Message) bool) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func sendEvent(t *testing.T, conn *websocket.Conn, target string, y float64) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Message{Type: "event", Target: target, Y: y}))
}

func isRender(contains string) func(Message) bool {
	return func(m Message) bool { return m.Type == "render" && strings.Contains(m.HTML, contains) }
}

func isScroll(locked bool) func(Message) bool {
	return func(m Message) bool { return m.Type == "scroll" && m.Locked != nil && *m.Locked == locked }
}

func seedPurchasable(t *testing.T, h *harness, id string) {
	t.Helper()
	sess, err := h.shop.Open(context.Background(), id)
	require.NoError(t, err)
	defer sess.Close()
	require.NoError(t, sess.AddProduct("apple-airpods"))
	require.NoError(t, sess.SetDeliveryType(checkout.Pickup))
	require.NoError(t, sess.SetPickup("qpick-store-center"))
}

func TestSocketConfirmPurchase(t *testing.T) {
	h := newHarness(t)
	seedPurchasable(t, h, "ws-buyer")
	conn := dialSocket(t, h, "ws-buyer")

	readUntil(t, conn, isRender("9,527 ₽"))

	sendEvent(t, conn, "checkout.buy", 0)
	readUntil(t, conn, isScroll(true))
	readUntil(t, conn, isRender("qp-modal"))

	sendEvent(t, conn, "checkout.confirm", 0)
	nav := readUntil(t, conn, func(m Message) bool { return m.Type == "navigate" })
	assert.Equal(t, "/qpick/catalog", nav.Path)

	sess, err := h.shop.Open(context.Background(), "ws-buyer")
	require.NoError(t, err)
	defer sess.Close()
	assert.Empty(t, sess.Order().Products, "cart cleared before navigating")
	assert.Equal(t, checkout.Delivery, sess.Order().Type)
}

func TestSocketOverlayDismiss(t *testing.T) {
	h := newHarness(t)
	seedPurchasable(t, h, "ws-browser")
	conn := dialSocket(t, h, "ws-browser")
	readUntil(t, conn, isRender("checkout.buy"))

	sendEvent(t, conn, "checkout.buy", 0)
	readUntil(t, conn, isScroll(true))

	sendEvent(t, conn, "checkout-confirm.overlay", 0)
	readUntil(t, conn, isScroll(false))
	readUntil(t, conn, func(m Message) bool {
		return m.Type == "render" && !strings.Contains(m.HTML, "qp-modal") && strings.Contains(m.HTML, `data-flow="idle"`)
	})

	sess, err := h.shop.Open(context.Background(), "ws-browser")
	require.NoError(t, err)
	defer sess.Close()
	assert.Len(t, sess.Order().Products, 1, "dismissing keeps the cart")
}

func TestSocketRejectsBadTarget(t *testing.T) {
	h := newHarness(t)
	conn := dialSocket(t, h, "ws-bad")
	readUntil(t, conn, func(m Message) bool { return m.Type == "render" })

	sendEvent(t, conn, "nodot", 0)
	msg := readUntil(t, conn, func(m Message) bool { return m.Type == "error" })
	assert.Equal(t, "invalid event target", msg.Error)
}

func TestSocketRendersRemoteChanges(t *testing.T) {
	h := newHarness(t)
	conn := dialSocket(t, h, "ws-remote")
	readUntil(t, conn, func(m Message) bool { return m.Type == "render" })

	require.Eventually(t, func() bool { return h.srv.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, h.srv.Hub().Session("ws-remote"), 1)

	// An API call on another connection of the same session.
	sess, err := h.shop.Open(context.Background(), "ws-remote")
	require.NoError(t, err)
	defer sess.Close()
	require.NoError(t, sess.AddProduct("borofone-bo4"))

	readUntil(t, conn, isRender("8,826 ₽"))
}
