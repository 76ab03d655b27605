package server

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/aydenstechdungeon/qpick/checkout"
	"github.com/aydenstechdungeon/qpick/schedule"
	"github.com/aydenstechdungeon/qpick/scroll"
	"github.com/aydenstechdungeon/qpick/state"
	"github.com/aydenstechdungeon/qpick/ui"
)

const loopQueue = 64

// handleSocket runs one page's live checkout. Every event, timer and render
// for the connection runs on its own schedule.Loop, so the sidebar and its
// dialog never see concurrent calls.
func (s *Server) handleSocket(conn *websocket.Conn) {
	sessionID, _ := conn.Locals(localsSession).(string)
	locale, _ := conn.Locals(localsLocale).(string)
	if locale == "" {
		locale = s.bundle.Locale()
	}

	client := newClient(uuid.NewString(), sessionID, conn)
	s.hub.register(client)
	defer s.hub.unregister(client)

	sess, err := s.shop.Open(context.Background(), sessionID)
	if err != nil {
		s.logger.Error("open session", "session", sessionID, "error", err)
		client.SendError("session storage unavailable")
		client.Close()
		client.writePump()
		return
	}
	defer sess.Close()

	loop := schedule.NewLoop(loopQueue)
	defer loop.Close()

	locker := scroll.NewLocker()
	send := func(msg Message) {
		if err := client.SendJSON(msg); err != nil {
			s.logger.Warn("frame not delivered", "session", sessionID, "client", client.ID, "type", msg.Type, "error", err)
		}
	}

	locker.OnChange(func(locked bool) {
		send(Message{Type: "scroll", Locked: &locked})
	})

	nav := checkout.NavigatorFunc(func(path string) {
		send(Message{Type: "navigate", Path: path})
	})

	var sidebar *checkout.Sidebar
	if err := loop.Do(func() {
		sidebar = s.newSidebar(sess, locale, loop, locker, nav)
	}); err != nil {
		return
	}

	var renderQueued atomic.Bool
	render := func() {
		html, err := ui.Render(context.Background(), sidebar.View())
		if err != nil {
			s.logger.Error("render sidebar", "session", sessionID, "error", err)
			return
		}
		send(Message{Type: "render", HTML: html})
	}
	queueRender := func() {
		if !renderQueued.CompareAndSwap(false, true) {
			return
		}
		_ = loop.Post(func() {
			renderQueued.Store(false)
			render()
		})
	}

	// Renders once now and again after any change the view depends on.
	deps := append(sidebar.Observables(), sess.Observables()...)
	rerender := state.NewEffect(func() state.CleanupFunc {
		queueRender()
		return nil
	}, deps...)
	defer func() {
		rerender.Dispose()
		_ = loop.Do(sidebar.Dispose)
	}()

	go client.writePump()

	client.readPump(func(msg Message) {
		if msg.Type != "event" {
			return
		}
		component, target, ok := splitTarget(msg.Target)
		if !ok {
			client.SendError("invalid event target")
			return
		}
		_ = loop.Post(func() {
			handled, err := sidebar.Dispatch(component, target, msg.Y)
			if err != nil {
				s.logger.Error("checkout clear failed", "session", sessionID, "error", err)
			}
			if !handled {
				s.logger.Debug("unhandled event", "session", sessionID, "target", msg.Target)
			}
		})
	})
}

// splitTarget splits "checkout-confirm.overlay" into its component and
// target at the last dot.
func splitTarget(handler string) (component, target string, ok bool) {
	i := strings.LastIndexByte(handler, '.')
	if i <= 0 || i == len(handler)-1 {
		return "", "", false
	}
	return handler[:i], handler[i+1:], true
}
