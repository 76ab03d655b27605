package modal

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/aydenstechdungeon/qpick/ui"
)

// Event targets sent by the client runtime for a modal.
const (
	TargetOverlay    = "overlay"
	TargetContent    = "content"
	TargetClose      = "close"
	TargetTouchStart = "touchstart"
	TargetTouchEnd   = "touchend"
)

// Event is a browser event addressed to a modal.
type Event struct {
	Target string
	Y      float64
}

// Dispatch routes a client event to the matching handler. It reports whether
// the target belongs to the modal.
func (m *Modal) Dispatch(ev Event) bool {
	switch ev.Target {
	case TargetOverlay:
		m.PressOverlay()
	case TargetContent:
		m.PressContent()
	case TargetClose:
		m.PressCloseButton()
	case TargetTouchStart:
		m.TouchStart(ev.Y)
	case TargetTouchEnd:
		m.TouchEnd(ev.Y)
	default:
		return false
	}
	return true
}

// View renders the modal around children. It renders nothing while Open is
// false.
func (m *Modal) View(children ...templ.Component) templ.Component {
	if !m.Rendered() {
		return nil
	}

	wrapper := map[string]string{"z-index": strconv.Itoa(m.props.ZIndex)}
	for k, v := range m.props.StyleWrapper {
		wrapper[k] = v
	}

	contentClass := "qp-modal__content"
	if m.Visible() {
		contentClass += " qp-modal__content--visible"
	}
	contentAttrs := ui.Merge(
		templ.Attributes{"class": contentClass},
		ui.On("mousedown", m.action(TargetContent)),
		ui.StopPropagation(),
	)
	if len(m.props.StyleContent) > 0 {
		contentAttrs["style"] = ui.Style(m.props.StyleContent)
	}

	body := make([]templ.Component, 0, len(children)+2)
	if m.props.CloseIcon {
		body = append(body, m.closeButton(), m.swipeStrip())
	}
	body = append(body, children...)

	return ui.Tag("section", ui.Merge(
		templ.Attributes{
			"id":         m.id,
			"class":      "qp-modal",
			"tabindex":   "-1",
			"style":      ui.Style(wrapper),
			"data-phase": m.Phase().String(),
		},
		ui.On("mousedown", m.action(TargetOverlay)),
	),
		ui.Tag("div", contentAttrs, body...),
	)
}

func (m *Modal) closeButton() templ.Component {
	label := m.t.T("close")
	return ui.Tag("button", ui.Merge(
		templ.Attributes{
			"type":  "button",
			"class": "qp-modal__close",
			"title": label,
		},
		ui.On("click", m.action(TargetClose)),
	),
		ui.Void("img", templ.Attributes{"src": "/_qpick/close.svg", "alt": label}),
	)
}

func (m *Modal) swipeStrip() templ.Component {
	return ui.Tag("div", ui.Merge(
		templ.Attributes{"class": "qp-modal__swipe"},
		ui.OnMany(map[string]string{
			"touchstart": m.action(TargetTouchStart),
			"touchend":   m.action(TargetTouchEnd),
		}),
	),
		ui.Tag("div", templ.Attributes{"class": "qp-modal__swipe-line"}),
	)
}

// action names the handler for target, scoped to this modal's id.
func (m *Modal) action(target string) string {
	return m.id + "." + target
}
