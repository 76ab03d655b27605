package checkout

import (
	"github.com/a-h/templ"

	"github.com/aydenstechdungeon/qpick/modal"
	"github.com/aydenstechdungeon/qpick/ui"
)

// Event targets handled by the sidebar itself.
const (
	TargetBuy     = "buy"
	TargetConfirm = "confirm"
	TargetCancel  = "cancel"
)

// ID returns the DOM id of the sidebar.
func (s *Sidebar) ID() string {
	return s.id
}

// Dispatch routes a client event addressed to the sidebar ("checkout.buy")
// or to its dialog ("checkout-confirm.overlay"). It reports whether the
// event was handled, and returns any error from a completed purchase.
func (s *Sidebar) Dispatch(component, target string, y float64) (bool, error) {
	switch component {
	case s.id:
		switch target {
		case TargetBuy:
			s.Buy()
		case TargetConfirm:
			return true, s.Confirm()
		case TargetCancel:
			s.Cancel()
		default:
			return false, nil
		}
		return true, nil
	case s.confirm.ID():
		return s.confirm.Dispatch(modal.Event{Target: target, Y: y}), nil
	}
	return false, nil
}

// View renders the total panel followed by the confirmation dialog.
func (s *Sidebar) View() templ.Component {
	order := s.reader.Order()
	surcharge := Surcharge(order)

	delivery := s.t.T("free")
	if surcharge > 0 {
		delivery = s.fmt.Format(surcharge)
	}
	deliveryLabel := s.t.T("delivery")
	if order.Type == Pickup {
		deliveryLabel = s.t.T("pickup")
	}

	panel := ui.Tag("aside", templ.Attributes{
		"id":        s.id,
		"class":     "qp-sidebar",
		"data-flow": s.Flow().String(),
	},
		ui.Tag("div", templ.Attributes{"class": "qp-sidebar__row"},
			ui.Tag("span", nil, ui.Text(deliveryLabel)),
			ui.Tag("span", nil, ui.Text(delivery)),
		),
		ui.Tag("div", templ.Attributes{"class": "qp-sidebar__total"},
			ui.Tag("span", nil, ui.Text(s.t.T("total"))),
			ui.Tag("strong", nil, ui.Text(s.fmt.Format(s.Total()))),
		),
		ui.Button(ui.ButtonProps{
			Variant:   ui.ButtonPrimary,
			Disabled:  !s.Purchasable(),
			FullWidth: true,
			Action:    s.id + "." + TargetBuy,
		}, ui.Text(s.t.T("buyAll"))),
	)

	return ui.Group(panel, s.confirm.View(s.confirmation()))
}

func (s *Sidebar) confirmation() templ.Component {
	return ui.Tag("div", templ.Attributes{"class": "qp-checkout-end"},
		ui.Tag("h2", nil, ui.Text(s.t.T("checkoutEnd.title"))),
		ui.Tag("p", nil, ui.Text(s.t.T("checkoutEnd.text"))),
		ui.Button(ui.ButtonProps{
			Variant:   ui.ButtonPrimary,
			FullWidth: true,
			Action:    s.id + "." + TargetConfirm,
		}, ui.Text(s.t.T("checkoutEnd.ok"))),
		ui.Button(ui.ButtonProps{
			Variant:   ui.ButtonGhost,
			FullWidth: true,
			Action:    s.id + "." + TargetCancel,
		}, ui.Text(s.t.T("checkoutEnd.cancel"))),
	)
}
