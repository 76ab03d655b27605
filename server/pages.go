package server

import (
	"strconv"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"

	"github.com/aydenstechdungeon/qpick/checkout"
	"github.com/aydenstechdungeon/qpick/i18n"
	"github.com/aydenstechdungeon/qpick/money"
	"github.com/aydenstechdungeon/qpick/schedule"
	"github.com/aydenstechdungeon/qpick/scroll"
	"github.com/aydenstechdungeon/qpick/ui"
)

const (
	// CheckoutPath is the checkout page.
	CheckoutPath = "/qpick/checkout"
	// WebSocketPath is the session event channel.
	WebSocketPath = "/_qpick/ws"
	// AssetPrefix serves the embedded runtime and stylesheet.
	AssetPrefix = "/_qpick"
)

type pageData struct {
	title   string
	locale  string
	t       i18n.Translator
	cartQty int
}

func (s *Server) layout(p pageData, body ...templ.Component) templ.Component {
	return ui.Group(
		templ.Raw("<!DOCTYPE html>"),
		ui.Tag("html", templ.Attributes{"lang": p.locale},
			ui.Tag("head", nil,
				ui.Void("meta", templ.Attributes{"charset": "utf-8"}),
				ui.Void("meta", templ.Attributes{"name": "viewport", "content": "width=device-width, initial-scale=1"}),
				ui.Tag("title", nil, ui.Text(p.title)),
				ui.Void("link", templ.Attributes{"rel": "stylesheet", "href": s.assetURL("qpick.css")}),
			),
			ui.Tag("body", nil,
				ui.Tag("header", templ.Attributes{"class": "qp-header"},
					ui.Tag("a", ui.Merge(templ.Attributes{"href": s.cfg.CatalogPath}, ui.Navigate(s.cfg.CatalogPath)),
						ui.Text("QPICK")),
					ui.Tag("a", templ.Attributes{"href": CheckoutPath, "class": "qp-header__cart"},
						ui.Textf("%s (%d)", p.t.T("cart"), p.cartQty)),
				),
				ui.Tag("main", templ.Attributes{"class": "qp-main"}, body...),
				ui.Tag("script", templ.Attributes{"src": s.assetURL("runtime.js"), "defer": true}),
			),
		),
	)
}

func (s *Server) assetURL(name string) string {
	if h, ok := s.assetHashes[name]; ok {
		return AssetPrefix + "/" + name + "?v=" + h
	}
	return AssetPrefix + "/" + name
}

func cartQuantity(o checkout.Order) int {
	n := 0
	for _, p := range o.Products {
		n += p.Quantity
	}
	return n
}

func (s *Server) handleCatalog(c *fiber.Ctx) error {
	sess, err := s.openSession(c)
	if err != nil {
		return err
	}
	defer sess.Close()

	locale := s.locale(c)
	t := s.bundle.For(locale)
	f := money.NewFormatter(locale)

	cards := make([]templ.Component, 0)
	for _, p := range s.shop.Catalog().Products() {
		cards = append(cards, ui.Tag("article", templ.Attributes{"class": "qp-card", "data-product": p.ID},
			ui.Tag("h3", nil, ui.Text(p.Title)),
			ui.Tag("p", templ.Attributes{"class": "qp-card__price"}, ui.Text(f.Format(p.Price))),
			ui.Tag("button", templ.Attributes{
				"type":        "button",
				"class":       ui.ButtonClasses(ui.ButtonProps{Variant: ui.ButtonSecondary}),
				"data-api":    "/api/cart/" + p.ID,
				"data-method": fiber.MethodPost,
				"data-reload": true,
			}, ui.Text(t.T("addToCart"))),
		))
	}

	page := s.layout(pageData{
		title:   t.T("catalog"),
		locale:  locale,
		t:       t,
		cartQty: cartQuantity(sess.Order()),
	},
		ui.Tag("h1", nil, ui.Text(t.T("catalog"))),
		ui.Tag("section", templ.Attributes{"class": "qp-grid"}, cards...),
	)
	return s.sendHTML(c, page)
}

func (s *Server) handleCheckout(c *fiber.Ctx) error {
	sess, err := s.openSession(c)
	if err != nil {
		return err
	}
	defer sess.Close()

	locale := s.locale(c)
	t := s.bundle.For(locale)
	f := money.NewFormatter(locale)
	order := sess.Order()

	// A throwaway sidebar renders the first frame; the websocket session owns
	// the live one.
	sidebar := s.newSidebar(sess, locale, schedule.NewManual(), scroll.NewLocker(), nil)
	defer sidebar.Dispose()

	lines := make([]templ.Component, 0, len(order.Products))
	for _, p := range order.Products {
		lines = append(lines, ui.Tag("li", templ.Attributes{"class": "qp-card", "data-product": p.ID},
			ui.Tag("span", nil, ui.Text(p.Title)),
			ui.Tag("span", nil, ui.Text(" × "+strconv.Itoa(p.Quantity)+" ")),
			ui.Tag("strong", nil, ui.Text(f.Format(p.Price*money.Amount(p.Quantity)))),
		))
	}
	var cart templ.Component
	if len(lines) == 0 {
		cart = ui.Tag("p", nil, ui.Text(t.T("emptyCart")))
	} else {
		cart = ui.Tag("ul", templ.Attributes{"class": "qp-lines"}, lines...)
	}

	delivery := ui.Tag("div", templ.Attributes{"class": "qp-delivery"},
		s.deliveryButton(t, checkout.Delivery, order.Type),
		s.deliveryButton(t, checkout.Pickup, order.Type),
	)

	page := s.layout(pageData{
		title:   t.T("cart"),
		locale:  locale,
		t:       t,
		cartQty: cartQuantity(order),
	},
		ui.Tag("h1", nil, ui.Text(t.T("cart"))),
		ui.Tag("div", templ.Attributes{"class": "qp-checkout"},
			ui.Tag("section", nil, cart, delivery),
			ui.Tag("div", templ.Attributes{
				"data-qpick-root": true,
				"data-qpick-ws":   WebSocketPath,
			}, sidebar.View()),
		),
	)
	return s.sendHTML(c, page)
}

func (s *Server) deliveryButton(t i18n.Translator, typ, current checkout.DeliveryType) templ.Component {
	variant := ui.ButtonGhost
	if typ == current {
		variant = ui.ButtonSecondary
	}
	label := t.T("delivery")
	if typ == checkout.Pickup {
		label = t.T("pickup")
	}
	return ui.Tag("button", templ.Attributes{
		"type":        "button",
		"class":       ui.ButtonClasses(ui.ButtonProps{Variant: variant}),
		"data-api":    "/api/delivery/" + string(typ),
		"data-method": fiber.MethodPut,
		"data-reload": true,
	}, ui.Text(label))
}

func (s *Server) sendHTML(c *fiber.Ctx, page templ.Component) error {
	html, err := ui.Render(c.UserContext(), page)
	if err != nil {
		return Internal(err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(html)
}

func errorPage(appErr *AppError, devMode bool) templ.Component {
	var stack templ.Component
	if devMode && appErr.Stack != "" {
		stack = ui.Tag("pre", templ.Attributes{"class": "qp-error__stack"}, ui.Text(appErr.Stack))
	}
	return ui.Group(
		templ.Raw("<!DOCTYPE html>"),
		ui.Tag("html", templ.Attributes{"lang": "en"},
			ui.Tag("head", nil,
				ui.Void("meta", templ.Attributes{"charset": "utf-8"}),
				ui.Tag("title", nil, ui.Text("Error - "+string(appErr.Code))),
			),
			ui.Tag("body", templ.Attributes{"class": "qp-error"},
				ui.Tag("h1", nil, ui.Text(string(appErr.Code))),
				ui.Tag("p", nil, ui.Text(appErr.Message)),
				ui.Tag("a", templ.Attributes{"href": "/"}, ui.Text("Go Home")),
				stack,
			),
		),
	)
}
