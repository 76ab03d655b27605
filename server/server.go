// Package server is the qpick web front end: storefront pages, the JSON API
// and the websocket channel that drives each page's checkout sidebar.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/aydenstechdungeon/qpick/checkout"
	"github.com/aydenstechdungeon/qpick/config"
	"github.com/aydenstechdungeon/qpick/embed"
	"github.com/aydenstechdungeon/qpick/i18n"
	"github.com/aydenstechdungeon/qpick/modal"
	"github.com/aydenstechdungeon/qpick/schedule"
	"github.com/aydenstechdungeon/qpick/scroll"
	"github.com/aydenstechdungeon/qpick/shop"
)

const (
	localsSession = "qpick.session"
	localsLocale  = "qpick.locale"
	localeCookie  = "qpick_locale"
)

// Server wires the shop store, translations and session cookies into a
// fiber app.
type Server struct {
	cfg      config.Config
	app      *fiber.App
	shop     *shop.Store
	bundle   *i18n.Bundle
	sessions *Sessions
	hub      *Hub
	logger   *slog.Logger

	assetHashes map[string]string
}

// New builds the server and registers every route.
func New(cfg config.Config, store *shop.Store, bundle *i18n.Bundle, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:         cfg,
		shop:        store,
		bundle:      bundle,
		sessions:    NewSessions([]byte(cfg.SessionSecret), cfg.StateTTL),
		hub:         NewHub(logger),
		logger:      logger,
		assetHashes: make(map[string]string),
	}
	for _, name := range []string{embed.RuntimeJS, embed.Stylesheet} {
		if h, err := embed.Hash(name); err == nil {
			s.assetHashes[name] = h
		}
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "qpick",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          ErrorHandler(logger, cfg.DevMode),
	})
	s.routes()
	return s
}

func (s *Server) routes() {
	app := s.app
	app.Use(RecoveryMiddleware(s.logger, s.cfg.DevMode))
	app.Use(RequestLogger(s.logger))
	app.Use(SecurityHeaders())
	isSocket := func(c *fiber.Ctx) bool { return c.Path() == WebSocketPath }
	compression := DefaultCompressionConfig()
	compression.Skip = isSocket
	app.Use(Compression(compression))

	app.Use(AssetPrefix, filesystem.New(filesystem.Config{
		Next:   isSocket,
		Root:   http.FS(embed.FS()),
		MaxAge: 3600,
	}))

	app.Use(s.sessions.Middleware(localsSession))
	app.Use(s.localeMiddleware)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(s.cfg.CatalogPath, fiber.StatusFound)
	})
	app.Get(s.cfg.CatalogPath, s.handleCatalog)
	app.Get(CheckoutPath, s.handleCheckout)

	api := app.Group("/api")
	api.Get("/state", s.apiState)
	api.Get("/total", s.apiTotal)
	api.Post("/cart/:id", s.apiAddProduct)
	api.Put("/cart/:id", s.apiSetQuantity)
	api.Delete("/cart/:id", s.apiRemoveProduct)
	api.Put("/delivery/:type", s.apiSetDelivery)
	api.Put("/pickup", s.apiSetPickup)
	api.Put("/user/:field", s.apiSetUserField)
	api.Put("/address", s.apiSetAddress)
	api.Put("/form", s.apiSetForm)
	api.Put("/locale/:locale", s.apiSetLocale)

	app.Use(WebSocketPath, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	app.Get(WebSocketPath, websocket.New(s.handleSocket))

	app.Use(NotFoundHandler())
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Hub returns the websocket connection registry.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Listen serves on the configured address until Shutdown.
func (s *Server) Listen() error {
	s.logger.Info("listening", "addr", s.cfg.Addr)
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown closes websocket sessions and stops accepting requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.CloseAll()
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) localeMiddleware(c *fiber.Ctx) error {
	locale := c.Cookies(localeCookie)
	if !s.knownLocale(locale) {
		locale = s.bundle.Locale()
		for _, tag := range strings.Split(c.Get(fiber.HeaderAcceptLanguage), ",") {
			lang, _, _ := strings.Cut(strings.TrimSpace(tag), ";")
			lang, _, _ = strings.Cut(lang, "-")
			if s.knownLocale(lang) {
				locale = lang
				break
			}
		}
	}
	c.Locals(localsLocale, locale)
	return c.Next()
}

func (s *Server) knownLocale(locale string) bool {
	if locale == "" {
		return false
	}
	for _, l := range s.bundle.Locales() {
		if l == locale {
			return true
		}
	}
	return false
}

func (s *Server) locale(c *fiber.Ctx) string {
	if l, ok := c.Locals(localsLocale).(string); ok && l != "" {
		return l
	}
	return s.bundle.Locale()
}

func (s *Server) sessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsSession).(string)
	return id
}

func (s *Server) openSession(c *fiber.Ctx) (*shop.Session, error) {
	sess, err := s.shop.Open(c.UserContext(), s.sessionID(c))
	if err != nil {
		return nil, NewAppError(ErrorCodeUnavailable, "session storage unavailable", fiber.StatusServiceUnavailable).
			WithDetails(map[string]any{"session": s.sessionID(c)})
	}
	return sess, nil
}

// newSidebar builds the checkout sidebar for one page of a session.
func (s *Server) newSidebar(sess *shop.Session, locale string, sched schedule.Scheduler, locker *scroll.Locker, nav checkout.Navigator) *checkout.Sidebar {
	return checkout.New(checkout.Config{
		Reader:           sess,
		Actions:          sess,
		Navigator:        nav,
		Scheduler:        sched,
		Locker:           locker,
		Translator:       s.bundle.For(locale),
		Locale:           locale,
		CatalogPath:      s.cfg.CatalogPath,
		ConfirmCloseIcon: true,
		ModalOptions:     []modal.Option{modal.WithCloseDelay(s.closeDelay())},
	})
}

func (s *Server) closeDelay() time.Duration {
	if s.cfg.CloseDelay > 0 {
		return s.cfg.CloseDelay
	}
	return modal.CloseDelay
}
