package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/aydenstechdungeon/qpick/checkout"
	"github.com/aydenstechdungeon/qpick/money"
	"github.com/aydenstechdungeon/qpick/shop"
)

type totalResponse struct {
	Subtotal    money.Amount `json:"subtotal"`
	Surcharge   money.Amount `json:"surcharge"`
	Total       money.Amount `json:"total"`
	Formatted   string       `json:"formatted"`
	Purchasable bool         `json:"purchasable"`
}

func (s *Server) withSession(fn func(c *fiber.Ctx, sess *shop.Session) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.openSession(c)
		if err != nil {
			return err
		}
		defer sess.Close()
		return fn(c, sess)
	}
}

func (s *Server) respondState(c *fiber.Ctx, sess *shop.Session, err error) error {
	if err != nil {
		if errors.Is(err, shop.ErrUnknownProduct) {
			return NewAppError(ErrorCodeNotFound, err.Error(), fiber.StatusNotFound)
		}
		return Internal(err)
	}
	return c.JSON(sess.State())
}

func (s *Server) apiState(c *fiber.Ctx) error {
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		return c.JSON(sess.State())
	})(c)
}

func (s *Server) apiTotal(c *fiber.Ctx) error {
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		order := sess.Order()
		total := checkout.Total(order)
		return c.JSON(totalResponse{
			Subtotal:    checkout.Subtotal(order),
			Surcharge:   checkout.Surcharge(order),
			Total:       total,
			Formatted:   money.Format(s.locale(c), total),
			Purchasable: checkout.IsPurchasable(order, sess.UserErrors(), sess.AddressValid()),
		})
	})(c)
}

func (s *Server) apiAddProduct(c *fiber.Ctx) error {
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		return s.respondState(c, sess, sess.AddProduct(c.Params("id")))
	})(c)
}

func (s *Server) apiSetQuantity(c *fiber.Ctx) error {
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil || body.Quantity == nil {
		return ValidationError("quantity", "a whole number is required")
	}
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		return s.respondState(c, sess, sess.SetQuantity(c.Params("id"), *body.Quantity))
	})(c)
}

func (s *Server) apiRemoveProduct(c *fiber.Ctx) error {
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		return s.respondState(c, sess, sess.RemoveProduct(c.Params("id")))
	})(c)
}

func (s *Server) apiSetDelivery(c *fiber.Ctx) error {
	t := checkout.DeliveryType(c.Params("type"))
	if t != checkout.Pickup && t != checkout.Delivery {
		return ValidationError("type", "must be Pickup or Delivery")
	}
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		return s.respondState(c, sess, sess.SetDeliveryType(t))
	})(c)
}

func (s *Server) apiSetPickup(c *fiber.Ctx) error {
	var body struct {
		Points []string `json:"points"`
	}
	if err := c.BodyParser(&body); err != nil {
		return BadRequest("invalid pickup body")
	}
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		return s.respondState(c, sess, sess.SetPickup(body.Points...))
	})(c)
}

func (s *Server) apiSetUserField(c *fiber.Ctx) error {
	var body struct {
		Value string `json:"value"`
	}
	if err := c.BodyParser(&body); err != nil {
		return BadRequest("invalid user field body")
	}
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		return s.respondState(c, sess, sess.SetUserField(c.Params("field"), body.Value))
	})(c)
}

func (s *Server) apiSetAddress(c *fiber.Ctx) error {
	var body shop.Address
	if err := c.BodyParser(&body); err != nil {
		return BadRequest("invalid address body")
	}
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		return s.respondState(c, sess, sess.SetAddress(body))
	})(c)
}

func (s *Server) apiSetForm(c *fiber.Ctx) error {
	var body shop.Form
	if err := c.BodyParser(&body); err != nil {
		return BadRequest("invalid form body")
	}
	return s.withSession(func(c *fiber.Ctx, sess *shop.Session) error {
		return s.respondState(c, sess, sess.SetForm(body))
	})(c)
}

func (s *Server) apiSetLocale(c *fiber.Ctx) error {
	locale := c.Params("locale")
	if !s.knownLocale(locale) {
		return ValidationError("locale", "unknown locale")
	}
	c.Cookie(&fiber.Cookie{
		Name:     localeCookie,
		Value:    locale,
		Path:     "/",
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"locale": locale})
}
