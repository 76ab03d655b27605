// Package checkout implements the checkout sidebar: the order total, the
// purchase gate, and the confirmation flow that clears the session's
// checkout state and returns the shopper to the catalog.
package checkout

import (
	"github.com/aydenstechdungeon/qpick/money"
)

// DeliveryType is how an order is fulfilled.
type DeliveryType string

const (
	Pickup   DeliveryType = "Pickup"
	Delivery DeliveryType = "Delivery"
)

// Product is one cart line.
type Product struct {
	ID       string       `json:"id" msgpack:"id" yaml:"id"`
	Title    string       `json:"title" msgpack:"title" yaml:"title"`
	Price    money.Amount `json:"price" msgpack:"price" yaml:"price"`
	Quantity int          `json:"quantity" msgpack:"quantity" yaml:"quantity"`
}

// Order is the order slice of a session.
type Order struct {
	Type DeliveryType `json:"type" msgpack:"type" yaml:"type"`
	// Pickup holds the selected pickup point; empty means none selected.
	Pickup   []string  `json:"pickup,omitempty" msgpack:"pickup" yaml:"pickup"`
	Products []Product `json:"products" msgpack:"products" yaml:"products"`
}

// UserErrors maps a user form field to its validation error. A nil entry
// means the field is valid.
type UserErrors map[string]*string

// Reader is the read side of the session state the sidebar depends on.
type Reader interface {
	Order() Order
	UserErrors() UserErrors
	AddressValid() bool
}

// Actions clear the session state after a completed purchase. Each call is
// independent and idempotent.
type Actions interface {
	ClearCart() error
	ClearForm() error
	ClearFormUser() error
	ClearAddress() error
}

// Navigator moves the shopper to another page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }
