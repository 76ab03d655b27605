// Package shop is the storefront's application store: the per-session order,
// user, address and checkout form, persisted in shared storage and broadcast
// to every connection of the session.
package shop

import (
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aydenstechdungeon/qpick/checkout"
)

// User form fields.
const (
	FieldName  = "name"
	FieldPhone = "phone"
	FieldEmail = "email"
)

// ErrRequired is the message recorded for an empty required field.
const ErrRequired = "required"

var requiredFields = map[string]bool{FieldName: true, FieldPhone: true}

// User is the buyer's contact form.
type User struct {
	Fields map[string]string   `json:"fields" msgpack:"fields"`
	Errors checkout.UserErrors `json:"errors" msgpack:"errors"`
}

// Address is the delivery address form.
type Address struct {
	City      string `json:"city" msgpack:"city"`
	Street    string `json:"street" msgpack:"street"`
	House     string `json:"house" msgpack:"house"`
	Apartment string `json:"apartment" msgpack:"apartment"`
	Valid     bool   `json:"valid" msgpack:"valid"`
}

// Form is the rest of the checkout form.
type Form struct {
	Comment string `json:"comment" msgpack:"comment"`
	Payment string `json:"payment" msgpack:"payment"`
}

// State is everything stored for one session.
type State struct {
	Order   checkout.Order `json:"order" msgpack:"order"`
	User    User           `json:"user" msgpack:"user"`
	Address Address        `json:"address" msgpack:"address"`
	Form    Form           `json:"form" msgpack:"form"`
}

// NewState returns the state of a fresh session: an empty delivery order.
func NewState() State {
	return State{
		Order: checkout.Order{Type: checkout.Delivery},
		User:  User{Fields: map[string]string{}, Errors: checkout.UserErrors{}},
	}
}

func (s State) clone() State {
	out := s
	out.Order.Pickup = append([]string(nil), s.Order.Pickup...)
	out.Order.Products = append([]checkout.Product(nil), s.Order.Products...)
	out.User.Fields = make(map[string]string, len(s.User.Fields))
	for k, v := range s.User.Fields {
		out.User.Fields[k] = v
	}
	out.User.Errors = make(checkout.UserErrors, len(s.User.Errors))
	for k, v := range s.User.Errors {
		out.User.Errors[k] = v
	}
	return out
}

// Encode serializes the state for storage.
func (s State) Encode() ([]byte, error) {
	b, err := msgpack.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}
	return b, nil
}

// DecodeState parses stored state.
func DecodeState(b []byte) (State, error) {
	s := NewState()
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("decode session state: %w", err)
	}
	if s.User.Fields == nil {
		s.User.Fields = map[string]string{}
	}
	if s.User.Errors == nil {
		s.User.Errors = checkout.UserErrors{}
	}
	return s, nil
}

// validateUserField returns the error for value, nil when it is acceptable.
func validateUserField(field, value string) *string {
	if requiredFields[field] && strings.TrimSpace(value) == "" {
		msg := ErrRequired
		return &msg
	}
	return nil
}

func addressValid(a Address) bool {
	return strings.TrimSpace(a.Street) != "" && strings.TrimSpace(a.House) != ""
}
