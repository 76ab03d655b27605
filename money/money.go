// Package money formats storefront prices.
//
// Prices are whole rubles held in int64. Grouping follows the locale's
// number conventions; the currency sign always trails the amount.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Sign is the currency sign appended to formatted amounts.
const Sign = "₽"

// Amount is a price in the storefront's minor currency unit, which is the
// whole ruble: the catalog carries no kopecks, so 1299 is formatted as
// "1,299 ₽" and never divided by 100.
type Amount int64

// Format renders a using locale's digit grouping, e.g. "2,299 ₽" for en.
// Unknown locales fall back to English.
func Format(locale string, a Amount) string {
	return NewFormatter(locale).Format(a)
}

// Formatter formats amounts for one locale.
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a Formatter for locale.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{p: message.NewPrinter(tag)}
}

// Format renders a like the package-level Format.
func (f *Formatter) Format(a Amount) string {
	return f.p.Sprintf("%d", int64(a)) + " " + Sign
}
