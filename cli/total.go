package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aydenstechdungeon/qpick/checkout"
	"github.com/aydenstechdungeon/qpick/i18n"
	"github.com/aydenstechdungeon/qpick/money"
)

// ErrNotPurchasable is returned by total --check when the gate fails.
var ErrNotPurchasable = errors.New("order is not purchasable")

// orderFile is an order plus the form state the purchase gate reads.
// Errors maps a field to its message; an empty message means valid.
type orderFile struct {
	Order        checkout.Order    `json:"order" yaml:"order"`
	Errors       map[string]string `json:"errors" yaml:"errors"`
	AddressValid bool              `json:"address_valid" yaml:"address_valid"`
}

type totalReport struct {
	Subtotal    money.Amount `json:"subtotal"`
	Surcharge   money.Amount `json:"surcharge"`
	Total       money.Amount `json:"total"`
	Formatted   string       `json:"formatted"`
	Purchasable bool         `json:"purchasable"`
}

func newTotalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "total <order-file>",
		Short: "Price an order file and run the purchase gate",
		Long: `Read an order from a YAML or JSON file and print its subtotal, delivery
surcharge, total and whether it may be purchased.

Example order file:

  order:
    type: Delivery
    products:
      - {id: apple-airpods, title: Apple AirPods, price: 9527, quantity: 1}
  errors:
    phone: ""
  address_valid: true`,
		Args: cobra.ExactArgs(1),
		RunE: runTotal,
	}
	cmd.Flags().String("locale", i18n.DefaultLocale, "Locale for amounts and labels")
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	cmd.Flags().Bool("check", false, "Exit with an error when the order is not purchasable")
	return cmd
}

func readOrderFile(path string) (orderFile, error) {
	var f orderFile
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read order: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return f, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

func (f orderFile) userErrors() checkout.UserErrors {
	errs := make(checkout.UserErrors, len(f.Errors))
	for field, msg := range f.Errors {
		if msg == "" {
			errs[field] = nil
			continue
		}
		m := msg
		errs[field] = &m
	}
	return errs
}

func runTotal(cmd *cobra.Command, args []string) error {
	f, err := readOrderFile(args[0])
	if err != nil {
		return err
	}
	locale, _ := cmd.Flags().GetString("locale")
	asJSON, _ := cmd.Flags().GetBool("json")
	check, _ := cmd.Flags().GetBool("check")

	total := checkout.Total(f.Order)
	report := totalReport{
		Subtotal:    checkout.Subtotal(f.Order),
		Surcharge:   checkout.Surcharge(f.Order),
		Total:       total,
		Formatted:   money.Format(locale, total),
		Purchasable: checkout.IsPurchasable(f.Order, f.userErrors(), f.AddressValid),
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		bundle, err := i18n.New(locale)
		if err != nil {
			return err
		}
		printReport(NewColorPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr()), bundle.For(locale), locale, f.Order, report)
	}

	if check && !report.Purchasable {
		return ErrNotPurchasable
	}
	return nil
}

func printReport(p *ColorPrinter, t i18n.Translator, locale string, o checkout.Order, r totalReport) {
	f := money.NewFormatter(locale)
	p.Title("%s (%d)", t.T("cart"), len(o.Products))
	for _, line := range o.Products {
		p.Row(fmt.Sprintf("%s × %d", line.ID, line.Quantity), f.Format(line.Price*money.Amount(line.Quantity)))
	}

	label, value := t.T("delivery"), t.T("free")
	if o.Type == checkout.Pickup {
		label = t.T("pickup")
	}
	if r.Surcharge > 0 {
		value = f.Format(r.Surcharge)
	}
	p.Row(label, value)
	p.Row(t.T("total"), r.Formatted)

	if r.Purchasable {
		p.Success("%s", t.T("buyAll"))
	} else {
		p.Error("%s", ErrNotPurchasable)
	}
}
