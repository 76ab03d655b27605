package checkout

import "github.com/aydenstechdungeon/qpick/money"

// DeliverySurcharge is the flat fee for every order not picked up.
const DeliverySurcharge money.Amount = 1299

// Subtotal sums price × quantity over the order lines.
func Subtotal(o Order) money.Amount {
	var sum money.Amount
	for _, p := range o.Products {
		sum += p.Price * money.Amount(p.Quantity)
	}
	return sum
}

// Surcharge returns the delivery fee for o: zero for pickup, flat otherwise.
func Surcharge(o Order) money.Amount {
	if o.Type == Pickup {
		return 0
	}
	return DeliverySurcharge
}

// Total is the amount the shopper pays.
func Total(o Order) money.Amount {
	return Subtotal(o) + Surcharge(o)
}

// IsPurchasable reports whether the order may be bought. Checks run in order
// and stop at the first failure: any user field error, then a delivery
// without a valid address, then a pickup without a selected point.
func IsPurchasable(o Order, errs UserErrors, addressValid bool) bool {
	for _, e := range errs {
		if e != nil {
			return false
		}
	}
	if o.Type == Delivery && !addressValid {
		return false
	}
	if o.Type == Pickup && len(o.Pickup) == 0 {
		return false
	}
	return true
}
