package shop

import "github.com/aydenstechdungeon/qpick/checkout"

// Catalog is the list of products on sale.
type Catalog struct {
	products []checkout.Product
	byID     map[string]checkout.Product
}

// NewCatalog indexes products by ID.
func NewCatalog(products []checkout.Product) *Catalog {
	c := &Catalog{byID: make(map[string]checkout.Product, len(products))}
	for _, p := range products {
		p.Quantity = 1
		c.products = append(c.products, p)
		c.byID[p.ID] = p
	}
	return c
}

// DefaultCatalog returns the demo assortment.
func DefaultCatalog() *Catalog {
	return NewCatalog([]checkout.Product{
		{ID: "apple-byz-s852i", Title: "Apple BYZ S852I", Price: 2927},
		{ID: "apple-earpods", Title: "Apple EarPods", Price: 2327},
		{ID: "apple-earpods-case", Title: "Apple EarPods (case)", Price: 2327},
		{ID: "apple-airpods", Title: "Apple AirPods", Price: 9527},
		{ID: "gerlax-gh-04", Title: "GERLAX GH-04", Price: 6527},
		{ID: "borofone-bo4", Title: "BOROFONE BO4", Price: 7527},
	})
}

// Products returns the catalog in display order.
func (c *Catalog) Products() []checkout.Product {
	return append([]checkout.Product(nil), c.products...)
}

// Lookup finds a product by ID.
func (c *Catalog) Lookup(id string) (checkout.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// PickupPoints returns the stores a shopper may collect an order from.
func PickupPoints() []string {
	return []string{"qpick-store-center", "qpick-store-north"}
}
