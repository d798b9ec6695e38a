package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNegativePrice is returned when a catalog entry carries a price below zero.
var ErrNegativePrice = errors.New("product price must not be negative")

// Product represents a catalog item available for purchase. Price may carry
// any precision; it is rounded to two places whenever it leaves the service.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Repository is a read-only source of products used to build a Catalog at
// startup.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
}

// Catalog is an immutable product lookup table. It is safe for concurrent
// use because nothing mutates it after NewCatalog returns.
type Catalog struct {
	byID  map[string]Product
	order []Product
}

// NewCatalog builds a Catalog from products. Later duplicates of an ID
// replace earlier ones but keep the earlier position in List.
func NewCatalog(products ...Product) *Catalog {
	c := &Catalog{
		byID:  make(map[string]Product, len(products)),
		order: make([]Product, 0, len(products)),
	}
	for _, p := range products {
		if _, ok := c.byID[p.ID]; ok {
			for i := range c.order {
				if c.order[i].ID == p.ID {
					c.order[i] = p
				}
			}
		} else {
			c.order = append(c.order, p)
		}
		c.byID[p.ID] = p
	}
	return c
}

// LoadCatalog reads every product from repo and returns them as a Catalog.
func LoadCatalog(ctx context.Context, repo Repository) (*Catalog, error) {
	products, err := repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	for _, p := range products {
		if p.Price.IsNegative() {
			return nil, errors.Wrapf(ErrNegativePrice, "product %s", p.ID)
		}
	}
	return NewCatalog(products...), nil
}

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// List returns all products in insertion order. The returned slice is a copy.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of products in the catalog.
func (c *Catalog) Len() int {
	return len(c.order)
}

// DefaultProducts is the built-in catalog used when no database is configured.
func DefaultProducts() []Product {
	return []Product{
		{ID: "p1", Name: "Wireless Mouse", Price: decimal.RequireFromString("19.99")},
		{ID: "p2", Name: "Mechanical Keyboard", Price: decimal.RequireFromString("59.49")},
		{ID: "p3", Name: "USB-C Hub", Price: decimal.RequireFromString("24.90")},
	}
}
