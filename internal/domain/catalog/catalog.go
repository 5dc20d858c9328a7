// Package catalog exposes the read-only product lookups the order-taking
// core consumes. Catalog management itself lives elsewhere; the core only
// reads unit prices at add-to-cart time and freezes them.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a product or variant does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item. Variants carry their own price; the base price
// applies when no variant is chosen.
type Product struct {
	ID        string
	Name      string
	Category  string
	Price     decimal.Decimal
	Available bool
	Variants  []Variant
}

// Variant is a named variation of a product (size, base, protein) with its
// own price.
type Variant struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Repository defines the read operations the core needs from the catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	// GetUnitPrice resolves the price for a product, or for one of its
	// variants when variantID is non-empty. Returns ErrNotFound when either
	// the product or the named variant is unknown.
	GetUnitPrice(ctx context.Context, productID, variantID string) (decimal.Decimal, error)
}
