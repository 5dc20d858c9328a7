// Package cart owns the mutable pre-order basket: line items, quantities,
// and the applied coupon code. A customer has at most one active cart; a
// cart converts to an order exactly once and is immutable afterwards.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the cart lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusAbandoned Status = "abandoned"
	StatusConverted Status = "converted"
)

var (
	// ErrNotFound is returned when a cart id is unknown.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when a cart item id is unknown.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrActiveCartExists is returned when a customer already has an active cart.
	ErrActiveCartExists = errors.New("customer already has an active cart")
	// ErrNoActiveCart is returned when a customer has no active cart.
	ErrNoActiveCart = errors.New("no active cart for customer")
	// ErrNotActive is returned when mutating a converted or abandoned cart.
	ErrNotActive = errors.New("cart is not active")
	// ErrInvalidQuantity is returned for a non-positive item quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Cart is one customer's basket.
type Cart struct {
	ID         string
	CustomerID string
	Status     Status
	CouponCode string
	UpdatedAt  time.Time
}

// Item is a line in a cart. UnitPrice is captured from the catalog when the
// item is added and never re-derived afterwards.
type Item struct {
	ID        string
	CartID    string
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// ItemPatch is a partial update for a cart item. Nil fields are absent and
// leave the stored value untouched; the merge is explicit and field-by-field.
type ItemPatch struct {
	Quantity  *int
	UnitPrice *decimal.Decimal
}

// Repository provides cart and cart item persistence.
type Repository interface {
	// Create inserts a new active cart. The store enforces at most one
	// active cart per customer; a violation maps to ErrActiveCartExists.
	Create(ctx context.Context, c *Cart) error
	GetByID(ctx context.Context, id string) (*Cart, error)
	GetActiveByCustomer(ctx context.Context, customerID string) (*Cart, error)
	// SetCoupon stores (or clears, with an empty code) the applied coupon
	// code and touches the cart's updated_at.
	SetCoupon(ctx context.Context, cartID, code string) error
	// SetStatus moves a cart between lifecycle states.
	SetStatus(ctx context.Context, cartID string, status Status) error

	AddItem(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, itemID string) (*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	RemoveItem(ctx context.Context, itemID string) error
	ListItems(ctx context.Context, cartID string) ([]Item, error)
	// Touch bumps the cart's updated_at after an item mutation.
	Touch(ctx context.Context, cartID string) error
}
