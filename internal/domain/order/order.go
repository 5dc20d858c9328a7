// Package order converts carts into immutable-subtotal orders and drives
// them through the fulfillment state machine.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is a node in the order state machine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions lists the direct successors of each status. Cancellation is
// only reachable before dispatch; a shipped or delivered order goes through
// a refund/return process, not this workflow. delivered and cancelled are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether target is a direct successor of s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

var (
	// ErrNotFound is returned when an order id is unknown.
	ErrNotFound = errors.New("order not found")
	// ErrInvalidTransition is returned for a status edge outside the machine.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrEmptyCart is returned when creating an order from a cart with no items.
	ErrEmptyCart = errors.New("cart has no items")
	// ErrCartNotActive is returned when the source cart is not active.
	ErrCartNotActive = errors.New("cart is not active")
	// ErrAddressNotFound is returned when the delivery address is unknown.
	ErrAddressNotFound = errors.New("delivery address not found")
	// ErrCouponExhausted is returned when redemption fails at commit time;
	// the whole creation is abandoned and the cart stays active.
	ErrCouponExhausted = errors.New("coupon exhausted at checkout")
)

// Line is an ordered item, copied from the cart at creation time. Later
// cart or catalog changes cannot alter it.
type Line struct {
	ID        string
	OrderID   string
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Order is an immutable-subtotal record of a purchase. Monetary fields are
// computed once at creation; status transitions never touch them.
type Order struct {
	ID         string
	CustomerID string
	AddressID  string
	Status     Status
	CouponCode string
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Shipping   decimal.Decimal
	Total      decimal.Decimal
	Lines      []Line
	CreatedAt  time.Time
}

// Filter narrows order listings.
type Filter struct {
	CustomerID string
	Status     Status
}

// Repository provides order persistence.
type Repository interface {
	// CreateFromCart inserts the order with its lines and marks the source
	// cart converted, atomically within the store.
	CreateFromCart(ctx context.Context, o *Order, cartID string) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	// SetStatus persists a status change and nothing else.
	SetStatus(ctx context.Context, id string, status Status) error
}
