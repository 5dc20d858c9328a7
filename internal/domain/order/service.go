package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/freshbowl/internal/domain/cart"
	"github.com/xenking/freshbowl/internal/domain/coupon"
)

// CartSource is the slice of the cart layer the workflow reads at creation
// time. The conversion of the cart itself happens inside the order
// repository's transaction.
type CartSource interface {
	GetByID(ctx context.Context, id string) (*cart.Cart, error)
	ListItems(ctx context.Context, cartID string) ([]cart.Item, error)
}

// CouponLedger is the slice of the coupon ledger the workflow uses at commit
// time: a fresh validation followed by an atomic redemption.
type CouponLedger interface {
	Validate(ctx context.Context, code string) (*coupon.Terms, error)
	Redeem(ctx context.Context, code string) error
}

// AddressChecker reports whether a delivery address exists.
type AddressChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Workflow creates orders from carts and drives the status machine.
type Workflow struct {
	orders    Repository
	carts     CartSource
	coupons   CouponLedger
	addresses AddressChecker
	now       func() time.Time
}

// NewWorkflow creates an order Workflow with the required collaborators.
func NewWorkflow(
	orders Repository,
	carts CartSource,
	coupons CouponLedger,
	addresses AddressChecker,
) *Workflow {
	return &Workflow{
		orders:    orders,
		carts:     carts,
		coupons:   coupons,
		addresses: addresses,
		now:       time.Now,
	}
}

// CreateFromCartRequest holds the input for converting a cart into an order.
type CreateFromCartRequest struct {
	CartID    string
	AddressID string
	Shipping  decimal.Decimal
}

// CreateFromCart snapshots the cart's items into a new pending order.
//
// The subtotal is the sum of quantity x frozen unit price over the copied
// lines. When the cart carries a coupon, the code is validated again here
// (the apply-time validation is stale by checkout) and then redeemed; a
// redemption loss against a concurrent checkout fails the whole creation
// with ErrCouponExhausted and leaves the cart active. A redemption that
// succeeds is not reversed if the subsequent insert fails; the caller logs
// that as an operator alert.
func (w *Workflow) CreateFromCart(ctx context.Context, req CreateFromCartRequest) (*Order, error) {
	c, err := w.carts.GetByID(ctx, req.CartID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, cart.ErrNotFound
		}
		return nil, errors.Wrap(err, "get cart")
	}
	if c.Status != cart.StatusActive {
		return nil, ErrCartNotActive
	}

	items, err := w.carts.ListItems(ctx, req.CartID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	ok, err := w.addresses.Exists(ctx, req.AddressID)
	if err != nil {
		return nil, errors.Wrap(err, "check address")
	}
	if !ok {
		return nil, ErrAddressNotFound
	}

	if req.Shipping.IsNegative() {
		return nil, errors.New("shipping amount must not be negative")
	}

	orderID := uuid.New().String()
	lines := make([]Line, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		lines[i] = Line{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.UnitPrice.Mul(qty))
	}

	discount := decimal.Zero
	if c.CouponCode != "" {
		terms, err := w.coupons.Validate(ctx, c.CouponCode)
		if err != nil {
			if errors.Is(err, coupon.ErrExhausted) {
				return nil, ErrCouponExhausted
			}
			return nil, err
		}
		discount = terms.Discount(subtotal)

		if err := w.coupons.Redeem(ctx, c.CouponCode); err != nil {
			if errors.Is(err, coupon.ErrExhausted) {
				return nil, ErrCouponExhausted
			}
			return nil, errors.Wrap(err, "redeem coupon")
		}
	}

	// Total is computed exactly once; transitions never revisit it.
	total := subtotal.Sub(discount).Add(req.Shipping)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o := &Order{
		ID:         orderID,
		CustomerID: c.CustomerID,
		AddressID:  req.AddressID,
		Status:     StatusPending,
		CouponCode: c.CouponCode,
		Subtotal:   subtotal.Round(2),
		Discount:   discount.Round(2),
		Shipping:   req.Shipping.Round(2),
		Total:      total.Round(2),
		Lines:      lines,
		CreatedAt:  w.now(),
	}
	if err := w.orders.CreateFromCart(ctx, o, req.CartID); err != nil {
		return nil, errors.Wrap(err, "persist order")
	}
	return o, nil
}

// Get returns an order with its lines.
func (w *Workflow) Get(ctx context.Context, orderID string) (*Order, error) {
	o, err := w.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// List returns orders matching the filter, newest first.
func (w *Workflow) List(ctx context.Context, f Filter) ([]Order, error) {
	orders, err := w.orders.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Transition moves an order to target. Only direct successors in the status
// graph are allowed; anything else fails with ErrInvalidTransition. This is
// the only way order status changes.
func (w *Workflow) Transition(ctx context.Context, orderID string, target Status) (*Order, error) {
	if !target.Valid() {
		return nil, ErrInvalidTransition
	}

	o, err := w.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(target) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, target)
	}

	if err := w.orders.SetStatus(ctx, orderID, target); err != nil {
		return nil, errors.Wrap(err, "set order status")
	}
	o.Status = target
	return o, nil
}

// Cancel soft-cancels the order: the record is retained with
// status=cancelled. Permitted from pending, confirmed, and preparing only.
func (w *Workflow) Cancel(ctx context.Context, orderID string) (*Order, error) {
	return w.Transition(ctx, orderID, StatusCancelled)
}
