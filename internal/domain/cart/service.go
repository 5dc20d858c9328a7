package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/freshbowl/internal/domain/catalog"
	"github.com/xenking/freshbowl/internal/domain/coupon"
)

// CouponValidator is the slice of the coupon ledger the cart manager needs:
// read-only validation at apply time. Redemption happens at order creation,
// never here.
type CouponValidator interface {
	Validate(ctx context.Context, code string) (*coupon.Terms, error)
}

// Manager implements the cart operations. Side effects are confined to the
// cart and its items; no other entity is touched.
type Manager struct {
	repo    Repository
	catalog catalog.Repository
	coupons CouponValidator
	now     func() time.Time
}

// NewManager creates a cart Manager.
func NewManager(repo Repository, cat catalog.Repository, coupons CouponValidator) *Manager {
	return &Manager{
		repo:    repo,
		catalog: cat,
		coupons: coupons,
		now:     time.Now,
	}
}

// Create opens a new empty active cart for the customer. Returns
// ErrActiveCartExists when one is already open.
func (m *Manager) Create(ctx context.Context, customerID string) (*Cart, error) {
	c := &Cart{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Status:     StatusActive,
		UpdatedAt:  m.now(),
	}
	if err := m.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrActiveCartExists) {
			return nil, ErrActiveCartExists
		}
		return nil, errors.Wrap(err, "create cart")
	}
	return c, nil
}

// Get returns a cart by id.
func (m *Manager) Get(ctx context.Context, cartID string) (*Cart, error) {
	c, err := m.repo.GetByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get cart")
	}
	return c, nil
}

// GetActive returns the customer's active cart, ErrNoActiveCart when none.
func (m *Manager) GetActive(ctx context.Context, customerID string) (*Cart, error) {
	c, err := m.repo.GetActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNoActiveCart) {
			return nil, ErrNoActiveCart
		}
		return nil, errors.Wrap(err, "get active cart")
	}
	return c, nil
}

// AddItemRequest carries the input for adding a line to a cart. The unit
// price is resolved from the catalog here and frozen on the item.
type AddItemRequest struct {
	ProductID string
	VariantID string
	Quantity  int
}

// AddItem appends a line to an active cart, freezing the current catalog
// price, and touches the cart's last-modified timestamp.
func (m *Manager) AddItem(ctx context.Context, cartID string, req AddItemRequest) (*Item, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, err := m.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive {
		return nil, ErrNotActive
	}

	price, err := m.catalog.GetUnitPrice(ctx, req.ProductID, req.VariantID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrap(err, "resolve unit price")
	}

	item := &Item{
		ID:        uuid.New().String(),
		CartID:    cartID,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		UnitPrice: price,
	}
	if err := m.repo.AddItem(ctx, item); err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}
	if err := m.repo.Touch(ctx, cartID); err != nil {
		return nil, errors.Wrap(err, "touch cart")
	}
	return item, nil
}

// UpdateItem applies a partial update to a cart item. Absent fields keep
// their stored values. Touches the parent cart's timestamp.
func (m *Manager) UpdateItem(ctx context.Context, itemID string, patch ItemPatch) (*Item, error) {
	item, err := m.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, errors.Wrap(err, "get cart item")
	}

	if patch.Quantity != nil {
		if *patch.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		item.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		item.UnitPrice = *patch.UnitPrice
	}

	if err := m.repo.UpdateItem(ctx, item); err != nil {
		return nil, errors.Wrap(err, "update cart item")
	}
	if err := m.repo.Touch(ctx, item.CartID); err != nil {
		return nil, errors.Wrap(err, "touch cart")
	}
	return item, nil
}

// RemoveItem deletes a cart item. Removing the last item keeps the cart.
func (m *Manager) RemoveItem(ctx context.Context, itemID string) error {
	item, err := m.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return ErrItemNotFound
		}
		return errors.Wrap(err, "get cart item")
	}

	if err := m.repo.RemoveItem(ctx, itemID); err != nil {
		return errors.Wrap(err, "remove cart item")
	}
	if err := m.repo.Touch(ctx, item.CartID); err != nil {
		return errors.Wrap(err, "touch cart")
	}
	return nil
}

// ListItems returns all lines of a cart.
func (m *Manager) ListItems(ctx context.Context, cartID string) ([]Item, error) {
	if _, err := m.Get(ctx, cartID); err != nil {
		return nil, err
	}
	items, err := m.repo.ListItems(ctx, cartID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	return items, nil
}

// ApplyCoupon validates the code against the ledger and, on success, stores
// it on the cart. The coupon is not redeemed here; redemption happens once,
// at order confirmation. Validation failures surface with their specific
// reason.
func (m *Manager) ApplyCoupon(ctx context.Context, cartID, code string) error {
	c, err := m.Get(ctx, cartID)
	if err != nil {
		return err
	}
	if c.Status != StatusActive {
		return ErrNotActive
	}

	if _, err := m.coupons.Validate(ctx, code); err != nil {
		return err
	}

	if err := m.repo.SetCoupon(ctx, cartID, code); err != nil {
		return errors.Wrap(err, "store coupon on cart")
	}
	return nil
}

// ClearCoupon removes the applied coupon code from the cart.
func (m *Manager) ClearCoupon(ctx context.Context, cartID string) error {
	if _, err := m.Get(ctx, cartID); err != nil {
		return err
	}
	if err := m.repo.SetCoupon(ctx, cartID, ""); err != nil {
		return errors.Wrap(err, "clear coupon on cart")
	}
	return nil
}
