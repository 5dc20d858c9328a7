package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/freshbowl/internal/domain/cart"
)

const (
	createCartSQL = `INSERT INTO carts (id, customer_id, status, coupon_code, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	getCartByIDSQL = `SELECT id, customer_id, status, coupon_code, updated_at
		FROM carts WHERE id = $1`

	getActiveCartSQL = `SELECT id, customer_id, status, coupon_code, updated_at
		FROM carts WHERE customer_id = $1 AND status = 'active'`

	setCartCouponSQL = `UPDATE carts SET coupon_code = $2, updated_at = now() WHERE id = $1`

	setCartStatusSQL = `UPDATE carts SET status = $2, updated_at = now() WHERE id = $1`

	touchCartSQL = `UPDATE carts SET updated_at = now() WHERE id = $1`

	addCartItemSQL = `INSERT INTO cart_items (id, cart_id, product_id, variant_id, quantity, unit_price)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`

	getCartItemSQL = `SELECT id, cart_id, product_id, COALESCE(variant_id, ''), quantity, unit_price
		FROM cart_items WHERE id = $1`

	updateCartItemSQL = `UPDATE cart_items SET quantity = $2, unit_price = $3 WHERE id = $1`

	removeCartItemSQL = `DELETE FROM cart_items WHERE id = $1`

	listCartItemsSQL = `SELECT id, cart_id, product_id, COALESCE(variant_id, ''), quantity, unit_price
		FROM cart_items WHERE cart_id = $1 ORDER BY id`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. The
// one-active-cart-per-customer invariant is carried by a partial unique
// index; insert races surface as unique violations.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Create inserts a new cart. A second active cart for the same customer
// violates the partial unique index and maps to ErrActiveCartExists.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	_, err := r.pool.Exec(ctx, createCartSQL,
		c.ID, c.CustomerID, string(c.Status), c.CouponCode, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return cart.ErrActiveCartExists
		}
		return fmt.Errorf("creating cart %q: %w", c.ID, err)
	}
	return nil
}

// GetByID returns a cart by id.
func (r *CartRepository) GetByID(ctx context.Context, id string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting cart %q: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart %q: %w", id, err)
	}
	return &c, nil
}

// GetActiveByCustomer returns the customer's single active cart.
func (r *CartRepository) GetActiveByCustomer(ctx context.Context, customerID string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getActiveCartSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("getting active cart for %q: %w", customerID, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNoActiveCart
		}
		return nil, fmt.Errorf("getting active cart for %q: %w", customerID, err)
	}
	return &c, nil
}

// SetCoupon stores or clears the applied coupon code.
func (r *CartRepository) SetCoupon(ctx context.Context, cartID, code string) error {
	tag, err := r.pool.Exec(ctx, setCartCouponSQL, cartID, code)
	if err != nil {
		return fmt.Errorf("setting coupon on cart %q: %w", cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// SetStatus moves a cart between lifecycle states.
func (r *CartRepository) SetStatus(ctx context.Context, cartID string, status cart.Status) error {
	tag, err := r.pool.Exec(ctx, setCartStatusSQL, cartID, string(status))
	if err != nil {
		return fmt.Errorf("setting status on cart %q: %w", cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotFound
	}
	return nil
}

// Touch bumps the cart's updated_at.
func (r *CartRepository) Touch(ctx context.Context, cartID string) error {
	_, err := r.pool.Exec(ctx, touchCartSQL, cartID)
	if err != nil {
		return fmt.Errorf("touching cart %q: %w", cartID, err)
	}
	return nil
}

// AddItem inserts a cart line.
func (r *CartRepository) AddItem(ctx context.Context, item *cart.Item) error {
	_, err := r.pool.Exec(ctx, addCartItemSQL,
		item.ID, item.CartID, item.ProductID, item.VariantID,
		item.Quantity, item.UnitPrice,
	)
	if err != nil {
		return fmt.Errorf("adding item to cart %q: %w", item.CartID, err)
	}
	return nil
}

// GetItem returns a cart line by id.
func (r *CartRepository) GetItem(ctx context.Context, itemID string) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartItemSQL, itemID)
	if err != nil {
		return nil, fmt.Errorf("getting cart item %q: %w", itemID, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("getting cart item %q: %w", itemID, err)
	}
	return &item, nil
}

// UpdateItem persists a merged cart line.
func (r *CartRepository) UpdateItem(ctx context.Context, item *cart.Item) error {
	tag, err := r.pool.Exec(ctx, updateCartItemSQL, item.ID, item.Quantity, item.UnitPrice)
	if err != nil {
		return fmt.Errorf("updating cart item %q: %w", item.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// RemoveItem deletes a cart line.
func (r *CartRepository) RemoveItem(ctx context.Context, itemID string) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, itemID)
	if err != nil {
		return fmt.Errorf("removing cart item %q: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// ListItems returns all lines of a cart.
func (r *CartRepository) ListItems(ctx context.Context, cartID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("listing items of cart %q: %w", cartID, err)
	}
	return pgx.CollectRows(rows, scanCartItem)
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c      cart.Cart
		status string
	)
	err := row.Scan(&c.ID, &c.CustomerID, &status, &c.CouponCode, &c.UpdatedAt)
	c.Status = cart.Status(status)
	return c, err
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var (
		item cart.Item
		qty  int32
	)
	err := row.Scan(&item.ID, &item.CartID, &item.ProductID, &item.VariantID, &qty, &item.UnitPrice)
	item.Quantity = int(qty)
	return item, err
}
