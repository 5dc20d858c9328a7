package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/freshbowl/internal/domain/cart"
	"github.com/xenking/freshbowl/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_id, address_id, status, coupon_code,
		subtotal, discount, shipping, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	createOrderLineSQL = `INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, unit_price)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`

	convertCartSQL = `UPDATE carts SET status = 'converted', updated_at = now()
		WHERE id = $1 AND status = 'active'`

	getOrderByIDSQL = `SELECT id, customer_id, address_id, status, coupon_code,
		subtotal, discount, shipping, total, created_at
		FROM orders WHERE id = $1`

	listOrderLinesSQL = `SELECT id, order_id, product_id, COALESCE(variant_id, ''), quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`

	setOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromCart inserts the order with its lines and flips the source cart
// to converted, all in one transaction. The cart update is conditional on
// the cart still being active, so a concurrent conversion of the same cart
// aborts instead of double-converting.
func (r *OrderRepository) CreateFromCart(ctx context.Context, o *order.Order, cartID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.CustomerID, o.AddressID, string(o.Status), o.CouponCode,
		o.Subtotal, o.Discount, o.Shipping, o.Total, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for _, line := range o.Lines {
		_, err = tx.Exec(ctx, createOrderLineSQL,
			line.ID, o.ID, line.ProductID, line.VariantID, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("creating order line for %q: %w", o.ID, err)
		}
	}

	tag, err := tx.Exec(ctx, convertCartSQL, cartID)
	if err != nil {
		return fmt.Errorf("converting cart %q: %w", cartID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrNotActive
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns an order with its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	lineRows, err := r.pool.Query(ctx, listOrderLinesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing lines of order %q: %w", id, err)
	}
	o.Lines, err = pgx.CollectRows(lineRows, scanOrderLine)
	if err != nil {
		return nil, fmt.Errorf("listing lines of order %q: %w", id, err)
	}
	return &o, nil
}

// List returns orders matching the filter, newest first. Lines are not
// loaded for listings.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	query := `SELECT id, customer_id, address_id, status, coupon_code,
		subtotal, discount, shipping, total, created_at FROM orders`
	args := []any{}
	where := ""

	if f.CustomerID != "" {
		args = append(args, f.CustomerID)
		where = fmt.Sprintf(" WHERE customer_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		if where == "" {
			where = fmt.Sprintf(" WHERE status = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND status = $%d", len(args))
		}
	}

	rows, err := r.pool.Query(ctx, query+where+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// SetStatus persists a status change and touches nothing else.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, setOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("setting status on order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.AddressID, &status, &o.CouponCode,
		&o.Subtotal, &o.Discount, &o.Shipping, &o.Total, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderLine(row pgx.CollectableRow) (order.Line, error) {
	var (
		line order.Line
		qty  int32
	)
	err := row.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.VariantID, &qty, &line.UnitPrice)
	line.Quantity = int(qty)
	return line, err
}
