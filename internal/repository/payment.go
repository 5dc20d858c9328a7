package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/freshbowl/internal/domain/payment"
)

const (
	createPaymentSQL = `INSERT INTO payments (id, order_id, gateway, method, amount, status, token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getPaymentByIDSQL = `SELECT id, order_id, gateway, method, amount, status, token, created_at
		FROM payments WHERE id = $1`

	listPaymentsByOrderSQL = `SELECT id, order_id, gateway, method, amount, status, token, created_at
		FROM payments WHERE order_id = $1 ORDER BY created_at`

	setPaymentStatusSQL = `UPDATE payments SET status = $2 WHERE id = $1`
)

var _ payment.Repository = (*PaymentRepository)(nil)

// PaymentRepository implements payment.Repository backed by PostgreSQL.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository returns a PaymentRepository that uses the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create inserts a new payment attempt.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.pool.Exec(ctx, createPaymentSQL,
		p.ID, p.OrderID, p.Gateway, p.Method, p.Amount, string(p.Status), p.Token, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating payment %q: %w", p.ID, err)
	}
	return nil
}

// GetByID returns a payment by id.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	rows, err := r.pool.Query(ctx, getPaymentByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting payment %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrNotFound
		}
		return nil, fmt.Errorf("getting payment %q: %w", id, err)
	}
	return &p, nil
}

// ListByOrder returns all payment attempts for an order, oldest first.
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]payment.Payment, error) {
	rows, err := r.pool.Query(ctx, listPaymentsByOrderSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing payments of order %q: %w", orderID, err)
	}
	return pgx.CollectRows(rows, scanPayment)
}

// SetStatus persists a status change.
func (r *PaymentRepository) SetStatus(ctx context.Context, id string, status payment.Status) error {
	tag, err := r.pool.Exec(ctx, setPaymentStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("setting status on payment %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return payment.ErrNotFound
	}
	return nil
}

func scanPayment(row pgx.CollectableRow) (payment.Payment, error) {
	var (
		p      payment.Payment
		status string
	)
	err := row.Scan(&p.ID, &p.OrderID, &p.Gateway, &p.Method, &p.Amount, &status, &p.Token, &p.CreatedAt)
	p.Status = payment.Status(status)
	return p, err
}
