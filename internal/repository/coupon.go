package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/freshbowl/internal/domain/coupon"
)

const (
	createCouponSQL = `INSERT INTO coupons (code, percentage, fixed, valid_from, valid_until, max_uses, uses, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getCouponByCodeSQL = `SELECT code, percentage, fixed, valid_from, valid_until, max_uses, uses, active
		FROM coupons WHERE code = $1`

	// The cap check and the increment are one statement so two concurrent
	// redemptions can never both slip past the cap.
	redeemCouponSQL = `UPDATE coupons SET uses = uses + 1
		WHERE code = $1 AND active = TRUE AND (max_uses = 0 OR uses < max_uses)`

	couponExistsSQL = `SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create inserts a new coupon. A duplicate code maps to ErrDuplicateCode.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, createCouponSQL,
		c.Code, c.Percentage, c.Fixed, c.ValidFrom, c.ValidUntil,
		c.MaxUses, c.Uses, c.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// FindByCode looks up a coupon by its exact (case-sensitive) code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Redeem performs the conditional increment. Zero rows affected means either
// the code does not exist (ErrNotFound) or the cap is reached (ErrExhausted);
// a follow-up existence probe distinguishes the two.
func (r *CouponRepository) Redeem(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, redeemCouponSQL, code)
	if err != nil {
		return fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, couponExistsSQL, code).Scan(&exists); err != nil {
		return fmt.Errorf("probing coupon %q: %w", code, err)
	}
	if !exists {
		return coupon.ErrNotFound
	}
	return coupon.ErrExhausted
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c          coupon.Coupon
		validFrom  *time.Time
		validUntil *time.Time
		maxUses    int32
		uses       int32
	)
	err := row.Scan(
		&c.Code, &c.Percentage, &c.Fixed, &validFrom, &validUntil,
		&maxUses, &uses, &c.Active,
	)
	c.ValidFrom = validFrom
	c.ValidUntil = validUntil
	c.MaxUses = int(maxUses)
	c.Uses = int(uses)
	return c, err
}
