// Package coupon implements the discount coupon ledger: read-only validation
// of codes against wall-clock time and atomic at-most-cap redemption.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validation and redemption failures. Each reason is distinct so callers can
// render a precise message.
var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon has been deactivated.
	ErrInactive = errors.New("coupon inactive")
	// ErrNotYetValid is returned before the coupon's validity window opens.
	ErrNotYetValid = errors.New("coupon not yet valid")
	// ErrExpired is returned after the coupon's validity window closes.
	ErrExpired = errors.New("coupon expired")
	// ErrExhausted is returned when the usage cap has been reached.
	ErrExhausted = errors.New("coupon exhausted")
	// ErrDuplicateCode is returned when creating a coupon whose code exists.
	ErrDuplicateCode = errors.New("coupon code already exists")
)

var hundred = decimal.NewFromInt(100)

// Coupon is a discount code with a validity window and an optional usage cap.
// Codes are case-sensitive and immutable once created.
type Coupon struct {
	Code       string
	Percentage decimal.Decimal
	Fixed      decimal.Decimal
	ValidFrom  *time.Time
	ValidUntil *time.Time
	MaxUses    int
	Uses       int
	Active     bool
}

// Terms are the discount parameters returned by a successful validation.
type Terms struct {
	Percentage decimal.Decimal
	Fixed      decimal.Decimal
}

// Discount computes the amount to subtract from the given subtotal:
// subtotal*percentage/100 + fixed, capped at the subtotal so the discount
// alone can never push a total negative.
func (t Terms) Discount(subtotal decimal.Decimal) decimal.Decimal {
	amount := subtotal.Mul(t.Percentage).Div(hundred).Add(t.Fixed)
	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}

// Repository provides coupon persistence.
type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	// Redeem increments the usage counter only while the counter is below the
	// cap (or the cap is zero). The increment and the cap check must be a
	// single store-side conditional update, not a read followed by a write.
	// Returns ErrNotFound for unknown codes and ErrExhausted when the cap
	// would be exceeded.
	Redeem(ctx context.Context, code string) error
}
