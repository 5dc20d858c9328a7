package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Ledger validates and redeems coupon codes. Validation is read-only and
// idempotent; redemption is the irreversible act of incrementing the usage
// counter, performed once per committed order.
type Ledger struct {
	repo Repository
	now  func() time.Time
}

// NewLedger creates a Ledger backed by the given Repository.
func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// Validate checks a code against coupon state and the current time and
// returns its discount terms. It never mutates state, so the outcome may be
// stale by checkout time; callers that commit an order must re-validate and
// then Redeem.
func (l *Ledger) Validate(ctx context.Context, code string) (*Terms, error) {
	c, err := l.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.Active {
		return nil, ErrInactive
	}

	now := l.now()
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return nil, ErrNotYetValid
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return nil, ErrExpired
	}

	if c.MaxUses > 0 && c.Uses >= c.MaxUses {
		return nil, ErrExhausted
	}

	return &Terms{Percentage: c.Percentage, Fixed: c.Fixed}, nil
}

// Redeem consumes one use of the code. The repository performs the cap check
// and the increment as one atomic conditional update, so concurrent
// redemptions racing on the same code can never push the counter past the
// cap: with cap N and N+k concurrent calls, exactly N succeed.
func (l *Ledger) Redeem(ctx context.Context, code string) error {
	if err := l.repo.Redeem(ctx, code); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExhausted) {
			return err
		}
		return errors.Wrap(err, "redeem coupon")
	}
	return nil
}

// Create registers a new coupon. Codes are unique; a duplicate surfaces as
// ErrDuplicateCode.
func (l *Ledger) Create(ctx context.Context, c *Coupon) error {
	if err := l.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return ErrDuplicateCode
		}
		return errors.Wrap(err, "create coupon")
	}
	return nil
}

// Get returns the coupon for a code.
func (l *Ledger) Get(ctx context.Context, code string) (*Coupon, error) {
	c, err := l.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	return c, nil
}
