package coupon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type mockCouponRepo struct {
	coupon    *Coupon
	findErr   error
	redeemErr error
	createErr error
}

func (m *mockCouponRepo) Create(_ context.Context, _ *Coupon) error {
	return m.createErr
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*Coupon, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.coupon, nil
}

func (m *mockCouponRepo) Redeem(_ context.Context, _ string) error {
	return m.redeemErr
}

// memCouponRepo mimics the store-side atomic conditional increment.
type memCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*Coupon
}

func newMemCouponRepo(coupons ...*Coupon) *memCouponRepo {
	m := &memCouponRepo{coupons: make(map[string]*Coupon)}
	for _, c := range coupons {
		m.coupons[c.Code] = c
	}
	return m
}

func (m *memCouponRepo) Create(_ context.Context, c *Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[c.Code]; ok {
		return ErrDuplicateCode
	}
	m.coupons[c.Code] = c
	return nil
}

func (m *memCouponRepo) FindByCode(_ context.Context, code string) (*Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[code]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *memCouponRepo) Redeem(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[code]
	if !ok {
		return ErrNotFound
	}
	if c.MaxUses > 0 && c.Uses >= c.MaxUses {
		return ErrExhausted
	}
	c.Uses++
	return nil
}

func TestTermsDiscount(t *testing.T) {
	tests := []struct {
		name     string
		terms    Terms
		subtotal string
		want     string
	}{
		{
			name:     "percentage only",
			terms:    Terms{Percentage: decimal.NewFromInt(10)},
			subtotal: "100.00",
			want:     "10",
		},
		{
			name:     "fixed only",
			terms:    Terms{Fixed: decimal.NewFromInt(5)},
			subtotal: "100.00",
			want:     "5",
		},
		{
			name:     "percentage plus fixed",
			terms:    Terms{Percentage: decimal.NewFromInt(10), Fixed: decimal.NewFromInt(5)},
			subtotal: "100.00",
			want:     "15",
		},
		{
			name:     "capped at subtotal",
			terms:    Terms{Percentage: decimal.NewFromInt(100), Fixed: decimal.NewFromInt(50)},
			subtotal: "80.00",
			want:     "80",
		},
		{
			name:     "zero terms give zero discount",
			terms:    Terms{},
			subtotal: "40.00",
			want:     "0",
		},
		{
			name:     "rounded to cents",
			terms:    Terms{Percentage: decimal.NewFromInt(15)},
			subtotal: "9.99",
			want:     "1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.terms.Discount(decimal.RequireFromString(tt.subtotal))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestLedgerValidate(t *testing.T) {
	fixedNow := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name    string
		repo    *mockCouponRepo
		wantErr error
	}{
		{
			name: "active coupon without window or cap",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code:       "SAVE10",
				Percentage: decimal.NewFromInt(10),
				Active:     true,
			}},
		},
		{
			name:    "unknown code",
			repo:    &mockCouponRepo{findErr: ErrNotFound},
			wantErr: ErrNotFound,
		},
		{
			name: "inactive coupon",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code:   "OFF",
				Active: false,
			}},
			wantErr: ErrInactive,
		},
		{
			name: "window not yet open",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code:      "SOON",
				Active:    true,
				ValidFrom: &futureTime,
			}},
			wantErr: ErrNotYetValid,
		},
		{
			name: "window closed",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code:       "OLD",
				Active:     true,
				ValidUntil: &pastTime,
			}},
			wantErr: ErrExpired,
		},
		{
			name: "within window succeeds",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code:       "WINDOW",
				Active:     true,
				ValidFrom:  &pastTime,
				ValidUntil: &futureTime,
			}},
		},
		{
			name: "cap reached",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code:    "LIMITED",
				Active:  true,
				MaxUses: 100,
				Uses:    100,
			}},
			wantErr: ErrExhausted,
		},
		{
			name: "under cap succeeds",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code:    "HASROOM",
				Active:  true,
				MaxUses: 100,
				Uses:    99,
			}},
		},
		{
			name: "zero cap means unlimited",
			repo: &mockCouponRepo{coupon: &Coupon{
				Code:   "FOREVER",
				Active: true,
				Uses:   1_000_000,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(tt.repo)
			l.now = func() time.Time { return fixedNow }

			terms, err := l.Validate(context.Background(), "code")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, terms)
		})
	}
}

func TestLedgerValidate_ReturnsTerms(t *testing.T) {
	l := NewLedger(&mockCouponRepo{coupon: &Coupon{
		Code:       "COMBO",
		Percentage: decimal.NewFromInt(10),
		Fixed:      decimal.NewFromInt(2),
		Active:     true,
	}})

	terms, err := l.Validate(context.Background(), "COMBO")
	require.NoError(t, err)
	assert.True(t, terms.Percentage.Equal(decimal.NewFromInt(10)))
	assert.True(t, terms.Fixed.Equal(decimal.NewFromInt(2)))
}

func TestLedgerValidate_DoesNotConsumeUses(t *testing.T) {
	repo := newMemCouponRepo(&Coupon{Code: "READONLY", Active: true, MaxUses: 5})
	l := NewLedger(repo)

	for range 10 {
		_, err := l.Validate(context.Background(), "READONLY")
		require.NoError(t, err)
	}

	c, err := repo.FindByCode(context.Background(), "READONLY")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Uses)
}

// With cap N and N+k concurrent redemptions, exactly N succeed and the rest
// fail with ErrExhausted.
func TestLedgerRedeem_ConcurrentCap(t *testing.T) {
	const (
		maxUses = 9
		callers = 25
	)
	repo := newMemCouponRepo(&Coupon{Code: "RACE", Active: true, MaxUses: maxUses})
	l := NewLedger(repo)

	var (
		mu        sync.Mutex
		succeeded int
		exhausted int
	)

	var g errgroup.Group
	for range callers {
		g.Go(func() error {
			err := l.Redeem(context.Background(), "RACE")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, ErrExhausted):
				exhausted++
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, maxUses, succeeded)
	assert.Equal(t, callers-maxUses, exhausted)

	c, err := repo.FindByCode(context.Background(), "RACE")
	require.NoError(t, err)
	assert.Equal(t, maxUses, c.Uses)
}

func TestLedgerRedeem_UnknownCode(t *testing.T) {
	l := NewLedger(newMemCouponRepo())
	require.ErrorIs(t, l.Redeem(context.Background(), "NOPE"), ErrNotFound)
}

func TestLedgerCreate_DuplicateCode(t *testing.T) {
	repo := newMemCouponRepo()
	l := NewLedger(repo)

	require.NoError(t, l.Create(context.Background(), &Coupon{Code: "ONCE", Active: true}))
	require.ErrorIs(t, l.Create(context.Background(), &Coupon{Code: "ONCE"}), ErrDuplicateCode)
}
