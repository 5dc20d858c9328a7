package order

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/freshbowl/internal/domain/cart"
	"github.com/xenking/freshbowl/internal/domain/coupon"
)

// --- Mock implementations ---

type mockCartSource struct {
	cart  *cart.Cart
	items []cart.Item
}

func (m *mockCartSource) GetByID(_ context.Context, id string) (*cart.Cart, error) {
	if m.cart == nil || m.cart.ID != id {
		return nil, cart.ErrNotFound
	}
	copied := *m.cart
	return &copied, nil
}

func (m *mockCartSource) ListItems(_ context.Context, _ string) ([]cart.Item, error) {
	return m.items, nil
}

type mockLedger struct {
	terms       *coupon.Terms
	validateErr error
	redeemErr   error
	redeemed    []string
}

func (m *mockLedger) Validate(_ context.Context, _ string) (*coupon.Terms, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	return m.terms, nil
}

func (m *mockLedger) Redeem(_ context.Context, code string) error {
	if m.redeemErr != nil {
		return m.redeemErr
	}
	m.redeemed = append(m.redeemed, code)
	return nil
}

type mockAddresses struct {
	known map[string]bool
}

func (m *mockAddresses) Exists(_ context.Context, id string) (bool, error) {
	return m.known[id], nil
}

type mockOrderRepo struct {
	lastOrder  *Order
	lastCartID string
	createErr  error
	statuses   map[string]Status
}

func (m *mockOrderRepo) CreateFromCart(_ context.Context, o *Order, cartID string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.lastOrder = o
	m.lastCartID = cartID
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	if m.lastOrder == nil || m.lastOrder.ID != id {
		return nil, ErrNotFound
	}
	copied := *m.lastOrder
	if status, ok := m.statuses[id]; ok {
		copied.Status = status
	}
	return &copied, nil
}

func (m *mockOrderRepo) List(_ context.Context, _ Filter) ([]Order, error) {
	if m.lastOrder == nil {
		return nil, nil
	}
	return []Order{*m.lastOrder}, nil
}

func (m *mockOrderRepo) SetStatus(_ context.Context, id string, status Status) error {
	if m.statuses == nil {
		m.statuses = make(map[string]Status)
	}
	m.statuses[id] = status
	return nil
}

// --- Helpers ---

func activeCart(coupon string) *cart.Cart {
	return &cart.Cart{
		ID:         "cart-1",
		CustomerID: "cust-1",
		Status:     cart.StatusActive,
		CouponCode: coupon,
	}
}

func cartLine(productID string, qty int, price string) cart.Item {
	return cart.Item{
		ID:        "item-" + productID,
		CartID:    "cart-1",
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func newTestWorkflow(carts *mockCartSource, ledger *mockLedger, repo *mockOrderRepo) *Workflow {
	return NewWorkflow(repo, carts, ledger, &mockAddresses{known: map[string]bool{"addr-1": true}})
}

// --- Tests ---

func TestCreateFromCart_NoCoupon(t *testing.T) {
	carts := &mockCartSource{
		cart: activeCart(""),
		items: []cart.Item{
			cartLine("bowl-caesar", 2, "11.50"),
			cartLine("drink-kombucha", 3, "4.50"),
		},
	}
	repo := &mockOrderRepo{}
	w := newTestWorkflow(carts, &mockLedger{}, repo)

	o, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
		Shipping:  decimal.RequireFromString("3.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "cust-1", o.CustomerID)
	assert.True(t, o.Subtotal.Equal(decimal.RequireFromString("36.50")))
	assert.True(t, o.Discount.IsZero())
	assert.True(t, o.Total.Equal(decimal.RequireFromString("39.50")))
	assert.Len(t, o.Lines, 2)
	assert.Equal(t, "cart-1", repo.lastCartID)
}

func TestCreateFromCart_LinesSnapshotCart(t *testing.T) {
	carts := &mockCartSource{
		cart:  activeCart(""),
		items: []cart.Item{cartLine("p1", 2, "10.00")},
	}
	repo := &mockOrderRepo{}
	w := newTestWorkflow(carts, &mockLedger{}, repo)

	o, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
	})
	require.NoError(t, err)

	require.Len(t, o.Lines, 1)
	line := o.Lines[0]
	assert.Equal(t, o.ID, line.OrderID)
	assert.Equal(t, "p1", line.ProductID)
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestCreateFromCart_WithCoupon(t *testing.T) {
	carts := &mockCartSource{
		cart:  activeCart("WELCOME10"),
		items: []cart.Item{cartLine("p1", 1, "100.00")},
	}
	ledger := &mockLedger{terms: &coupon.Terms{Percentage: decimal.NewFromInt(10)}}
	repo := &mockOrderRepo{}
	w := newTestWorkflow(carts, ledger, repo)

	o, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
		Shipping:  decimal.RequireFromString("15.00"),
	})
	require.NoError(t, err)

	assert.True(t, o.Subtotal.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, o.Discount.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, o.Total.Equal(decimal.RequireFromString("105.00")))
	assert.Equal(t, "WELCOME10", o.CouponCode)
	assert.Equal(t, []string{"WELCOME10"}, ledger.redeemed)
}

func TestCreateFromCart_CouponExhaustedAtCommit(t *testing.T) {
	carts := &mockCartSource{
		cart:  activeCart("LIMITED"),
		items: []cart.Item{cartLine("p1", 1, "50.00")},
	}
	ledger := &mockLedger{
		terms:     &coupon.Terms{Percentage: decimal.NewFromInt(10)},
		redeemErr: coupon.ErrExhausted,
	}
	repo := &mockOrderRepo{}
	w := newTestWorkflow(carts, ledger, repo)

	_, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
	})
	require.ErrorIs(t, err, ErrCouponExhausted)
	assert.Nil(t, repo.lastOrder, "no order may be created when redemption loses")
}

func TestCreateFromCart_StaleCouponRevalidated(t *testing.T) {
	carts := &mockCartSource{
		cart:  activeCart("EXPIRED"),
		items: []cart.Item{cartLine("p1", 1, "50.00")},
	}
	ledger := &mockLedger{validateErr: coupon.ErrExpired}
	repo := &mockOrderRepo{}
	w := newTestWorkflow(carts, ledger, repo)

	_, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
	})
	require.ErrorIs(t, err, coupon.ErrExpired)
	assert.Empty(t, ledger.redeemed)
	assert.Nil(t, repo.lastOrder)
}

func TestCreateFromCart_EmptyCart(t *testing.T) {
	carts := &mockCartSource{cart: activeCart("")}
	w := newTestWorkflow(carts, &mockLedger{}, &mockOrderRepo{})

	_, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
	})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateFromCart_CartNotActive(t *testing.T) {
	converted := activeCart("")
	converted.Status = cart.StatusConverted
	carts := &mockCartSource{
		cart:  converted,
		items: []cart.Item{cartLine("p1", 1, "10.00")},
	}
	w := newTestWorkflow(carts, &mockLedger{}, &mockOrderRepo{})

	_, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
	})
	require.ErrorIs(t, err, ErrCartNotActive)
}

func TestCreateFromCart_UnknownCart(t *testing.T) {
	w := newTestWorkflow(&mockCartSource{}, &mockLedger{}, &mockOrderRepo{})

	_, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "ghost",
		AddressID: "addr-1",
	})
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestCreateFromCart_UnknownAddress(t *testing.T) {
	carts := &mockCartSource{
		cart:  activeCart(""),
		items: []cart.Item{cartLine("p1", 1, "10.00")},
	}
	w := newTestWorkflow(carts, &mockLedger{}, &mockOrderRepo{})

	_, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "ghost",
	})
	require.ErrorIs(t, err, ErrAddressNotFound)
}

func TestCreateFromCart_DiscountNeverPushesTotalNegative(t *testing.T) {
	carts := &mockCartSource{
		cart:  activeCart("MEGA"),
		items: []cart.Item{cartLine("p1", 1, "5.00")},
	}
	ledger := &mockLedger{terms: &coupon.Terms{
		Percentage: decimal.NewFromInt(100),
		Fixed:      decimal.NewFromInt(50),
	}}
	w := newTestWorkflow(carts, ledger, &mockOrderRepo{})

	o, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
	})
	require.NoError(t, err)
	assert.True(t, o.Total.GreaterThanOrEqual(decimal.Zero))
}

func TestTransition(t *testing.T) {
	carts := &mockCartSource{
		cart:  activeCart(""),
		items: []cart.Item{cartLine("p1", 1, "10.00")},
	}
	repo := &mockOrderRepo{}
	w := newTestWorkflow(carts, &mockLedger{}, repo)

	o, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
	})
	require.NoError(t, err)

	// Walk the happy path.
	for _, target := range []Status{StatusConfirmed, StatusPreparing, StatusShipped, StatusDelivered} {
		got, err := w.Transition(context.Background(), o.ID, target)
		require.NoError(t, err)
		assert.Equal(t, target, got.Status)
	}

	// Terminal: nothing leaves delivered.
	_, err = w.Transition(context.Background(), o.ID, StatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_SkippingStepRejected(t *testing.T) {
	carts := &mockCartSource{
		cart:  activeCart(""),
		items: []cart.Item{cartLine("p1", 1, "10.00")},
	}
	repo := &mockOrderRepo{}
	w := newTestWorkflow(carts, &mockLedger{}, repo)

	o, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
	})
	require.NoError(t, err)

	_, err = w.Transition(context.Background(), o.ID, StatusShipped)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = w.Transition(context.Background(), o.ID, Status("bogus"))
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name    string
		prep    []Status
		wantErr error
	}{
		{name: "from pending", prep: nil},
		{name: "from confirmed", prep: []Status{StatusConfirmed}},
		{name: "from preparing", prep: []Status{StatusConfirmed, StatusPreparing}},
		{
			name:    "from shipped fails",
			prep:    []Status{StatusConfirmed, StatusPreparing, StatusShipped},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "from delivered fails",
			prep:    []Status{StatusConfirmed, StatusPreparing, StatusShipped, StatusDelivered},
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carts := &mockCartSource{
				cart:  activeCart(""),
				items: []cart.Item{cartLine("p1", 1, "10.00")},
			}
			repo := &mockOrderRepo{}
			w := newTestWorkflow(carts, &mockLedger{}, repo)

			o, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
				CartID:    "cart-1",
				AddressID: "addr-1",
			})
			require.NoError(t, err)

			for _, target := range tt.prep {
				_, err := w.Transition(context.Background(), o.ID, target)
				require.NoError(t, err)
			}

			got, err := w.Cancel(context.Background(), o.ID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusCancelled, got.Status)
		})
	}
}

func TestCancel_RecordRetained(t *testing.T) {
	carts := &mockCartSource{
		cart:  activeCart(""),
		items: []cart.Item{cartLine("p1", 1, "10.00")},
	}
	repo := &mockOrderRepo{}
	w := newTestWorkflow(carts, &mockLedger{}, repo)

	o, err := w.CreateFromCart(context.Background(), CreateFromCartRequest{
		CartID:    "cart-1",
		AddressID: "addr-1",
	})
	require.NoError(t, err)

	_, err = w.Cancel(context.Background(), o.ID)
	require.NoError(t, err)

	got, err := w.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.True(t, got.Total.Equal(o.Total), "cancellation must not touch monetary fields")
}
