package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPaymentRepo struct {
	payments map[string]*Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[string]*Payment)}
}

func (m *memPaymentRepo) Create(_ context.Context, p *Payment) error {
	copied := *p
	m.payments[p.ID] = &copied
	return nil
}

func (m *memPaymentRepo) GetByID(_ context.Context, id string) (*Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *memPaymentRepo) ListByOrder(_ context.Context, orderID string) ([]Payment, error) {
	var out []Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) SetStatus(_ context.Context, id string, status Status) error {
	p, ok := m.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusRefunded, false},
		{StatusApproved, StatusRefunded, true},
		{StatusApproved, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusPending, false},
		{StatusRefunded, StatusApproved, false},
		{StatusRefunded, StatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestCreate_StartsPending(t *testing.T) {
	svc := NewService(newMemPaymentRepo())

	p, err := svc.Create(context.Background(), CreateRequest{
		OrderID: "order-1",
		Gateway: "stripe",
		Method:  "card",
		Amount:  decimal.RequireFromString("39.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestCreate_NegativeAmount(t *testing.T) {
	svc := NewService(newMemPaymentRepo())

	_, err := svc.Create(context.Background(), CreateRequest{
		OrderID: "order-1",
		Gateway: "stripe",
		Method:  "card",
		Amount:  decimal.NewFromInt(-1),
	})
	require.Error(t, err)
}

func TestTransition_ApproveThenRefund(t *testing.T) {
	svc := NewService(newMemPaymentRepo())

	p, err := svc.Create(context.Background(), CreateRequest{
		OrderID: "order-1", Gateway: "stripe", Method: "card",
		Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	p, err = svc.Transition(context.Background(), p.ID, StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, p.Status)

	p, err = svc.Transition(context.Background(), p.ID, StatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, p.Status)

	_, err = svc.Transition(context.Background(), p.ID, StatusApproved)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransition_RejectedIsTerminal(t *testing.T) {
	svc := NewService(newMemPaymentRepo())

	p, err := svc.Create(context.Background(), CreateRequest{
		OrderID: "order-1", Gateway: "stripe", Method: "card",
		Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	p, err = svc.Transition(context.Background(), p.ID, StatusRejected)
	require.NoError(t, err)

	for _, target := range []Status{StatusApproved, StatusPending, StatusRefunded} {
		_, err = svc.Transition(context.Background(), p.ID, target)
		require.ErrorIs(t, err, ErrInvalidTransition, "rejected -> %s", target)
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	svc := NewService(newMemPaymentRepo())

	p, err := svc.Create(context.Background(), CreateRequest{
		OrderID: "order-1", Gateway: "stripe", Method: "card",
		Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), p.ID, Status("chargeback"))
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRetryAfterRejectionIsNewAttempt(t *testing.T) {
	repo := newMemPaymentRepo()
	svc := NewService(repo)

	first, err := svc.Create(context.Background(), CreateRequest{
		OrderID: "order-1", Gateway: "stripe", Method: "card",
		Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	_, err = svc.Transition(context.Background(), first.ID, StatusRejected)
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), CreateRequest{
		OrderID: "order-1", Gateway: "stripe", Method: "card",
		Amount: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	attempts, err := svc.ListByOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Len(t, attempts, 2)

	// The rejected attempt is untouched by the retry.
	got, err := svc.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)
}
