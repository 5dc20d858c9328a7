package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service implements the payment workflow over single records.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a payment Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateRequest holds the input for recording a new payment attempt.
type CreateRequest struct {
	OrderID string
	Gateway string
	Method  string
	Amount  decimal.Decimal
	Token   string
}

// Create records a pending payment attempt against an order. Retrying after
// a rejection creates a fresh record; earlier attempts are never mutated.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Payment, error) {
	if req.Amount.IsNegative() {
		return nil, errors.New("payment amount must not be negative")
	}

	p := &Payment{
		ID:        uuid.New().String(),
		OrderID:   req.OrderID,
		Gateway:   req.Gateway,
		Method:    req.Method,
		Amount:    req.Amount,
		Status:    StatusPending,
		Token:     req.Token,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create payment")
	}
	return p, nil
}

// Get returns a payment by id.
func (s *Service) Get(ctx context.Context, id string) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get payment")
	}
	return p, nil
}

// ListByOrder returns every payment attempt recorded for an order.
func (s *Service) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	payments, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "list payments")
	}
	return payments, nil
}

// Transition moves a payment to target along the per-attempt machine.
func (s *Service) Transition(ctx context.Context, id string, target Status) (*Payment, error) {
	if !target.Valid() {
		return nil, ErrInvalidTransition
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransitionTo(target) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", p.Status, target)
	}

	if err := s.repo.SetStatus(ctx, id, target); err != nil {
		return nil, errors.Wrap(err, "set payment status")
	}
	p.Status = target
	return p, nil
}
