// Package payment records payment attempts against orders and drives each
// attempt through its approval state machine. An order may accumulate
// several attempts; uniqueness of approval is a cross-entity concern owned
// by the checkout facade, not this package.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is a node in the per-attempt state machine.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRefunded Status = "refunded"
)

// transitions: pending resolves to approved or rejected; an approved payment
// may later be refunded. rejected and refunded are terminal.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRefunded},
	StatusRejected: {},
	StatusRefunded: {},
}

// Valid reports whether s is a known payment status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether target is a direct successor of s.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

var (
	// ErrNotFound is returned when a payment id is unknown.
	ErrNotFound = errors.New("payment not found")
	// ErrInvalidTransition is returned for a status edge outside the machine.
	ErrInvalidTransition = errors.New("invalid payment status transition")
)

// Payment is one attempt to pay for an order.
type Payment struct {
	ID        string
	OrderID   string
	Gateway   string
	Method    string
	Amount    decimal.Decimal
	Status    Status
	Token     string
	CreatedAt time.Time
}

// Repository provides payment persistence.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
	SetStatus(ctx context.Context, id string, status Status) error
}
