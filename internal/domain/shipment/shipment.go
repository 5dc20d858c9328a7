// Package shipment tracks delivery or pickup progress for an order,
// independently of payment. The status path is strictly linear; a shipment
// that must stop is superseded by a new shipment or by the order's own
// cancellation, never by mutating its status backwards.
package shipment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Type distinguishes customer pickup from courier delivery.
type Type string

const (
	TypePickup   Type = "pickup"
	TypeDelivery Type = "delivery"
)

// Valid reports whether t is a known shipment type.
func (t Type) Valid() bool {
	return t == TypePickup || t == TypeDelivery
}

// Status is a node in the linear shipment machine.
type Status string

const (
	StatusPending   Status = "pending"
	StatusEnRoute   Status = "en_route"
	StatusDelivered Status = "delivered"
)

// successor maps each status to its single allowed next step. No skipping,
// no backward transitions, no cancellation path.
var successor = map[Status]Status{
	StatusPending: StatusEnRoute,
	StatusEnRoute: StatusDelivered,
}

// Valid reports whether s is a known shipment status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusEnRoute, StatusDelivered:
		return true
	}
	return false
}

// CanTransitionTo reports whether target is the immediate successor of s.
func (s Status) CanTransitionTo(target Status) bool {
	return successor[s] == target
}

var (
	// ErrNotFound is returned when a shipment id is unknown.
	ErrNotFound = errors.New("shipment not found")
	// ErrInvalidTransition is returned for any non-successor status change.
	ErrInvalidTransition = errors.New("invalid shipment status transition")
	// ErrInvalidType is returned for an unknown shipment type.
	ErrInvalidType = errors.New("invalid shipment type")
)

// Shipment records delivery progress. The order association is recorded by
// the caller and not cross-checked at this layer.
type Shipment struct {
	ID           string
	OrderID      string
	Type         Type
	Carrier      string
	TrackingCode string
	ETA          *time.Time
	Status       Status
}

// Repository provides shipment persistence.
type Repository interface {
	Create(ctx context.Context, s *Shipment) error
	GetByID(ctx context.Context, id string) (*Shipment, error)
	GetByTracking(ctx context.Context, trackingCode string) (*Shipment, error)
	ListByStatus(ctx context.Context, status Status) ([]Shipment, error)
	SetStatus(ctx context.Context, id string, status Status) error
}
