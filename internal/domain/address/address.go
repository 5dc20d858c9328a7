// Package address is the delivery address collaborator. The order workflow
// only consults existence; the address book itself is plain CRUD.
package address

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when an address id is unknown.
var ErrNotFound = errors.New("address not found")

// Address is a delivery destination owned by a customer.
type Address struct {
	ID         string
	CustomerID string
	Street     string
	City       string
	Region     string
	Notes      string
}

// Repository provides address persistence and the existence check consumed
// by the order workflow.
type Repository interface {
	Create(ctx context.Context, a *Address) error
	GetByID(ctx context.Context, id string) (*Address, error)
	ListByCustomer(ctx context.Context, customerID string) ([]Address, error)
	Exists(ctx context.Context, id string) (bool, error)
}
