package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/freshbowl/internal/domain/address"
)

const (
	createAddressSQL = `INSERT INTO addresses (id, customer_id, street, city, region, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getAddressByIDSQL = `SELECT id, customer_id, street, city, region, notes
		FROM addresses WHERE id = $1`

	listAddressesByCustomerSQL = `SELECT id, customer_id, street, city, region, notes
		FROM addresses WHERE customer_id = $1 ORDER BY id`

	addressExistsSQL = `SELECT EXISTS (SELECT 1 FROM addresses WHERE id = $1)`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create inserts a new address.
func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	_, err := r.pool.Exec(ctx, createAddressSQL,
		a.ID, a.CustomerID, a.Street, a.City, a.Region, a.Notes,
	)
	if err != nil {
		return fmt.Errorf("creating address %q: %w", a.ID, err)
	}
	return nil
}

// GetByID returns an address by id.
func (r *AddressRepository) GetByID(ctx context.Context, id string) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}
	return &a, nil
}

// ListByCustomer returns the customer's address book.
func (r *AddressRepository) ListByCustomer(ctx context.Context, customerID string) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesByCustomerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses of %q: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanAddress)
}

// Exists reports whether the address id is known.
func (r *AddressRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, addressExistsSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking address %q: %w", id, err)
	}
	return exists, nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var a address.Address
	err := row.Scan(&a.ID, &a.CustomerID, &a.Street, &a.City, &a.Region, &a.Notes)
	return a, err
}
