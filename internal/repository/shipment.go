package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/freshbowl/internal/domain/shipment"
)

const (
	createShipmentSQL = `INSERT INTO shipments (id, order_id, type, carrier, tracking_code, eta, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	getShipmentByIDSQL = `SELECT id, order_id, type, carrier, tracking_code, eta, status
		FROM shipments WHERE id = $1`

	getShipmentByTrackingSQL = `SELECT id, order_id, type, carrier, tracking_code, eta, status
		FROM shipments WHERE tracking_code = $1 AND tracking_code <> ''`

	listShipmentsByStatusSQL = `SELECT id, order_id, type, carrier, tracking_code, eta, status
		FROM shipments WHERE status = $1 ORDER BY id`

	setShipmentStatusSQL = `UPDATE shipments SET status = $2 WHERE id = $1`
)

var _ shipment.Repository = (*ShipmentRepository)(nil)

// ShipmentRepository implements shipment.Repository backed by PostgreSQL.
type ShipmentRepository struct {
	pool *pgxpool.Pool
}

// NewShipmentRepository returns a ShipmentRepository that uses the given pool.
func NewShipmentRepository(pool *pgxpool.Pool) *ShipmentRepository {
	return &ShipmentRepository{pool: pool}
}

// Create inserts a new shipment.
func (r *ShipmentRepository) Create(ctx context.Context, s *shipment.Shipment) error {
	_, err := r.pool.Exec(ctx, createShipmentSQL,
		s.ID, s.OrderID, string(s.Type), s.Carrier, s.TrackingCode, s.ETA, string(s.Status),
	)
	if err != nil {
		return fmt.Errorf("creating shipment %q: %w", s.ID, err)
	}
	return nil
}

// GetByID returns a shipment by id.
func (r *ShipmentRepository) GetByID(ctx context.Context, id string) (*shipment.Shipment, error) {
	rows, err := r.pool.Query(ctx, getShipmentByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting shipment %q: %w", id, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanShipment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipment.ErrNotFound
		}
		return nil, fmt.Errorf("getting shipment %q: %w", id, err)
	}
	return &s, nil
}

// GetByTracking returns the shipment with the given non-empty tracking code.
func (r *ShipmentRepository) GetByTracking(ctx context.Context, trackingCode string) (*shipment.Shipment, error) {
	rows, err := r.pool.Query(ctx, getShipmentByTrackingSQL, trackingCode)
	if err != nil {
		return nil, fmt.Errorf("getting shipment by tracking %q: %w", trackingCode, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanShipment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipment.ErrNotFound
		}
		return nil, fmt.Errorf("getting shipment by tracking %q: %w", trackingCode, err)
	}
	return &s, nil
}

// ListByStatus returns shipments in the given state.
func (r *ShipmentRepository) ListByStatus(ctx context.Context, status shipment.Status) ([]shipment.Shipment, error) {
	rows, err := r.pool.Query(ctx, listShipmentsByStatusSQL, string(status))
	if err != nil {
		return nil, fmt.Errorf("listing shipments by status %q: %w", status, err)
	}
	return pgx.CollectRows(rows, scanShipment)
}

// SetStatus persists a status change.
func (r *ShipmentRepository) SetStatus(ctx context.Context, id string, status shipment.Status) error {
	tag, err := r.pool.Exec(ctx, setShipmentStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("setting status on shipment %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shipment.ErrNotFound
	}
	return nil
}

func scanShipment(row pgx.CollectableRow) (shipment.Shipment, error) {
	var (
		s      shipment.Shipment
		typ    string
		status string
		eta    *time.Time
	)
	err := row.Scan(&s.ID, &s.OrderID, &typ, &s.Carrier, &s.TrackingCode, &eta, &status)
	s.Type = shipment.Type(typ)
	s.Status = shipment.Status(status)
	s.ETA = eta
	return s, err
}
