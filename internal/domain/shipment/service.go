package shipment

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service implements the shipment workflow.
type Service struct {
	repo Repository
}

// NewService creates a shipment Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create opens a shipment in the pending state.
func (s *Service) Create(ctx context.Context, sh *Shipment) (*Shipment, error) {
	if !sh.Type.Valid() {
		return nil, ErrInvalidType
	}

	sh.ID = uuid.New().String()
	sh.Status = StatusPending
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, errors.Wrap(err, "create shipment")
	}
	return sh, nil
}

// Get returns a shipment by id.
func (s *Service) Get(ctx context.Context, id string) (*Shipment, error) {
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get shipment")
	}
	return sh, nil
}

// GetByTracking returns the shipment carrying the given tracking code.
func (s *Service) GetByTracking(ctx context.Context, trackingCode string) (*Shipment, error) {
	sh, err := s.repo.GetByTracking(ctx, trackingCode)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "get shipment by tracking")
	}
	return sh, nil
}

// ListByStatus returns shipments in the given state.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Shipment, error) {
	shipments, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, errors.Wrap(err, "list shipments")
	}
	return shipments, nil
}

// UpdateStatus advances a shipment one step along pending -> en_route ->
// delivered. Any other edge fails with ErrInvalidTransition.
func (s *Service) UpdateStatus(ctx context.Context, id string, target Status) (*Shipment, error) {
	if !target.Valid() {
		return nil, ErrInvalidTransition
	}

	sh, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sh.Status.CanTransitionTo(target) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", sh.Status, target)
	}

	if err := s.repo.SetStatus(ctx, id, target); err != nil {
		return nil, errors.Wrap(err, "set shipment status")
	}
	sh.Status = target
	return sh, nil
}
