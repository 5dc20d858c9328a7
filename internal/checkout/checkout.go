// Package checkout is the orchestration facade: the only component that
// knows cart, order, payment, and shipment at once, sequencing cross-entity
// operations for the API layer. There is no cross-entity transaction here;
// each half-applied sequence is surfaced, never silently rolled back.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/freshbowl/internal/domain/cart"
	"github.com/xenking/freshbowl/internal/domain/order"
	"github.com/xenking/freshbowl/internal/domain/payment"
	"github.com/xenking/freshbowl/internal/domain/shipment"
)

// ErrAlreadyPaid is returned when approving a payment for an order that
// already has an approved payment. An order is paid when at least one of its
// payments is approved; this facade is where that uniqueness lives.
var ErrAlreadyPaid = errors.New("order already has an approved payment")

// Service sequences the order fulfillment workflow across components.
type Service struct {
	carts     *cart.Manager
	orders    *order.Workflow
	payments  *payment.Service
	shipments *shipment.Service
	lg        *zap.Logger
}

// NewService creates the checkout facade.
func NewService(
	carts *cart.Manager,
	orders *order.Workflow,
	payments *payment.Service,
	shipments *shipment.Service,
	lg *zap.Logger,
) *Service {
	return &Service{
		carts:     carts,
		orders:    orders,
		payments:  payments,
		shipments: shipments,
		lg:        lg,
	}
}

// PlaceOrderRequest holds the input for converting a customer's active cart
// into an order, optionally opening a pending payment in the same call.
type PlaceOrderRequest struct {
	CustomerID string
	AddressID  string
	Shipping   decimal.Decimal

	// Gateway and Method, when set, open a pending payment for the new
	// order's total.
	Gateway string
	Method  string
}

// PlaceOrderResult is the outcome of a placed order.
type PlaceOrderResult struct {
	Order   *order.Order
	Payment *payment.Payment
}

// PlaceOrder reads the customer's active cart, creates the order from it,
// and optionally records a pending payment. A payment-creation failure after
// a committed order is reported but does not undo the order.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	c, err := s.carts.GetActive(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.CreateFromCart(ctx, order.CreateFromCartRequest{
		CartID:    c.ID,
		AddressID: req.AddressID,
		Shipping:  req.Shipping,
	})
	if err != nil {
		return nil, err
	}

	result := &PlaceOrderResult{Order: o}
	if req.Gateway == "" {
		return result, nil
	}

	p, err := s.payments.Create(ctx, payment.CreateRequest{
		OrderID: o.ID,
		Gateway: req.Gateway,
		Method:  req.Method,
		Amount:  o.Total,
	})
	if err != nil {
		// The order is committed; surface the stranded state to operators
		// instead of failing the placement.
		s.lg.Error("order placed but pending payment creation failed",
			zap.String("order_id", o.ID),
			zap.String("gateway", req.Gateway),
			zap.Error(err),
		)
		return result, nil
	}
	result.Payment = p
	return result, nil
}

// ConfirmPaid approves a payment and then confirms its order, in that
// order. If the order transition fails after the approval, the payment
// stays approved and the inconsistency is logged as an operator-visible
// alert; the error is returned to the caller untouched.
func (s *Service) ConfirmPaid(ctx context.Context, paymentID string) (*order.Order, *payment.Payment, error) {
	p, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}

	// An order is treated as paid when at least one approved payment
	// exists; approving a second one is a conflict.
	existing, err := s.payments.ListByOrder(ctx, p.OrderID)
	if err != nil {
		return nil, nil, err
	}
	for _, other := range existing {
		if other.ID != p.ID && other.Status == payment.StatusApproved {
			return nil, nil, ErrAlreadyPaid
		}
	}

	p, err = s.payments.Transition(ctx, paymentID, payment.StatusApproved)
	if err != nil {
		return nil, nil, err
	}

	o, err := s.orders.Transition(ctx, p.OrderID, order.StatusConfirmed)
	if err != nil {
		s.lg.Error("payment approved but order confirmation failed; manual reconciliation required",
			zap.String("alert", "payment_order_mismatch"),
			zap.String("payment_id", p.ID),
			zap.String("order_id", p.OrderID),
			zap.Error(err),
		)
		return nil, p, err
	}
	return o, p, nil
}

// Dispatch opens a shipment for a confirmed-or-later order and moves the
// order to shipped when the shipment leaves. The two steps are independent
// state machines; Dispatch only creates the shipment record.
func (s *Service) Dispatch(ctx context.Context, orderID string, sh *shipment.Shipment) (*shipment.Shipment, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	sh.OrderID = o.ID
	if sh.ETA == nil && sh.Type == shipment.TypeDelivery {
		eta := time.Now().Add(45 * time.Minute)
		sh.ETA = &eta
	}
	created, err := s.shipments.Create(ctx, sh)
	if err != nil {
		return nil, err
	}
	return created, nil
}
