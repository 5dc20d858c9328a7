package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xenking/freshbowl/internal/checkout"
	"github.com/xenking/freshbowl/internal/domain/order"
	"github.com/xenking/freshbowl/internal/domain/shipment"
)

type orderLineResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	CustomerID string              `json:"customer_id"`
	AddressID  string              `json:"address_id"`
	Status     string              `json:"status"`
	CouponCode string              `json:"coupon_code,omitempty"`
	Subtotal   float64             `json:"subtotal"`
	Discount   float64             `json:"discount"`
	Shipping   float64             `json:"shipping"`
	Total      float64             `json:"total"`
	Lines      []orderLineResponse `json:"lines,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

func toOrderResponse(o *order.Order) orderResponse {
	resp := orderResponse{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		AddressID:  o.AddressID,
		Status:     string(o.Status),
		CouponCode: o.CouponCode,
		Subtotal:   o.Subtotal.InexactFloat64(),
		Discount:   o.Discount.InexactFloat64(),
		Shipping:   o.Shipping.InexactFloat64(),
		Total:      o.Total.InexactFloat64(),
		CreatedAt:  o.CreatedAt,
	}
	for _, line := range o.Lines {
		resp.Lines = append(resp.Lines, orderLineResponse{
			ID:        line.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.InexactFloat64(),
		})
	}
	return resp
}

// PlaceOrder converts the customer's active cart into an order and, when a
// gateway is named, opens a pending payment for the total.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req struct {
		CustomerID string  `json:"customer_id" binding:"required"`
		AddressID  string  `json:"address_id" binding:"required"`
		Shipping   float64 `json:"shipping"`
		Gateway    string  `json:"gateway"`
		Method     string  `json:"method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "customer_id and address_id are required")
		return
	}
	if req.Shipping < 0 {
		badRequest(c, "shipping must not be negative")
		return
	}

	result, err := h.checkout.PlaceOrder(c.Request.Context(), checkout.PlaceOrderRequest{
		CustomerID: req.CustomerID,
		AddressID:  req.AddressID,
		Shipping:   decimal.NewFromFloat(req.Shipping),
		Gateway:    req.Gateway,
		Method:     req.Method,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"order": toOrderResponse(result.Order)}
	if result.Payment != nil {
		resp["payment"] = toPaymentResponse(result.Payment)
	}
	c.JSON(http.StatusCreated, resp)
}

// GetOrder returns an order with its lines.
func (h *Handler) GetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

// ListCustomerOrders returns the customer's orders, newest first, optionally
// narrowed by ?status=.
func (h *Handler) ListCustomerOrders(c *gin.Context) {
	f := order.Filter{
		CustomerID: c.Param("id"),
		Status:     order.Status(c.Query("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		badRequest(c, "unknown order status")
		return
	}

	orders, err := h.orders.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	c.JSON(http.StatusOK, gin.H{"orders": resp})
}

// TransitionOrder moves an order one step along the status machine.
func (h *Handler) TransitionOrder(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	o, err := h.orders.Transition(c.Request.Context(), c.Param("id"), order.Status(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

// CancelOrder soft-cancels an order that has not yet shipped.
func (h *Handler) CancelOrder(c *gin.Context) {
	o, err := h.orders.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(o))
}

// DispatchOrder opens a shipment for an order.
func (h *Handler) DispatchOrder(c *gin.Context) {
	var req struct {
		Type         string     `json:"type" binding:"required"`
		Carrier      string     `json:"carrier"`
		TrackingCode string     `json:"tracking_code"`
		ETA          *time.Time `json:"eta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "type is required")
		return
	}

	sh, err := h.checkout.Dispatch(c.Request.Context(), c.Param("id"), &shipment.Shipment{
		Type:         shipment.Type(req.Type),
		Carrier:      req.Carrier,
		TrackingCode: req.TrackingCode,
		ETA:          req.ETA,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toShipmentResponse(sh))
}
