package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xenking/freshbowl/internal/domain/payment"
)

type paymentResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Gateway   string    `json:"gateway"`
	Method    string    `json:"method"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toPaymentResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Gateway:   p.Gateway,
		Method:    p.Method,
		Amount:    p.Amount.InexactFloat64(),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
	}
}

// CreatePayment records a new pending payment attempt against an order.
// Retrying after a rejection creates a fresh attempt.
func (h *Handler) CreatePayment(c *gin.Context) {
	var req struct {
		OrderID string  `json:"order_id" binding:"required"`
		Gateway string  `json:"gateway" binding:"required"`
		Method  string  `json:"method" binding:"required"`
		Amount  float64 `json:"amount" binding:"required"`
		Token   string  `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "order_id, gateway, method, and amount are required")
		return
	}
	if req.Amount < 0 {
		badRequest(c, "amount must not be negative")
		return
	}

	p, err := h.payments.Create(c.Request.Context(), payment.CreateRequest{
		OrderID: req.OrderID,
		Gateway: req.Gateway,
		Method:  req.Method,
		Amount:  decimal.NewFromFloat(req.Amount),
		Token:   req.Token,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(p))
}

// GetPayment returns a payment attempt by id.
func (h *Handler) GetPayment(c *gin.Context) {
	p, err := h.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(p))
}

// ListOrderPayments returns every payment attempt for an order, oldest first.
func (h *Handler) ListOrderPayments(c *gin.Context) {
	payments, err := h.payments.ListByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i := range payments {
		resp[i] = toPaymentResponse(&payments[i])
	}
	c.JSON(http.StatusOK, gin.H{"payments": resp})
}

// ConfirmPayment approves a payment and confirms its order in one call.
func (h *Handler) ConfirmPayment(c *gin.Context) {
	o, p, err := h.checkout.ConfirmPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":   toOrderResponse(o),
		"payment": toPaymentResponse(p),
	})
}

// TransitionPayment moves a payment attempt along its state machine.
// Approval always goes through the checkout facade so the order is confirmed
// in the same call and a second approval on a paid order is refused.
func (h *Handler) TransitionPayment(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	if payment.Status(req.Status) == payment.StatusApproved {
		h.ConfirmPayment(c)
		return
	}

	p, err := h.payments.Transition(c.Request.Context(), c.Param("id"), payment.Status(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(p))
}
