package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/freshbowl/internal/checkout"
	"github.com/xenking/freshbowl/internal/domain/address"
	"github.com/xenking/freshbowl/internal/domain/cart"
	"github.com/xenking/freshbowl/internal/domain/catalog"
	"github.com/xenking/freshbowl/internal/domain/coupon"
	"github.com/xenking/freshbowl/internal/domain/order"
	"github.com/xenking/freshbowl/internal/domain/payment"
	"github.com/xenking/freshbowl/internal/domain/shipment"
)

// errorResponse is the uniform error body: a machine-readable code mirroring
// the HTTP status and a human-readable message.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// statusOf maps domain sentinel errors onto HTTP status codes. Unknown
// errors map to 500 and are logged by respondError; their text is never
// leaked to clients.
func statusOf(err error) int {
	switch {
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrNoActiveCart),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, address.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrAddressNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, shipment.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, cart.ErrActiveCartExists),
		errors.Is(err, cart.ErrNotActive),
		errors.Is(err, order.ErrCartNotActive),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, payment.ErrInvalidTransition),
		errors.Is(err, shipment.ErrInvalidTransition),
		errors.Is(err, coupon.ErrDuplicateCode),
		errors.Is(err, checkout.ErrAlreadyPaid):
		return http.StatusConflict

	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrNotYetValid),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrExhausted),
		errors.Is(err, order.ErrCouponExhausted):
		return http.StatusUnprocessableEntity

	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, shipment.ErrInvalidType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the JSON error body for err and aborts the request.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, errorResponse{Code: status, Message: msg})
}

// badRequest writes a 400 for malformed request bodies or parameters.
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Code:    http.StatusBadRequest,
		Message: msg,
	})
}
