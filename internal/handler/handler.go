// Package handler exposes the HTTP API. Handlers parse and validate the
// transport representation, delegate to the domain services, and map domain
// errors onto status codes; no business rules live here.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xenking/freshbowl/internal/checkout"
	"github.com/xenking/freshbowl/internal/domain/address"
	"github.com/xenking/freshbowl/internal/domain/cart"
	"github.com/xenking/freshbowl/internal/domain/catalog"
	"github.com/xenking/freshbowl/internal/domain/coupon"
	"github.com/xenking/freshbowl/internal/domain/order"
	"github.com/xenking/freshbowl/internal/domain/payment"
	"github.com/xenking/freshbowl/internal/domain/shipment"
)

// Handler carries the domain dependencies shared by all HTTP handlers.
type Handler struct {
	catalog   catalog.Repository
	addresses address.Repository
	carts     *cart.Manager
	coupons   *coupon.Ledger
	orders    *order.Workflow
	payments  *payment.Service
	shipments *shipment.Service
	checkout  *checkout.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cat catalog.Repository,
	addresses address.Repository,
	carts *cart.Manager,
	coupons *coupon.Ledger,
	orders *order.Workflow,
	payments *payment.Service,
	shipments *shipment.Service,
	co *checkout.Service,
) *Handler {
	return &Handler{
		catalog:   cat,
		addresses: addresses,
		carts:     carts,
		coupons:   coupons,
		orders:    orders,
		payments:  payments,
		shipments: shipments,
		checkout:  co,
	}
}

// Register mounts all API routes under /api. Routes that change fulfillment
// state from the operations side (status transitions, coupon management)
// additionally require the API key middleware.
func (h *Handler) Register(r *gin.Engine, apiKeyAuth gin.HandlerFunc) {
	api := r.Group("/api")

	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)

	api.POST("/carts", h.CreateCart)
	api.GET("/carts/:id", h.GetCart)
	api.GET("/carts/:id/items", h.ListCartItems)
	api.POST("/carts/:id/items", h.AddCartItem)
	api.PATCH("/carts/:id/items/:itemID", h.UpdateCartItem)
	api.DELETE("/carts/:id/items/:itemID", h.RemoveCartItem)
	api.PUT("/carts/:id/coupon", h.ApplyCoupon)
	api.DELETE("/carts/:id/coupon", h.ClearCoupon)
	api.GET("/customers/:id/cart", h.GetActiveCart)
	api.GET("/customers/:id/orders", h.ListCustomerOrders)
	api.GET("/customers/:id/addresses", h.ListAddresses)

	api.POST("/addresses", h.CreateAddress)
	api.GET("/addresses/:id", h.GetAddress)

	api.POST("/orders", h.PlaceOrder)
	api.GET("/orders/:id", h.GetOrder)
	api.POST("/orders/:id/cancel", h.CancelOrder)
	api.GET("/orders/:id/payments", h.ListOrderPayments)

	api.POST("/payments", h.CreatePayment)
	api.GET("/payments/:id", h.GetPayment)
	api.POST("/payments/:id/confirm", h.ConfirmPayment)

	api.POST("/coupons/validate", h.ValidateCoupon)

	api.GET("/shipments/:id", h.GetShipment)
	api.GET("/tracking/:code", h.TrackShipment)

	ops := api.Group("", apiKeyAuth)
	ops.POST("/coupons", h.CreateCoupon)
	ops.GET("/coupons/:code", h.GetCoupon)
	ops.POST("/orders/:id/status", h.TransitionOrder)
	ops.POST("/orders/:id/dispatch", h.DispatchOrder)
	ops.POST("/payments/:id/status", h.TransitionPayment)
	ops.POST("/shipments/:id/status", h.TransitionShipment)
	ops.GET("/shipments", h.ListShipments)
}
