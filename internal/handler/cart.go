package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xenking/freshbowl/internal/domain/cart"
)

type cartResponse struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	Status     string    `json:"status"`
	CouponCode string    `json:"coupon_code,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type cartItemResponse struct {
	ID        string  `json:"id"`
	CartID    string  `json:"cart_id"`
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func toCartResponse(c *cart.Cart) cartResponse {
	return cartResponse{
		ID:         c.ID,
		CustomerID: c.CustomerID,
		Status:     string(c.Status),
		CouponCode: c.CouponCode,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toCartItemResponse(item *cart.Item) cartItemResponse {
	return cartItemResponse{
		ID:        item.ID,
		CartID:    item.CartID,
		ProductID: item.ProductID,
		VariantID: item.VariantID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice.InexactFloat64(),
	}
}

// CreateCart opens a new active cart for a customer.
func (h *Handler) CreateCart(c *gin.Context) {
	var req struct {
		CustomerID string `json:"customer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "customer_id is required")
		return
	}

	created, err := h.carts.Create(c.Request.Context(), req.CustomerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCartResponse(created))
}

// GetCart returns a cart by id.
func (h *Handler) GetCart(c *gin.Context) {
	found, err := h.carts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(found))
}

// GetActiveCart returns the customer's single active cart.
func (h *Handler) GetActiveCart(c *gin.Context) {
	found, err := h.carts.GetActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(found))
}

// AddCartItem appends a line to an active cart at the current catalog price.
func (h *Handler) AddCartItem(c *gin.Context) {
	var req struct {
		ProductID string `json:"product_id" binding:"required"`
		VariantID string `json:"variant_id"`
		Quantity  int    `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id and quantity are required")
		return
	}

	item, err := h.carts.AddItem(c.Request.Context(), c.Param("id"), cart.AddItemRequest{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCartItemResponse(item))
}

// UpdateCartItem applies a partial update to a cart line. Absent fields keep
// their stored values.
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req struct {
		Quantity  *int     `json:"quantity"`
		UnitPrice *float64 `json:"unit_price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	patch := cart.ItemPatch{Quantity: req.Quantity}
	if req.UnitPrice != nil {
		price := decimal.NewFromFloat(*req.UnitPrice)
		patch.UnitPrice = &price
	}

	item, err := h.carts.UpdateItem(c.Request.Context(), c.Param("itemID"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartItemResponse(item))
}

// RemoveCartItem deletes a cart line. The cart remains even when its last
// item is removed.
func (h *Handler) RemoveCartItem(c *gin.Context) {
	if err := h.carts.RemoveItem(c.Request.Context(), c.Param("itemID")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListCartItems returns all lines of a cart.
func (h *Handler) ListCartItems(c *gin.Context) {
	items, err := h.carts.ListItems(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]cartItemResponse, len(items))
	for i := range items {
		resp[i] = toCartItemResponse(&items[i])
	}
	c.JSON(http.StatusOK, gin.H{"items": resp})
}

// ApplyCoupon validates a coupon code and stores it on the cart. The code is
// not redeemed until the cart becomes an order.
func (h *Handler) ApplyCoupon(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}

	if err := h.carts.ApplyCoupon(c.Request.Context(), c.Param("id"), req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": req.Code})
}

// ClearCoupon removes the applied coupon code from the cart.
func (h *Handler) ClearCoupon(c *gin.Context) {
	if err := h.carts.ClearCoupon(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
