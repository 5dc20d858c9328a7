package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xenking/freshbowl/internal/domain/coupon"
)

type couponResponse struct {
	Code       string     `json:"code"`
	Percentage float64    `json:"percentage"`
	Fixed      float64    `json:"fixed"`
	ValidFrom  *time.Time `json:"valid_from,omitempty"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
	MaxUses    int        `json:"max_uses"`
	Uses       int        `json:"uses"`
	Active     bool       `json:"active"`
}

func toCouponResponse(c *coupon.Coupon) couponResponse {
	return couponResponse{
		Code:       c.Code,
		Percentage: c.Percentage.InexactFloat64(),
		Fixed:      c.Fixed.InexactFloat64(),
		ValidFrom:  c.ValidFrom,
		ValidUntil: c.ValidUntil,
		MaxUses:    c.MaxUses,
		Uses:       c.Uses,
		Active:     c.Active,
	}
}

// CreateCoupon registers a new discount code. max_uses of zero means
// unlimited.
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req struct {
		Code       string     `json:"code" binding:"required"`
		Percentage float64    `json:"percentage"`
		Fixed      float64    `json:"fixed"`
		ValidFrom  *time.Time `json:"valid_from"`
		ValidUntil *time.Time `json:"valid_until"`
		MaxUses    int        `json:"max_uses"`
		Active     *bool      `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	if req.Percentage < 0 || req.Percentage > 100 {
		badRequest(c, "percentage must be between 0 and 100")
		return
	}
	if req.Fixed < 0 {
		badRequest(c, "fixed must not be negative")
		return
	}
	if req.MaxUses < 0 {
		badRequest(c, "max_uses must not be negative")
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	created := &coupon.Coupon{
		Code:       req.Code,
		Percentage: decimal.NewFromFloat(req.Percentage),
		Fixed:      decimal.NewFromFloat(req.Fixed),
		ValidFrom:  req.ValidFrom,
		ValidUntil: req.ValidUntil,
		MaxUses:    req.MaxUses,
		Active:     active,
	}
	if err := h.coupons.Create(c.Request.Context(), created); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCouponResponse(created))
}

// ValidateCoupon checks a code without consuming a use and returns the
// discount it would grant on the given subtotal.
func (h *Handler) ValidateCoupon(c *gin.Context) {
	var req struct {
		Code     string  `json:"code" binding:"required"`
		Subtotal float64 `json:"subtotal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "code is required")
		return
	}
	if req.Subtotal < 0 {
		badRequest(c, "subtotal must not be negative")
		return
	}

	terms, err := h.coupons.Validate(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	subtotal := decimal.NewFromFloat(req.Subtotal)
	c.JSON(http.StatusOK, gin.H{
		"code":       req.Code,
		"percentage": terms.Percentage.InexactFloat64(),
		"fixed":      terms.Fixed.InexactFloat64(),
		"discount":   terms.Discount(subtotal).InexactFloat64(),
	})
}

// GetCoupon returns a coupon with its usage counter.
func (h *Handler) GetCoupon(c *gin.Context) {
	found, err := h.coupons.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCouponResponse(found))
}
