package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/xenking/freshbowl/internal/domain/address"
)

type addressResponse struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func toAddressResponse(a *address.Address) addressResponse {
	return addressResponse{
		ID:         a.ID,
		CustomerID: a.CustomerID,
		Street:     a.Street,
		City:       a.City,
		Region:     a.Region,
		Notes:      a.Notes,
	}
}

// CreateAddress stores a new delivery address for a customer.
func (h *Handler) CreateAddress(c *gin.Context) {
	var req struct {
		CustomerID string `json:"customer_id" binding:"required"`
		Street     string `json:"street" binding:"required"`
		City       string `json:"city" binding:"required"`
		Region     string `json:"region"`
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "customer_id, street, and city are required")
		return
	}

	a := &address.Address{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		Street:     req.Street,
		City:       req.City,
		Region:     req.Region,
		Notes:      req.Notes,
	}
	if err := h.addresses.Create(c.Request.Context(), a); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAddressResponse(a))
}

// GetAddress returns an address by id.
func (h *Handler) GetAddress(c *gin.Context) {
	a, err := h.addresses.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAddressResponse(a))
}

// ListAddresses returns the customer's address book.
func (h *Handler) ListAddresses(c *gin.Context) {
	list, err := h.addresses.ListByCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]addressResponse, len(list))
	for i := range list {
		resp[i] = toAddressResponse(&list[i])
	}
	c.JSON(http.StatusOK, gin.H{"addresses": resp})
}
