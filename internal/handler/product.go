package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xenking/freshbowl/internal/domain/catalog"
)

type variantResponse struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type productResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Category  string            `json:"category"`
	Price     float64           `json:"price"`
	Available bool              `json:"available"`
	Variants  []variantResponse `json:"variants,omitempty"`
}

func toProductResponse(p *catalog.Product) productResponse {
	resp := productResponse{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price.InexactFloat64(),
		Available: p.Available,
	}
	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, variantResponse{
			ID:    v.ID,
			Name:  v.Name,
			Price: v.Price.InexactFloat64(),
		})
	}
	return resp
}

// ListProducts returns the full catalog.
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i := range products {
		resp[i] = toProductResponse(&products[i])
	}
	c.JSON(http.StatusOK, gin.H{"products": resp})
}

// GetProduct returns a single product with its variants.
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}
