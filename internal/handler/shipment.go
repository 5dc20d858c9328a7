package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xenking/freshbowl/internal/domain/shipment"
)

type shipmentResponse struct {
	ID           string     `json:"id"`
	OrderID      string     `json:"order_id"`
	Type         string     `json:"type"`
	Carrier      string     `json:"carrier,omitempty"`
	TrackingCode string     `json:"tracking_code,omitempty"`
	ETA          *time.Time `json:"eta,omitempty"`
	Status       string     `json:"status"`
}

func toShipmentResponse(s *shipment.Shipment) shipmentResponse {
	return shipmentResponse{
		ID:           s.ID,
		OrderID:      s.OrderID,
		Type:         string(s.Type),
		Carrier:      s.Carrier,
		TrackingCode: s.TrackingCode,
		ETA:          s.ETA,
		Status:       string(s.Status),
	}
}

// GetShipment returns a shipment by id.
func (h *Handler) GetShipment(c *gin.Context) {
	s, err := h.shipments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponse(s))
}

// TrackShipment returns the shipment carrying the given tracking code.
func (h *Handler) TrackShipment(c *gin.Context) {
	s, err := h.shipments.GetByTracking(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponse(s))
}

// ListShipments returns shipments in the state given by ?status=.
func (h *Handler) ListShipments(c *gin.Context) {
	status := shipment.Status(c.Query("status"))
	if !status.Valid() {
		badRequest(c, "unknown shipment status")
		return
	}

	shipments, err := h.shipments.ListByStatus(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]shipmentResponse, len(shipments))
	for i := range shipments {
		resp[i] = toShipmentResponse(&shipments[i])
	}
	c.JSON(http.StatusOK, gin.H{"shipments": resp})
}

// TransitionShipment advances a shipment one step along its linear path.
func (h *Handler) TransitionShipment(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	s, err := h.shipments.UpdateStatus(c.Request.Context(), c.Param("id"), shipment.Status(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponse(s))
}
