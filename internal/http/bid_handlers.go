package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shipbridge/shipbridge/internal/http/middleware"
	"github.com/shipbridge/shipbridge/internal/service"
)

type createBidRequest struct {
	ShipmentID string  `json:"shipmentId" binding:"required"`
	Price      float64 `json:"price" binding:"required"`
	Currency   string  `json:"currency"`
	ETA        string  `json:"eta" binding:"required"`
	Message    string  `json:"message"`
}

func (h *Handler) createBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req createBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shipmentID, err := uuid.Parse(strings.TrimSpace(req.ShipmentID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid shipmentId"})
		return
	}

	bid, err := h.bids.Create(c.Request.Context(), principal, service.CreateBidInput{
		ShipmentID: shipmentID,
		Price:      req.Price,
		Currency:   req.Currency,
		ETA:        req.ETA,
		Message:    req.Message,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBidResponse(*bid))
}

func (h *Handler) bidsForShipment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	bids, err := h.bids.ListForShipment(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBidResponses(bids))
}

func (h *Handler) myBids(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	bids, err := h.bids.MyBids(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBidResponses(bids))
}

func (h *Handler) bidsOnMyShipments(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	bids, err := h.bids.OnMyShipments(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBidResponses(bids))
}

func (h *Handler) acceptBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	bid, err := h.bids.Accept(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBidResponse(*bid))
}

func (h *Handler) rejectBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	bid, err := h.bids.Reject(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBidResponse(*bid))
}

type updateBidRequest struct {
	Price    float64 `json:"price" binding:"required"`
	Currency string  `json:"currency"`
	ETA      string  `json:"eta" binding:"required"`
	Message  string  `json:"message"`
}

func (h *Handler) updateBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.bids.Update(c.Request.Context(), principal, id, service.UpdateBidInput{
		Price:    req.Price,
		Currency: req.Currency,
		ETA:      req.ETA,
		Message:  req.Message,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBidResponse(*bid))
}

func (h *Handler) cancelBid(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.bids.Cancel(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type priceUpdateRequest struct {
	Message string `json:"message"`
}

func (h *Handler) requestBidPriceUpdate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req priceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.bids.RequestPriceUpdate(c.Request.Context(), principal, id, req.Message)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBidResponse(*bid))
}
