package http

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shipbridge/shipbridge/internal/http/middleware"
	"github.com/shipbridge/shipbridge/internal/model"
	"github.com/shipbridge/shipbridge/internal/service"
)

func (h *Handler) postShipment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form expected"})
		return
	}

	input := service.PostShipmentInput{
		Title:                c.PostForm("title"),
		PickupAddress:        c.PostForm("pickupAddress"),
		PickupCity:           c.PostForm("pickupCity"),
		PickupCountry:        c.PostForm("pickupCountry"),
		DeliveryAddress:      c.PostForm("deliveryAddress"),
		DeliveryCity:         c.PostForm("deliveryCity"),
		DeliveryCountry:      c.PostForm("deliveryCountry"),
		CargoDescription:     c.PostForm("cargoDescription"),
		TransportMode:        model.TransportMode(c.PostForm("transportMode")),
		HandlingInstructions: c.PostForm("handlingInstructions"),
		Currency:             c.PostForm("currency"),
		Insured:              c.PostForm("insured") == "true",
	}

	var parseErr error
	input.WeightKg, parseErr = parseFloatField(c.PostForm("weightKg"), parseErr)
	input.LengthCm, parseErr = parseFloatField(c.PostForm("lengthCm"), parseErr)
	input.WidthCm, parseErr = parseFloatField(c.PostForm("widthCm"), parseErr)
	input.HeightCm, parseErr = parseFloatField(c.PostForm("heightCm"), parseErr)
	input.Budget, parseErr = parseFloatField(c.PostForm("budget"), parseErr)
	if quantity := strings.TrimSpace(c.PostForm("quantity")); quantity != "" && parseErr == nil {
		input.Quantity, parseErr = strconv.Atoi(quantity)
	}
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid numeric field"})
		return
	}

	input.PreferredPickupDate, err = parseDate(c.PostForm("preferredPickupDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preferredPickupDate"})
		return
	}
	input.PreferredDeliveryDate, err = parseDate(c.PostForm("preferredDeliveryDate"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid preferredDeliveryDate"})
		return
	}

	input.Photos, err = h.saveUploads(c, form.File["photos"])
	if err != nil {
		h.handleError(c, err)
		return
	}
	input.Documents, err = h.saveUploads(c, form.File["documents"])
	if err != nil {
		h.handleError(c, err)
		return
	}

	shipment, err := h.shipments.Post(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toShipmentResponse(*shipment))
}

func (h *Handler) saveUploads(c *gin.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(h.uploadsDir, 0o755); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if file.Size > h.maxUpload {
			return nil, fmt.Errorf("%w: file %s exceeds the upload limit", service.ErrInvalidInput, file.Filename)
		}
		name := uuid.NewString() + filepath.Ext(file.Filename)
		if err := c.SaveUploadedFile(file, filepath.Join(h.uploadsDir, name)); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

func parseFloatField(raw string, previous error) (float64, error) {
	if previous != nil {
		return 0, previous
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func (h *Handler) listMyShipments(c *gin.Context) {
	h.listShipments(c, h.shipments.ListMine)
}

func (h *Handler) shipmentHistory(c *gin.Context) {
	h.listShipments(c, h.shipments.History)
}

func (h *Handler) availableShipments(c *gin.Context) {
	h.listShipments(c, h.shipments.Available)
}

func (h *Handler) assignedShipments(c *gin.Context) {
	h.listShipments(c, h.shipments.Assigned)
}

func (h *Handler) deliveredShipments(c *gin.Context) {
	h.listShipments(c, h.shipments.Delivered)
}

func (h *Handler) listShipments(c *gin.Context, list func(ctx context.Context, principal model.Principal) ([]model.Shipment, error)) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	shipments, err := list(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponses(shipments))
}

func (h *Handler) publicOpenShipments(c *gin.Context) {
	shipments, err := h.shipments.PublicOpen(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponses(shipments))
}

func (h *Handler) getShipment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	shipment, err := h.shipments.GetByID(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponse(*shipment))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) updateShipmentStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shipment, err := h.shipments.UpdateStatus(c.Request.Context(), principal, id, model.ShipmentStatus(req.Status))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponse(*shipment))
}

func (h *Handler) markDeliveredByLogistics(c *gin.Context) {
	h.shipmentTransition(c, h.shipments.MarkDeliveredByLogistics)
}

func (h *Handler) markDeliveredByUser(c *gin.Context) {
	h.shipmentTransition(c, h.shipments.MarkDeliveredByUser)
}

func (h *Handler) shipmentTransition(c *gin.Context, transition func(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Shipment, error)) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	shipment, err := transition(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponse(*shipment))
}

type rateRequest struct {
	Rating   int    `json:"rating" binding:"required"`
	Feedback string `json:"feedback"`
}

func (h *Handler) rateShipment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shipment, err := h.shipments.Rate(c.Request.Context(), principal, id, req.Rating, req.Feedback)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toShipmentResponse(*shipment))
}

func (h *Handler) deleteShipment(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.shipments.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) exportShipmentHistory(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.shipments.ExportHistory(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.writeAttachment(c, result)
}

func (h *Handler) shipmentWaybill(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.shipments.Waybill(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.writeAttachment(c, result)
}

func (h *Handler) writeAttachment(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
