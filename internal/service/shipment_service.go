package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shipbridge/shipbridge/internal/events"
	"github.com/shipbridge/shipbridge/internal/model"
	"github.com/shipbridge/shipbridge/internal/repository"
)

type ShipmentStore interface {
	Create(ctx context.Context, shipment model.Shipment) (*model.Shipment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error)
	ListActiveByShipper(ctx context.Context, shipperID uuid.UUID) ([]model.Shipment, error)
	ListHistoryByShipper(ctx context.Context, shipperID uuid.UUID) ([]model.Shipment, error)
	ListOpen(ctx context.Context) ([]model.Shipment, error)
	ListDeliveredForShipper(ctx context.Context, shipperID uuid.UUID) ([]model.Shipment, error)
	ListDeliveredForCarrier(ctx context.Context, carrierID uuid.UUID) ([]model.Shipment, error)
	ListAssignedToCarrier(ctx context.Context, carrierID uuid.UUID) ([]model.Shipment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ShipmentStatus) (int64, error)
	MarkDeliveredByLogistics(ctx context.Context, id uuid.UUID) (int64, error)
	MarkDeliveredByUser(ctx context.Context, id uuid.UUID) (int64, error)
	SetRating(ctx context.Context, id uuid.UUID, score int, feedback string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{})
}

type ExcelGenerator interface {
	Generate(report model.HistoryReport) ([]byte, error)
}

type WaybillGenerator interface {
	Generate(doc model.WaybillDocument) ([]byte, error)
}

type ShipmentService struct {
	shipments ShipmentStore
	bids      BidStore
	users     UserStore
	events    EventPublisher
	excel     ExcelGenerator
	waybill   WaybillGenerator
}

func NewShipmentService(
	shipments ShipmentStore,
	bids BidStore,
	users UserStore,
	publisher EventPublisher,
	excel ExcelGenerator,
	waybill WaybillGenerator,
) *ShipmentService {
	return &ShipmentService{
		shipments: shipments,
		bids:      bids,
		users:     users,
		events:    publisher,
		excel:     excel,
		waybill:   waybill,
	}
}

type PostShipmentInput struct {
	Title                 string
	PickupAddress         string
	PickupCity            string
	PickupCountry         string
	DeliveryAddress       string
	DeliveryCity          string
	DeliveryCountry       string
	CargoDescription      string
	WeightKg              float64
	LengthCm              float64
	WidthCm               float64
	HeightCm              float64
	Quantity              int
	PreferredPickupDate   *time.Time
	PreferredDeliveryDate *time.Time
	TransportMode         model.TransportMode
	Insured               bool
	HandlingInstructions  string
	Budget                float64
	Currency              string
	Photos                []string
	Documents             []string
}

func (s *ShipmentService) Post(ctx context.Context, principal model.Principal, input PostShipmentInput) (*model.Shipment, error) {
	if !principal.IsShipper() {
		return nil, ErrPermissionDenied
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.PickupCity) == "" || strings.TrimSpace(input.DeliveryCity) == "" {
		return nil, fmt.Errorf("%w: pickup and delivery cities are required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.PickupAddress) == "" || strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, fmt.Errorf("%w: pickup and delivery addresses are required", ErrInvalidInput)
	}
	if input.WeightKg <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", ErrInvalidInput)
	}
	if input.Quantity <= 0 {
		input.Quantity = 1
	}
	if input.TransportMode == "" {
		input.TransportMode = model.TransportModeRoad
	}
	if !model.ValidTransportMode(input.TransportMode) {
		return nil, fmt.Errorf("%w: invalid transport mode", ErrInvalidInput)
	}
	if input.PreferredPickupDate != nil && input.PreferredDeliveryDate != nil &&
		input.PreferredDeliveryDate.Before(*input.PreferredPickupDate) {
		return nil, fmt.Errorf("%w: delivery date before pickup date", ErrInvalidInput)
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	shipment := model.Shipment{
		ShipperID:             principal.UserID,
		Title:                 strings.TrimSpace(input.Title),
		PickupAddress:         strings.TrimSpace(input.PickupAddress),
		PickupCity:            strings.TrimSpace(input.PickupCity),
		PickupCountry:         strings.TrimSpace(input.PickupCountry),
		DeliveryAddress:       strings.TrimSpace(input.DeliveryAddress),
		DeliveryCity:          strings.TrimSpace(input.DeliveryCity),
		DeliveryCountry:       strings.TrimSpace(input.DeliveryCountry),
		CargoDescription:      strings.TrimSpace(input.CargoDescription),
		WeightKg:              input.WeightKg,
		LengthCm:              input.LengthCm,
		WidthCm:               input.WidthCm,
		HeightCm:              input.HeightCm,
		Quantity:              input.Quantity,
		PreferredPickupDate:   input.PreferredPickupDate,
		PreferredDeliveryDate: input.PreferredDeliveryDate,
		TransportMode:         input.TransportMode,
		Insured:               input.Insured,
		HandlingInstructions:  strings.TrimSpace(input.HandlingInstructions),
		Budget:                input.Budget,
		Currency:              input.Currency,
		Photos:                input.Photos,
		Documents:             input.Documents,
	}
	return s.shipments.Create(ctx, shipment)
}

func (s *ShipmentService) ListMine(ctx context.Context, principal model.Principal) ([]model.Shipment, error) {
	if !principal.IsShipper() {
		return nil, ErrPermissionDenied
	}
	return s.shipments.ListActiveByShipper(ctx, principal.UserID)
}

func (s *ShipmentService) History(ctx context.Context, principal model.Principal) ([]model.Shipment, error) {
	if !principal.IsShipper() {
		return nil, ErrPermissionDenied
	}
	return s.shipments.ListHistoryByShipper(ctx, principal.UserID)
}

func (s *ShipmentService) Available(ctx context.Context, principal model.Principal) ([]model.Shipment, error) {
	if !principal.IsCarrier() {
		return nil, ErrPermissionDenied
	}
	return s.shipments.ListOpen(ctx)
}

// PublicOpen is the unauthenticated open-shipment listing.
func (s *ShipmentService) PublicOpen(ctx context.Context) ([]model.Shipment, error) {
	return s.shipments.ListOpen(ctx)
}

func (s *ShipmentService) Assigned(ctx context.Context, principal model.Principal) ([]model.Shipment, error) {
	if !principal.IsCarrier() {
		return nil, ErrPermissionDenied
	}
	return s.shipments.ListAssignedToCarrier(ctx, principal.UserID)
}

// Delivered lists shipments awaiting shipper confirmation, from whichever
// side of the handoff the caller is on.
func (s *ShipmentService) Delivered(ctx context.Context, principal model.Principal) ([]model.Shipment, error) {
	if principal.IsCarrier() {
		return s.shipments.ListDeliveredForCarrier(ctx, principal.UserID)
	}
	return s.shipments.ListDeliveredForShipper(ctx, principal.UserID)
}

// GetByID serves the detail view. Owners and the assigned carrier always see
// the shipment; other carriers only while it is open for bidding.
func (s *ShipmentService) GetByID(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Shipment, error) {
	shipment, err := s.getShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID == principal.UserID {
		return shipment, nil
	}
	if shipment.Status == model.ShipmentStatusOpen && principal.IsCarrier() {
		return shipment, nil
	}
	assigned, err := s.isAssignedCarrier(ctx, shipment, principal)
	if err != nil {
		return nil, err
	}
	if assigned {
		return shipment, nil
	}
	return nil, ErrPermissionDenied
}

// UpdateStatus handles the generic transition endpoint. Acceptance happens
// only through bid acceptance and delivery through the dedicated two-sided
// actions, so the reachable targets here are the cancel and return branches.
func (s *ShipmentService) UpdateStatus(ctx context.Context, principal model.Principal, id uuid.UUID, target model.ShipmentStatus) (*model.Shipment, error) {
	if !model.ValidShipmentStatus(target) {
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	shipment, err := s.getShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !shipment.Status.CanTransitionTo(target) {
		return nil, ErrInvalidTransition
	}

	switch target {
	case model.ShipmentStatusCancelled:
		if shipment.ShipperID != principal.UserID {
			return nil, ErrPermissionDenied
		}
	case model.ShipmentStatusReturned:
		assigned, err := s.isAssignedCarrier(ctx, shipment, principal)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return nil, ErrPermissionDenied
		}
	default:
		return nil, fmt.Errorf("%w: status %q requires its dedicated operation", ErrInvalidInput, target)
	}

	rows, err := s.shipments.UpdateStatus(ctx, id, shipment.Status, target)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	s.events.Publish(ctx, events.KeyShipmentStatusChanged, events.ShipmentStatusChanged{
		ShipmentID: id.String(),
		Status:     string(target),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return s.getShipment(ctx, id)
}

func (s *ShipmentService) MarkDeliveredByLogistics(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Shipment, error) {
	shipment, err := s.getShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	assigned, err := s.isAssignedCarrier(ctx, shipment, principal)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, ErrPermissionDenied
	}

	rows, err := s.shipments.MarkDeliveredByLogistics(ctx, id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	s.events.Publish(ctx, events.KeyShipmentStatusChanged, events.ShipmentStatusChanged{
		ShipmentID: id.String(),
		Status:     string(model.ShipmentStatusDelivered),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return s.getShipment(ctx, id)
}

func (s *ShipmentService) MarkDeliveredByUser(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Shipment, error) {
	shipment, err := s.getShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != principal.UserID {
		return nil, ErrPermissionDenied
	}

	rows, err := s.shipments.MarkDeliveredByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	s.events.Publish(ctx, events.KeyShipmentStatusChanged, events.ShipmentStatusChanged{
		ShipmentID: id.String(),
		Status:     string(model.ShipmentStatusCompleted),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return s.getShipment(ctx, id)
}

func (s *ShipmentService) Rate(ctx context.Context, principal model.Principal, id uuid.UUID, score int, feedback string) (*model.Shipment, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}

	shipment, err := s.getShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	if shipment.Status != model.ShipmentStatusCompleted {
		return nil, fmt.Errorf("%w: only completed shipments can be rated", ErrConflict)
	}
	if shipment.Rating != nil {
		return nil, fmt.Errorf("%w: shipment already rated", ErrConflict)
	}

	rows, err := s.shipments.SetRating(ctx, id, score, strings.TrimSpace(feedback))
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: shipment already rated", ErrConflict)
	}
	return s.getShipment(ctx, id)
}

func (s *ShipmentService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	shipment, err := s.getShipment(ctx, id)
	if err != nil {
		return err
	}
	if shipment.ShipperID != principal.UserID {
		return ErrPermissionDenied
	}

	rows, err := s.shipments.Delete(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: shipment has an engaged carrier", ErrConflict)
	}
	return nil
}

type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHistory renders the shipper's terminal shipments as a workbook.
func (s *ShipmentService) ExportHistory(ctx context.Context, principal model.Principal) (*ExportResult, error) {
	if !principal.IsShipper() {
		return nil, ErrPermissionDenied
	}

	shipper, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	shipments, err := s.shipments.ListHistoryByShipper(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}

	report := model.HistoryReport{
		ShipperName: shipper.Name,
		GeneratedAt: time.Now().UTC(),
	}
	for _, shipment := range shipments {
		row := model.HistoryRow{
			Title:        shipment.Title,
			PickupCity:   shipment.PickupCity,
			DeliveryCity: shipment.DeliveryCity,
			Status:       shipment.Status,
			Currency:     shipment.Currency,
			DeliveredAt:  shipment.DeliveredAt,
		}
		if shipment.Rating != nil {
			score := shipment.Rating.Score
			row.RatingScore = &score
		}
		if shipment.AcceptedBidID != nil {
			bid, err := s.bids.GetByID(ctx, *shipment.AcceptedBidID)
			if err == nil {
				row.AgreedPrice = &bid.Price
				row.Currency = bid.Currency
				if carrier, err := s.users.GetByID(ctx, bid.CarrierID); err == nil {
					row.CarrierName = &carrier.Name
				}
			}
		}
		report.Shipments = append(report.Shipments, row)
	}

	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, err
	}
	fileName := fmt.Sprintf("shipments-history-%s.xlsx", report.GeneratedAt.Format("20060102"))
	return &ExportResult{FileName: fileName, ContentType: xlsxContentType, Content: content}, nil
}

// Waybill produces the PDF delivery document once a carrier is engaged.
func (s *ShipmentService) Waybill(ctx context.Context, principal model.Principal, id uuid.UUID) (*ExportResult, error) {
	shipment, err := s.getShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.AcceptedBidID == nil {
		return nil, fmt.Errorf("%w: shipment has no accepted bid", ErrConflict)
	}

	bid, err := s.bids.GetByID(ctx, *shipment.AcceptedBidID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != principal.UserID && bid.CarrierID != principal.UserID {
		return nil, ErrPermissionDenied
	}

	shipper, err := s.users.GetByID(ctx, shipment.ShipperID)
	if err != nil {
		return nil, err
	}
	carrier, err := s.users.GetByID(ctx, bid.CarrierID)
	if err != nil {
		return nil, err
	}

	content, err := s.waybill.Generate(model.WaybillDocument{
		Shipment: *shipment,
		Shipper:  *shipper,
		Carrier:  *carrier,
		Bid:      *bid,
	})
	if err != nil {
		return nil, err
	}
	fileName := fmt.Sprintf("waybill-%s.pdf", shipment.ID)
	return &ExportResult{FileName: fileName, ContentType: "application/pdf", Content: content}, nil
}

func (s *ShipmentService) getShipment(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	shipment, err := s.shipments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return shipment, nil
}

func (s *ShipmentService) isAssignedCarrier(ctx context.Context, shipment *model.Shipment, principal model.Principal) (bool, error) {
	if !principal.IsCarrier() || shipment.AcceptedBidID == nil {
		return false, nil
	}
	bid, err := s.bids.GetByID(ctx, *shipment.AcceptedBidID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return bid.CarrierID == principal.UserID, nil
}

var _ ShipmentStore = (*repository.ShipmentRepository)(nil)
