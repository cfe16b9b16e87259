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

type BidStore interface {
	Create(ctx context.Context, bid model.Bid) (*model.Bid, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Bid, error)
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]model.Bid, error)
	ListByCarrier(ctx context.Context, carrierID uuid.UUID) ([]model.Bid, error)
	ListOnShipmentsOf(ctx context.Context, shipperID uuid.UUID) ([]model.Bid, error)
	Accept(ctx context.Context, bidID, shipmentID uuid.UUID) (*model.Bid, error)
	Reject(ctx context.Context, id uuid.UUID) (*model.Bid, error)
	Update(ctx context.Context, id uuid.UUID, price float64, currency, eta, message string) (*model.Bid, error)
	RequestPriceUpdate(ctx context.Context, id uuid.UUID, message string) (*model.Bid, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

type BidService struct {
	bids      BidStore
	shipments ShipmentStore
	events    EventPublisher
}

func NewBidService(bids BidStore, shipments ShipmentStore, publisher EventPublisher) *BidService {
	return &BidService{bids: bids, shipments: shipments, events: publisher}
}

type CreateBidInput struct {
	ShipmentID uuid.UUID
	Price      float64
	Currency   string
	ETA        string
	Message    string
}

func (s *BidService) Create(ctx context.Context, principal model.Principal, input CreateBidInput) (*model.Bid, error) {
	if !principal.IsCarrier() {
		return nil, ErrPermissionDenied
	}
	if input.Price <= 0 {
		return nil, fmt.Errorf("%w: price is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.ETA) == "" {
		return nil, fmt.Errorf("%w: eta is required", ErrInvalidInput)
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	shipment, err := s.getShipment(ctx, input.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.Status != model.ShipmentStatusOpen {
		return nil, fmt.Errorf("%w: shipment is not open for bidding", ErrConflict)
	}

	bid, err := s.bids.Create(ctx, model.Bid{
		ShipmentID: input.ShipmentID,
		CarrierID:  principal.UserID,
		Price:      input.Price,
		Currency:   input.Currency,
		ETA:        strings.TrimSpace(input.ETA),
		Message:    strings.TrimSpace(input.Message),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: you already have an active bid on this shipment", ErrConflict)
		}
		return nil, err
	}

	s.events.Publish(ctx, events.KeyBidCreated, bidEvent(*bid))
	return bid, nil
}

// ListForShipment exposes bids on a shipment to its owner only.
func (s *BidService) ListForShipment(ctx context.Context, principal model.Principal, shipmentID uuid.UUID) ([]model.Bid, error) {
	shipment, err := s.getShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	return s.bids.ListByShipment(ctx, shipmentID)
}

func (s *BidService) MyBids(ctx context.Context, principal model.Principal) ([]model.Bid, error) {
	if !principal.IsCarrier() {
		return nil, ErrPermissionDenied
	}
	return s.bids.ListByCarrier(ctx, principal.UserID)
}

func (s *BidService) OnMyShipments(ctx context.Context, principal model.Principal) ([]model.Bid, error) {
	if !principal.IsShipper() {
		return nil, ErrPermissionDenied
	}
	return s.bids.ListOnShipmentsOf(ctx, principal.UserID)
}

// Accept moves the bid to accepted, the shipment to accepted, and rejects
// sibling pending bids; the cascade is atomic in the store.
func (s *BidService) Accept(ctx context.Context, principal model.Principal, bidID uuid.UUID) (*model.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	shipment, err := s.getShipment(ctx, bid.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != principal.UserID {
		return nil, ErrPermissionDenied
	}

	accepted, err := s.bids.Accept(ctx, bidID, bid.ShipmentID)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	s.events.Publish(ctx, events.KeyBidAccepted, bidEvent(*accepted))
	s.events.Publish(ctx, events.KeyShipmentStatusChanged, events.ShipmentStatusChanged{
		ShipmentID: bid.ShipmentID.String(),
		Status:     string(model.ShipmentStatusAccepted),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
	return accepted, nil
}

func (s *BidService) Reject(ctx context.Context, principal model.Principal, bidID uuid.UUID) (*model.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	shipment, err := s.getShipment(ctx, bid.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != principal.UserID {
		return nil, ErrPermissionDenied
	}

	rejected, err := s.bids.Reject(ctx, bidID)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	s.events.Publish(ctx, events.KeyBidRejected, bidEvent(*rejected))
	return rejected, nil
}

type UpdateBidInput struct {
	Price    float64
	Currency string
	ETA      string
	Message  string
}

// Update edits a pending bid; only its carrier may do so.
func (s *BidService) Update(ctx context.Context, principal model.Principal, bidID uuid.UUID, input UpdateBidInput) (*model.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.CarrierID != principal.UserID {
		return nil, ErrPermissionDenied
	}
	if input.Price <= 0 {
		return nil, fmt.Errorf("%w: price is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.ETA) == "" {
		return nil, fmt.Errorf("%w: eta is required", ErrInvalidInput)
	}
	if input.Currency == "" {
		input.Currency = bid.Currency
	}

	updated, err := s.bids.Update(ctx, bidID, input.Price, input.Currency, strings.TrimSpace(input.ETA), strings.TrimSpace(input.Message))
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: only pending bids can be edited", ErrInvalidTransition)
		}
		return nil, err
	}
	return updated, nil
}

// Cancel removes a pending bid; only its carrier may do so.
func (s *BidService) Cancel(ctx context.Context, principal model.Principal, bidID uuid.UUID) error {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return err
	}
	if bid.CarrierID != principal.UserID {
		return ErrPermissionDenied
	}

	rows, err := s.bids.Delete(ctx, bidID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: only pending bids can be cancelled", ErrInvalidTransition)
	}
	return nil
}

// RequestPriceUpdate lets the shipment owner ask the carrier to revise a
// pending bid. The bid status does not change.
func (s *BidService) RequestPriceUpdate(ctx context.Context, principal model.Principal, bidID uuid.UUID, message string) (*model.Bid, error) {
	bid, err := s.getBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	shipment, err := s.getShipment(ctx, bid.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.ShipperID != principal.UserID {
		return nil, ErrPermissionDenied
	}

	updated, err := s.bids.RequestPriceUpdate(ctx, bidID, strings.TrimSpace(message))
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: only pending bids can be revised", ErrInvalidTransition)
		}
		return nil, err
	}

	s.events.Publish(ctx, events.KeyBidPriceUpdateRequest, bidEvent(*updated))
	return updated, nil
}

func (s *BidService) getBid(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	bid, err := s.bids.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return bid, nil
}

func (s *BidService) getShipment(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	shipment, err := s.shipments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return shipment, nil
}

func bidEvent(bid model.Bid) events.BidEvent {
	event := events.BidEvent{
		BidID:      bid.ID.String(),
		ShipmentID: bid.ShipmentID.String(),
		CarrierID:  bid.CarrierID.String(),
		Status:     string(bid.Status),
		Price:      bid.Price,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
	if bid.PriceUpdateMessage != nil {
		event.Message = *bid.PriceUpdateMessage
	}
	return event
}

var _ BidStore = (*repository.BidRepository)(nil)
