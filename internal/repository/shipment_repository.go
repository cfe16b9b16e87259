package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shipbridge/shipbridge/internal/model"
)

type ShipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

// shipmentRow mirrors the shipments table; the embedded rating is assembled
// from its nullable columns after scanning.
type shipmentRow struct {
	ID                    uuid.UUID
	ShipperID             uuid.UUID
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
	TransportMode         string
	Insured               bool
	HandlingInstructions  string
	Budget                float64
	Currency              string
	Status                string
	AcceptedBidID         *uuid.UUID
	DeliveredByLogistics  bool
	DeliveredAt           *time.Time
	RatingScore           *int
	RatingFeedback        *string
	RatedAt               *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

const shipmentColumns = `
	id, shipper_id, title,
	pickup_address, pickup_city, pickup_country,
	delivery_address, delivery_city, delivery_country,
	cargo_description, weight_kg, length_cm, width_cm, height_cm, quantity,
	preferred_pickup_date, preferred_delivery_date,
	transport_mode, insured, handling_instructions, budget, currency,
	status, accepted_bid_id, delivered_by_logistics, delivered_at,
	rating_score, rating_feedback, rated_at,
	created_at, updated_at`

func (row shipmentRow) toModel() model.Shipment {
	shipment := model.Shipment{
		ID:                    row.ID,
		ShipperID:             row.ShipperID,
		Title:                 row.Title,
		PickupAddress:         row.PickupAddress,
		PickupCity:            row.PickupCity,
		PickupCountry:         row.PickupCountry,
		DeliveryAddress:       row.DeliveryAddress,
		DeliveryCity:          row.DeliveryCity,
		DeliveryCountry:       row.DeliveryCountry,
		CargoDescription:      row.CargoDescription,
		WeightKg:              row.WeightKg,
		LengthCm:              row.LengthCm,
		WidthCm:               row.WidthCm,
		HeightCm:              row.HeightCm,
		Quantity:              row.Quantity,
		PreferredPickupDate:   row.PreferredPickupDate,
		PreferredDeliveryDate: row.PreferredDeliveryDate,
		TransportMode:         model.TransportMode(row.TransportMode),
		Insured:               row.Insured,
		HandlingInstructions:  row.HandlingInstructions,
		Budget:                row.Budget,
		Currency:              row.Currency,
		Status:                model.ShipmentStatus(row.Status),
		AcceptedBidID:         row.AcceptedBidID,
		DeliveredByLogistics:  row.DeliveredByLogistics,
		DeliveredAt:           row.DeliveredAt,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
	if row.RatingScore != nil {
		rating := model.Rating{Score: *row.RatingScore}
		if row.RatingFeedback != nil {
			rating.Feedback = *row.RatingFeedback
		}
		if row.RatedAt != nil {
			rating.RatedAt = *row.RatedAt
		}
		shipment.Rating = &rating
	}
	return shipment
}

func (r *ShipmentRepository) Create(ctx context.Context, shipment model.Shipment) (*model.Shipment, error) {
	var row shipmentRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Raw(`
			INSERT INTO shipments (
				shipper_id, title,
				pickup_address, pickup_city, pickup_country,
				delivery_address, delivery_city, delivery_country,
				cargo_description, weight_kg, length_cm, width_cm, height_cm, quantity,
				preferred_pickup_date, preferred_delivery_date,
				transport_mode, insured, handling_instructions, budget, currency
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING `+shipmentColumns,
			shipment.ShipperID,
			shipment.Title,
			shipment.PickupAddress,
			shipment.PickupCity,
			shipment.PickupCountry,
			shipment.DeliveryAddress,
			shipment.DeliveryCity,
			shipment.DeliveryCountry,
			shipment.CargoDescription,
			shipment.WeightKg,
			shipment.LengthCm,
			shipment.WidthCm,
			shipment.HeightCm,
			shipment.Quantity,
			shipment.PreferredPickupDate,
			shipment.PreferredDeliveryDate,
			shipment.TransportMode,
			shipment.Insured,
			shipment.HandlingInstructions,
			shipment.Budget,
			shipment.Currency,
		).Scan(&row).Error
		if err != nil {
			return err
		}

		for _, photo := range shipment.Photos {
			if err := tx.Exec(`
				INSERT INTO shipment_attachments (shipment_id, kind, file_name)
				VALUES (?, 'photo', ?)
			`, row.ID, photo).Error; err != nil {
				return err
			}
		}
		for _, document := range shipment.Documents {
			if err := tx.Exec(`
				INSERT INTO shipment_attachments (shipment_id, kind, file_name)
				VALUES (?, 'document', ?)
			`, row.ID, document).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved := row.toModel()
	saved.Photos = shipment.Photos
	saved.Documents = shipment.Documents
	return &saved, nil
}

func (r *ShipmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	var row shipmentRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	shipment := row.toModel()

	var attachments []struct {
		Kind     string
		FileName string
	}
	err = r.db.WithContext(ctx).Raw(`
		SELECT kind, file_name
		FROM shipment_attachments
		WHERE shipment_id = ?
		ORDER BY created_at ASC
	`, id).Scan(&attachments).Error
	if err != nil {
		return nil, err
	}
	for _, attachment := range attachments {
		switch attachment.Kind {
		case "photo":
			shipment.Photos = append(shipment.Photos, attachment.FileName)
		case "document":
			shipment.Documents = append(shipment.Documents, attachment.FileName)
		}
	}
	return &shipment, nil
}

// ListActiveByShipper returns the shipper's non-terminal shipments, newest first.
func (r *ShipmentRepository) ListActiveByShipper(ctx context.Context, shipperID uuid.UUID) ([]model.Shipment, error) {
	return r.list(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE shipper_id = ? AND status IN ('open', 'accepted', 'delivered')
		ORDER BY created_at DESC
	`, shipperID)
}

// ListHistoryByShipper returns the shipper's terminal shipments, newest first.
func (r *ShipmentRepository) ListHistoryByShipper(ctx context.Context, shipperID uuid.UUID) ([]model.Shipment, error) {
	return r.list(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE shipper_id = ? AND status IN ('completed', 'cancelled', 'returned')
		ORDER BY created_at DESC
	`, shipperID)
}

// ListOpen backs both the carrier-facing available-for-bidding listing and the
// public open-shipments listing: accepted shipments drop out by status alone.
func (r *ShipmentRepository) ListOpen(ctx context.Context) ([]model.Shipment, error) {
	return r.list(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE status = 'open'
		ORDER BY created_at DESC
	`)
}

func (r *ShipmentRepository) ListDeliveredForShipper(ctx context.Context, shipperID uuid.UUID) ([]model.Shipment, error) {
	return r.list(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE shipper_id = ? AND status = 'delivered'
		ORDER BY delivered_at DESC
	`, shipperID)
}

func (r *ShipmentRepository) ListDeliveredForCarrier(ctx context.Context, carrierID uuid.UUID) ([]model.Shipment, error) {
	return r.list(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments s
		WHERE s.status = 'delivered'
			AND EXISTS (
				SELECT 1 FROM bids b
				WHERE b.id = s.accepted_bid_id AND b.carrier_id = ?
			)
		ORDER BY s.delivered_at DESC
	`, carrierID)
}

// ListAssignedToCarrier returns in-progress shipments whose accepted bid
// belongs to the carrier.
func (r *ShipmentRepository) ListAssignedToCarrier(ctx context.Context, carrierID uuid.UUID) ([]model.Shipment, error) {
	return r.list(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments s
		WHERE s.status IN ('accepted', 'delivered')
			AND EXISTS (
				SELECT 1 FROM bids b
				WHERE b.id = s.accepted_bid_id AND b.carrier_id = ?
			)
		ORDER BY s.updated_at DESC
	`, carrierID)
}

func (r *ShipmentRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Shipment, error) {
	var rows []shipmentRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	shipments := make([]model.Shipment, 0, len(rows))
	for _, row := range rows {
		shipments = append(shipments, row.toModel())
	}
	return shipments, nil
}

// UpdateStatus performs the compare-and-swap transition; zero rows affected
// means the shipment was not in the expected status.
func (r *ShipmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ShipmentStatus) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE shipments
		SET status = ?, updated_at = NOW()
		WHERE id = ? AND status = ?
	`, to, id, from)
	return result.RowsAffected, result.Error
}

func (r *ShipmentRepository) MarkDeliveredByLogistics(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE shipments
		SET status = 'delivered',
			delivered_by_logistics = TRUE,
			delivered_at = NOW(),
			updated_at = NOW()
		WHERE id = ? AND status = 'accepted'
	`, id)
	return result.RowsAffected, result.Error
}

func (r *ShipmentRepository) MarkDeliveredByUser(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE shipments
		SET status = 'completed', updated_at = NOW()
		WHERE id = ? AND status = 'delivered'
	`, id)
	return result.RowsAffected, result.Error
}

// SetRating attaches the one-time rating; the guard on rating_score keeps it
// write-once even under concurrent requests.
func (r *ShipmentRepository) SetRating(ctx context.Context, id uuid.UUID, score int, feedback string) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE shipments
		SET rating_score = ?, rating_feedback = ?, rated_at = NOW(), updated_at = NOW()
		WHERE id = ? AND status = 'completed' AND rating_score IS NULL
	`, score, feedback, id)
	return result.RowsAffected, result.Error
}

// Delete removes the shipment only while no carrier is engaged.
func (r *ShipmentRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM shipments
		WHERE id = ? AND status IN ('open', 'cancelled', 'returned')
	`, id)
	return result.RowsAffected, result.Error
}
