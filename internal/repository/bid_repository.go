package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shipbridge/shipbridge/internal/model"
)

// ErrStaleStatus reports a compare-and-swap that matched no row: the entity
// exists but is no longer in the status the transition requires.
var ErrStaleStatus = errors.New("status changed concurrently")

type BidRepository struct {
	db *gorm.DB
}

func NewBidRepository(db *gorm.DB) *BidRepository {
	return &BidRepository{db: db}
}

type bidRow struct {
	ID                   uuid.UUID
	ShipmentID           uuid.UUID
	CarrierID            uuid.UUID
	Price                float64
	Currency             string
	ETA                  string `gorm:"column:eta"`
	Message              string
	Status               string
	PriceUpdateRequested bool
	PriceUpdateMessage   *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

const bidColumns = `
	id, shipment_id, carrier_id, price, currency, eta, message, status,
	price_update_requested, price_update_message, created_at, updated_at`

func (row bidRow) toModel() model.Bid {
	return model.Bid{
		ID:                   row.ID,
		ShipmentID:           row.ShipmentID,
		CarrierID:            row.CarrierID,
		Price:                row.Price,
		Currency:             row.Currency,
		ETA:                  row.ETA,
		Message:              row.Message,
		Status:               model.BidStatus(row.Status),
		PriceUpdateRequested: row.PriceUpdateRequested,
		PriceUpdateMessage:   row.PriceUpdateMessage,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}

func (r *BidRepository) Create(ctx context.Context, bid model.Bid) (*model.Bid, error) {
	var row bidRow
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO bids (shipment_id, carrier_id, price, currency, eta, message)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+bidColumns,
		bid.ShipmentID,
		bid.CarrierID,
		bid.Price,
		bid.Currency,
		bid.ETA,
		bid.Message,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	saved := row.toModel()
	return &saved, nil
}

func (r *BidRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	var row bidRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT `+bidColumns+`
		FROM bids
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	bid := row.toModel()
	return &bid, nil
}

func (r *BidRepository) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]model.Bid, error) {
	return r.list(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE shipment_id = ?
		ORDER BY created_at DESC
	`, shipmentID)
}

func (r *BidRepository) ListByCarrier(ctx context.Context, carrierID uuid.UUID) ([]model.Bid, error) {
	return r.list(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE carrier_id = ?
		ORDER BY created_at DESC
	`, carrierID)
}

// ListOnShipmentsOf returns every bid placed against any shipment the
// shipper owns.
func (r *BidRepository) ListOnShipmentsOf(ctx context.Context, shipperID uuid.UUID) ([]model.Bid, error) {
	return r.list(ctx, `
		SELECT `+bidColumns+`
		FROM bids b
		WHERE EXISTS (
			SELECT 1 FROM shipments s
			WHERE s.id = b.shipment_id AND s.shipper_id = ?
		)
		ORDER BY b.created_at DESC
	`, shipperID)
}

func (r *BidRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Bid, error) {
	var rows []bidRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	bids := make([]model.Bid, 0, len(rows))
	for _, row := range rows {
		bids = append(bids, row.toModel())
	}
	return bids, nil
}

// Accept runs the whole cascade in one transaction: the shipment moves
// open -> accepted, the bid pending -> accepted, and every sibling pending
// bid is rejected. Either compare-and-swap matching no row aborts the
// transaction with ErrStaleStatus, so two racing accepts resolve to exactly
// one winner.
func (r *BidRepository) Accept(ctx context.Context, bidID, shipmentID uuid.UUID) (*model.Bid, error) {
	var row bidRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(`
			UPDATE shipments
			SET status = 'accepted', accepted_bid_id = ?, updated_at = NOW()
			WHERE id = ? AND status = 'open'
		`, bidID, shipmentID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleStatus
		}

		err := tx.Raw(`
			UPDATE bids
			SET status = 'accepted', updated_at = NOW()
			WHERE id = ? AND status = 'pending'
			RETURNING `+bidColumns, bidID).Scan(&row).Error
		if err != nil {
			return err
		}
		if row.ID == uuid.Nil {
			return ErrStaleStatus
		}

		return tx.Exec(`
			UPDATE bids
			SET status = 'rejected', updated_at = NOW()
			WHERE shipment_id = ? AND id <> ? AND status = 'pending'
		`, shipmentID, bidID).Error
	})
	if err != nil {
		return nil, err
	}
	accepted := row.toModel()
	return &accepted, nil
}

func (r *BidRepository) Reject(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	return r.casUpdate(ctx, `
		UPDATE bids
		SET status = 'rejected', updated_at = NOW()
		WHERE id = ? AND status = 'pending'
		RETURNING `+bidColumns, id)
}

// Update edits a pending bid's negotiable fields and clears any outstanding
// price-update request.
func (r *BidRepository) Update(ctx context.Context, id uuid.UUID, price float64, currency, eta, message string) (*model.Bid, error) {
	return r.casUpdate(ctx, `
		UPDATE bids
		SET price = ?, currency = ?, eta = ?, message = ?,
			price_update_requested = FALSE, price_update_message = NULL,
			updated_at = NOW()
		WHERE id = ? AND status = 'pending'
		RETURNING `+bidColumns, price, currency, eta, message, id)
}

func (r *BidRepository) RequestPriceUpdate(ctx context.Context, id uuid.UUID, message string) (*model.Bid, error) {
	return r.casUpdate(ctx, `
		UPDATE bids
		SET price_update_requested = TRUE, price_update_message = ?, updated_at = NOW()
		WHERE id = ? AND status = 'pending'
		RETURNING `+bidColumns, message, id)
}

func (r *BidRepository) casUpdate(ctx context.Context, query string, args ...interface{}) (*model.Bid, error) {
	var row bidRow
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, ErrStaleStatus
	}
	bid := row.toModel()
	return &bid, nil
}

// Delete cancels a bid; only pending bids are removable.
func (r *BidRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		DELETE FROM bids
		WHERE id = ? AND status = 'pending'
	`, id)
	return result.RowsAffected, result.Error
}
