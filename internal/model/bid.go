package model

import (
	"time"

	"github.com/google/uuid"
)

type BidStatus string

const (
	BidStatusPending  BidStatus = "pending"
	BidStatusAccepted BidStatus = "accepted"
	BidStatusRejected BidStatus = "rejected"
)

func ValidBidStatus(s BidStatus) bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected:
		return true
	default:
		return false
	}
}

// A bid moves one-way out of pending: accept and reject are terminal,
// edit and cancel are permitted only while pending.
func (s BidStatus) CanTransitionTo(next BidStatus) bool {
	if s != BidStatusPending {
		return false
	}
	return next == BidStatusAccepted || next == BidStatusRejected
}

type Bid struct {
	ID                   uuid.UUID
	ShipmentID           uuid.UUID
	CarrierID            uuid.UUID
	Price                float64
	Currency             string
	ETA                  string
	Message              string
	Status               BidStatus
	PriceUpdateRequested bool
	PriceUpdateMessage   *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
