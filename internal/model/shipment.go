package model

import (
	"time"

	"github.com/google/uuid"
)

type ShipmentStatus string

const (
	ShipmentStatusOpen      ShipmentStatus = "open"
	ShipmentStatusAccepted  ShipmentStatus = "accepted"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusCompleted ShipmentStatus = "completed"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
	ShipmentStatusReturned  ShipmentStatus = "returned"
)

func ValidShipmentStatus(s ShipmentStatus) bool {
	switch s {
	case ShipmentStatusOpen, ShipmentStatusAccepted, ShipmentStatusDelivered,
		ShipmentStatusCompleted, ShipmentStatusCancelled, ShipmentStatusReturned:
		return true
	default:
		return false
	}
}

// Terminal statuses admit no further transitions.
func (s ShipmentStatus) Terminal() bool {
	switch s {
	case ShipmentStatusCompleted, ShipmentStatusCancelled, ShipmentStatusReturned:
		return true
	default:
		return false
	}
}

// shipmentTransitions is the authoritative lifecycle table. Every status
// mutation goes through a compare-and-swap against one of these edges.
var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentStatusOpen:      {ShipmentStatusAccepted, ShipmentStatusCancelled},
	ShipmentStatusAccepted:  {ShipmentStatusDelivered, ShipmentStatusCancelled, ShipmentStatusReturned},
	ShipmentStatusDelivered: {ShipmentStatusCompleted, ShipmentStatusReturned},
}

func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, allowed := range shipmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type TransportMode string

const (
	TransportModeRoad TransportMode = "road"
	TransportModeRail TransportMode = "rail"
	TransportModeAir  TransportMode = "air"
	TransportModeSea  TransportMode = "sea"
)

func ValidTransportMode(m TransportMode) bool {
	switch m {
	case TransportModeRoad, TransportModeRail, TransportModeAir, TransportModeSea:
		return true
	default:
		return false
	}
}

type Shipment struct {
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
	TransportMode         TransportMode
	Insured               bool
	HandlingInstructions  string
	Budget                float64
	Currency              string
	Photos                []string `gorm:"-"`
	Documents             []string `gorm:"-"`
	Status                ShipmentStatus
	AcceptedBidID         *uuid.UUID
	DeliveredByLogistics  bool
	DeliveredAt           *time.Time
	Rating                *Rating `gorm:"-"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Rating is embedded in a shipment; attachable once, only when completed.
type Rating struct {
	Score    int
	Feedback string
	RatedAt  time.Time
}
