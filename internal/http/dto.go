package http

import (
	"time"

	"github.com/shipbridge/shipbridge/internal/model"
)

type ratingResponse struct {
	Score    int       `json:"score"`
	Feedback string    `json:"feedback"`
	RatedAt  time.Time `json:"ratedAt"`
}

type shipmentResponse struct {
	ID                    string          `json:"id"`
	ShipperID             string          `json:"shipperId"`
	Title                 string          `json:"title"`
	PickupAddress         string          `json:"pickupAddress"`
	PickupCity            string          `json:"pickupCity"`
	PickupCountry         string          `json:"pickupCountry"`
	DeliveryAddress       string          `json:"deliveryAddress"`
	DeliveryCity          string          `json:"deliveryCity"`
	DeliveryCountry       string          `json:"deliveryCountry"`
	CargoDescription      string          `json:"cargoDescription"`
	WeightKg              float64         `json:"weightKg"`
	LengthCm              float64         `json:"lengthCm"`
	WidthCm               float64         `json:"widthCm"`
	HeightCm              float64         `json:"heightCm"`
	Quantity              int             `json:"quantity"`
	PreferredPickupDate   *time.Time      `json:"preferredPickupDate,omitempty"`
	PreferredDeliveryDate *time.Time      `json:"preferredDeliveryDate,omitempty"`
	TransportMode         string          `json:"transportMode"`
	Insured               bool            `json:"insured"`
	HandlingInstructions  string          `json:"handlingInstructions"`
	Budget                float64         `json:"budget"`
	Currency              string          `json:"currency"`
	Photos                []string        `json:"photos"`
	Documents             []string        `json:"documents"`
	Status                string          `json:"status"`
	AcceptedBidID         *string         `json:"acceptedBidId,omitempty"`
	DeliveredByLogistics  bool            `json:"deliveredByLogistics"`
	DeliveredAt           *time.Time      `json:"deliveredAt,omitempty"`
	Rating                *ratingResponse `json:"rating,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func toShipmentResponse(shipment model.Shipment) shipmentResponse {
	resp := shipmentResponse{
		ID:                    shipment.ID.String(),
		ShipperID:             shipment.ShipperID.String(),
		Title:                 shipment.Title,
		PickupAddress:         shipment.PickupAddress,
		PickupCity:            shipment.PickupCity,
		PickupCountry:         shipment.PickupCountry,
		DeliveryAddress:       shipment.DeliveryAddress,
		DeliveryCity:          shipment.DeliveryCity,
		DeliveryCountry:       shipment.DeliveryCountry,
		CargoDescription:      shipment.CargoDescription,
		WeightKg:              shipment.WeightKg,
		LengthCm:              shipment.LengthCm,
		WidthCm:               shipment.WidthCm,
		HeightCm:              shipment.HeightCm,
		Quantity:              shipment.Quantity,
		PreferredPickupDate:   shipment.PreferredPickupDate,
		PreferredDeliveryDate: shipment.PreferredDeliveryDate,
		TransportMode:         string(shipment.TransportMode),
		Insured:               shipment.Insured,
		HandlingInstructions:  shipment.HandlingInstructions,
		Budget:                shipment.Budget,
		Currency:              shipment.Currency,
		Photos:                shipment.Photos,
		Documents:             shipment.Documents,
		Status:                string(shipment.Status),
		DeliveredByLogistics:  shipment.DeliveredByLogistics,
		DeliveredAt:           shipment.DeliveredAt,
		CreatedAt:             shipment.CreatedAt,
		UpdatedAt:             shipment.UpdatedAt,
	}
	if resp.Photos == nil {
		resp.Photos = []string{}
	}
	if resp.Documents == nil {
		resp.Documents = []string{}
	}
	if shipment.AcceptedBidID != nil {
		id := shipment.AcceptedBidID.String()
		resp.AcceptedBidID = &id
	}
	if shipment.Rating != nil {
		resp.Rating = &ratingResponse{
			Score:    shipment.Rating.Score,
			Feedback: shipment.Rating.Feedback,
			RatedAt:  shipment.Rating.RatedAt,
		}
	}
	return resp
}

func toShipmentResponses(shipments []model.Shipment) []shipmentResponse {
	responses := make([]shipmentResponse, 0, len(shipments))
	for _, shipment := range shipments {
		responses = append(responses, toShipmentResponse(shipment))
	}
	return responses
}

type bidResponse struct {
	ID                   string    `json:"id"`
	ShipmentID           string    `json:"shipmentId"`
	CarrierID            string    `json:"carrierId"`
	Price                float64   `json:"price"`
	Currency             string    `json:"currency"`
	ETA                  string    `json:"eta"`
	Message              string    `json:"message"`
	Status               string    `json:"status"`
	PriceUpdateRequested bool      `json:"priceUpdateRequested"`
	PriceUpdateMessage   *string   `json:"priceUpdateMessage,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func toBidResponse(bid model.Bid) bidResponse {
	return bidResponse{
		ID:                   bid.ID.String(),
		ShipmentID:           bid.ShipmentID.String(),
		CarrierID:            bid.CarrierID.String(),
		Price:                bid.Price,
		Currency:             bid.Currency,
		ETA:                  bid.ETA,
		Message:              bid.Message,
		Status:               string(bid.Status),
		PriceUpdateRequested: bid.PriceUpdateRequested,
		PriceUpdateMessage:   bid.PriceUpdateMessage,
		CreatedAt:            bid.CreatedAt,
		UpdatedAt:            bid.UpdatedAt,
	}
}

func toBidResponses(bids []model.Bid) []bidResponse {
	responses := make([]bidResponse, 0, len(bids))
	for _, bid := range bids {
		responses = append(responses, toBidResponse(bid))
	}
	return responses
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type tokenPairResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

func toTokenPairResponse(pair model.User, access, refresh string) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User: userResponse{
			ID:    pair.ID.String(),
			Email: pair.Email,
			Name:  pair.Name,
			Role:  string(pair.Role),
		},
	}
}
