package model

import "time"

// HistoryReport feeds the shipment-history workbook export.
type HistoryReport struct {
	ShipperName string
	GeneratedAt time.Time
	Shipments   []HistoryRow
}

type HistoryRow struct {
	Title        string
	PickupCity   string
	DeliveryCity string
	Status       ShipmentStatus
	CarrierName  *string
	AgreedPrice  *float64
	Currency     string
	DeliveredAt  *time.Time
	RatingScore  *int
}

// WaybillDocument feeds the PDF waybill for an accepted-or-later shipment.
type WaybillDocument struct {
	Shipment Shipment
	Shipper  User
	Carrier  User
	Bid      Bid
}
