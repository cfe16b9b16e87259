package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Routing keys for the topic exchange.
const (
	KeyShipmentStatusChanged = "shipment.status.changed"
	KeyBidCreated            = "bid.created"
	KeyBidAccepted           = "bid.accepted"
	KeyBidRejected           = "bid.rejected"
	KeyBidPriceUpdateRequest = "bid.price_update_requested"
)

type ShipmentStatusChanged struct {
	ShipmentID string `json:"shipmentId"`
	Status     string `json:"status"`
	OccurredAt string `json:"occurredAt"`
}

type BidEvent struct {
	BidID      string  `json:"bidId"`
	ShipmentID string  `json:"shipmentId"`
	CarrierID  string  `json:"carrierId"`
	Status     string  `json:"status"`
	Price      float64 `json:"price"`
	Message    string  `json:"message,omitempty"`
	OccurredAt string  `json:"occurredAt"`
}

// Publisher emits marketplace events to a topic exchange. Publishing is
// best-effort: failures are logged and never fail the originating request.
// With no AMQP URL configured the publisher is a no-op.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      zerolog.Logger
}

func NewPublisher(url, exchange string, log zerolog.Logger) (*Publisher, error) {
	if url == "" {
		log.Info().Msg("event publishing disabled: no AMQP URL configured")
		return &Publisher{log: log}, nil
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Info().Str("exchange", exchange).Msg("event publisher connected")
	return &Publisher{conn: conn, channel: channel, exchange: exchange, log: log}, nil
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, payload interface{}) {
	if p.channel == nil {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		p.log.Error().Err(err).Str("key", routingKey).Msg("marshal event")
		return
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		p.log.Error().Err(err).Str("key", routingKey).Msg("publish event")
	}
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
