package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shipbridge/shipbridge/internal/model"
	"github.com/shipbridge/shipbridge/internal/repository"
)

// fakeStore is an in-memory stand-in for the three repositories. It mirrors
// their compare-and-swap semantics so the services can be exercised against
// the same invariants the SQL enforces.
type fakeStore struct {
	shipments map[uuid.UUID]*model.Shipment
	bids      map[uuid.UUID]*model.Bid
	users     map[uuid.UUID]*model.User
	refresh   map[string]*model.RefreshToken
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		shipments: make(map[uuid.UUID]*model.Shipment),
		bids:      make(map[uuid.UUID]*model.Bid),
		users:     make(map[uuid.UUID]*model.User),
		refresh:   make(map[string]*model.RefreshToken),
	}
}

// --- ShipmentStore ---

func (f *fakeStore) Create(ctx context.Context, shipment model.Shipment) (*model.Shipment, error) {
	shipment.ID = uuid.New()
	shipment.Status = model.ShipmentStatusOpen
	shipment.CreatedAt = time.Now()
	shipment.UpdatedAt = shipment.CreatedAt
	f.shipments[shipment.ID] = &shipment
	clone := shipment
	return &clone, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Shipment, error) {
	shipment, ok := f.shipments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *shipment
	return &clone, nil
}

func (f *fakeStore) ListActiveByShipper(ctx context.Context, shipperID uuid.UUID) ([]model.Shipment, error) {
	return f.filterShipments(func(s *model.Shipment) bool {
		return s.ShipperID == shipperID && !s.Status.Terminal()
	}), nil
}

func (f *fakeStore) ListHistoryByShipper(ctx context.Context, shipperID uuid.UUID) ([]model.Shipment, error) {
	return f.filterShipments(func(s *model.Shipment) bool {
		return s.ShipperID == shipperID && s.Status.Terminal()
	}), nil
}

func (f *fakeStore) ListOpen(ctx context.Context) ([]model.Shipment, error) {
	return f.filterShipments(func(s *model.Shipment) bool {
		return s.Status == model.ShipmentStatusOpen
	}), nil
}

func (f *fakeStore) ListDeliveredForShipper(ctx context.Context, shipperID uuid.UUID) ([]model.Shipment, error) {
	return f.filterShipments(func(s *model.Shipment) bool {
		return s.ShipperID == shipperID && s.Status == model.ShipmentStatusDelivered
	}), nil
}

func (f *fakeStore) ListDeliveredForCarrier(ctx context.Context, carrierID uuid.UUID) ([]model.Shipment, error) {
	return f.filterShipments(func(s *model.Shipment) bool {
		return s.Status == model.ShipmentStatusDelivered && f.assignedCarrier(s) == carrierID
	}), nil
}

func (f *fakeStore) ListAssignedToCarrier(ctx context.Context, carrierID uuid.UUID) ([]model.Shipment, error) {
	return f.filterShipments(func(s *model.Shipment) bool {
		inProgress := s.Status == model.ShipmentStatusAccepted || s.Status == model.ShipmentStatusDelivered
		return inProgress && f.assignedCarrier(s) == carrierID
	}), nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ShipmentStatus) (int64, error) {
	shipment, ok := f.shipments[id]
	if !ok || shipment.Status != from {
		return 0, nil
	}
	shipment.Status = to
	shipment.UpdatedAt = time.Now()
	return 1, nil
}

func (f *fakeStore) MarkDeliveredByLogistics(ctx context.Context, id uuid.UUID) (int64, error) {
	shipment, ok := f.shipments[id]
	if !ok || shipment.Status != model.ShipmentStatusAccepted {
		return 0, nil
	}
	now := time.Now()
	shipment.Status = model.ShipmentStatusDelivered
	shipment.DeliveredByLogistics = true
	shipment.DeliveredAt = &now
	shipment.UpdatedAt = now
	return 1, nil
}

func (f *fakeStore) MarkDeliveredByUser(ctx context.Context, id uuid.UUID) (int64, error) {
	shipment, ok := f.shipments[id]
	if !ok || shipment.Status != model.ShipmentStatusDelivered {
		return 0, nil
	}
	shipment.Status = model.ShipmentStatusCompleted
	shipment.UpdatedAt = time.Now()
	return 1, nil
}

func (f *fakeStore) SetRating(ctx context.Context, id uuid.UUID, score int, feedback string) (int64, error) {
	shipment, ok := f.shipments[id]
	if !ok || shipment.Status != model.ShipmentStatusCompleted || shipment.Rating != nil {
		return 0, nil
	}
	shipment.Rating = &model.Rating{Score: score, Feedback: feedback, RatedAt: time.Now()}
	return 1, nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	shipment, ok := f.shipments[id]
	if !ok {
		return 0, nil
	}
	switch shipment.Status {
	case model.ShipmentStatusOpen, model.ShipmentStatusCancelled, model.ShipmentStatusReturned:
		delete(f.shipments, id)
		return 1, nil
	default:
		return 0, nil
	}
}

func (f *fakeStore) filterShipments(keep func(*model.Shipment) bool) []model.Shipment {
	var out []model.Shipment
	for _, shipment := range f.shipments {
		if keep(shipment) {
			out = append(out, *shipment)
		}
	}
	return out
}

func (f *fakeStore) assignedCarrier(shipment *model.Shipment) uuid.UUID {
	if shipment.AcceptedBidID == nil {
		return uuid.Nil
	}
	bid, ok := f.bids[*shipment.AcceptedBidID]
	if !ok {
		return uuid.Nil
	}
	return bid.CarrierID
}

// --- BidStore ---

func (f *fakeStore) CreateBid(bid model.Bid) *model.Bid {
	bid.ID = uuid.New()
	bid.Status = model.BidStatusPending
	bid.CreatedAt = time.Now()
	bid.UpdatedAt = bid.CreatedAt
	f.bids[bid.ID] = &bid
	clone := bid
	return &clone
}

func (f *fakeStore) GetBidByID(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	bid, ok := f.bids[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *bid
	return &clone, nil
}

func (f *fakeStore) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]model.Bid, error) {
	return f.filterBids(func(b *model.Bid) bool { return b.ShipmentID == shipmentID }), nil
}

func (f *fakeStore) ListByCarrier(ctx context.Context, carrierID uuid.UUID) ([]model.Bid, error) {
	return f.filterBids(func(b *model.Bid) bool { return b.CarrierID == carrierID }), nil
}

func (f *fakeStore) ListOnShipmentsOf(ctx context.Context, shipperID uuid.UUID) ([]model.Bid, error) {
	return f.filterBids(func(b *model.Bid) bool {
		shipment, ok := f.shipments[b.ShipmentID]
		return ok && shipment.ShipperID == shipperID
	}), nil
}

func (f *fakeStore) Accept(ctx context.Context, bidID, shipmentID uuid.UUID) (*model.Bid, error) {
	shipment, ok := f.shipments[shipmentID]
	if !ok || shipment.Status != model.ShipmentStatusOpen {
		return nil, repository.ErrStaleStatus
	}
	bid, ok := f.bids[bidID]
	if !ok || bid.Status != model.BidStatusPending {
		return nil, repository.ErrStaleStatus
	}

	shipment.Status = model.ShipmentStatusAccepted
	shipment.AcceptedBidID = &bid.ID
	bid.Status = model.BidStatusAccepted
	for _, sibling := range f.bids {
		if sibling.ShipmentID == shipmentID && sibling.ID != bidID && sibling.Status == model.BidStatusPending {
			sibling.Status = model.BidStatusRejected
		}
	}
	clone := *bid
	return &clone, nil
}

func (f *fakeStore) Reject(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	bid, ok := f.bids[id]
	if !ok || bid.Status != model.BidStatusPending {
		return nil, repository.ErrStaleStatus
	}
	bid.Status = model.BidStatusRejected
	clone := *bid
	return &clone, nil
}

func (f *fakeStore) Update(ctx context.Context, id uuid.UUID, price float64, currency, eta, message string) (*model.Bid, error) {
	bid, ok := f.bids[id]
	if !ok || bid.Status != model.BidStatusPending {
		return nil, repository.ErrStaleStatus
	}
	bid.Price = price
	bid.Currency = currency
	bid.ETA = eta
	bid.Message = message
	bid.PriceUpdateRequested = false
	bid.PriceUpdateMessage = nil
	bid.UpdatedAt = time.Now()
	clone := *bid
	return &clone, nil
}

func (f *fakeStore) RequestPriceUpdate(ctx context.Context, id uuid.UUID, message string) (*model.Bid, error) {
	bid, ok := f.bids[id]
	if !ok || bid.Status != model.BidStatusPending {
		return nil, repository.ErrStaleStatus
	}
	bid.PriceUpdateRequested = true
	bid.PriceUpdateMessage = &message
	clone := *bid
	return &clone, nil
}

func (f *fakeStore) DeleteBid(ctx context.Context, id uuid.UUID) (int64, error) {
	bid, ok := f.bids[id]
	if !ok || bid.Status != model.BidStatusPending {
		return 0, nil
	}
	delete(f.bids, id)
	return 1, nil
}

func (f *fakeStore) filterBids(keep func(*model.Bid) bool) []model.Bid {
	var out []model.Bid
	for _, bid := range f.bids {
		if keep(bid) {
			out = append(out, *bid)
		}
	}
	return out
}

// --- UserStore ---

func (f *fakeStore) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	f.users[user.ID] = &user
	clone := user
	return &clone, nil
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range f.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeStore) CreateRefreshToken(ctx context.Context, token model.RefreshToken) error {
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	f.refresh[token.TokenHash] = &token
	return nil
}

func (f *fakeStore) GetRefreshToken(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	token, ok := f.refresh[tokenHash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *token
	return &clone, nil
}

func (f *fakeStore) RevokeRefreshToken(ctx context.Context, id uuid.UUID) (int64, error) {
	for _, token := range f.refresh {
		if token.ID == id {
			if token.Revoked {
				return 0, nil
			}
			token.Revoked = true
			return 1, nil
		}
	}
	return 0, nil
}

// --- adapters over the shared fake, resolving name collisions between the
// three store interfaces ---

type fakeBidStore struct{ *fakeStore }

func (f fakeBidStore) Create(ctx context.Context, bid model.Bid) (*model.Bid, error) {
	for _, existing := range f.bids {
		if existing.ShipmentID == bid.ShipmentID && existing.CarrierID == bid.CarrierID &&
			existing.Status != model.BidStatusRejected {
			return nil, gorm.ErrDuplicatedKey
		}
	}
	return f.CreateBid(bid), nil
}

func (f fakeBidStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Bid, error) {
	return f.GetBidByID(ctx, id)
}

func (f fakeBidStore) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return f.DeleteBid(ctx, id)
}

type fakeUserStore struct{ *fakeStore }

func (f fakeUserStore) Create(ctx context.Context, user model.User) (*model.User, error) {
	return f.CreateUser(ctx, user)
}

func (f fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return f.GetUserByID(ctx, id)
}

// fakePublisher records emitted routing keys.
type fakePublisher struct {
	keys []string
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, payload interface{}) {
	p.keys = append(p.keys, routingKey)
}

// --- seeding helpers ---

func (f *fakeStore) seedUser(role model.Role, name string) model.Principal {
	user := model.User{
		ID:        uuid.New(),
		Email:     strings.ToLower(name) + "@example.com",
		Name:      name,
		Role:      role,
		CreatedAt: time.Now(),
	}
	f.users[user.ID] = &user
	return model.Principal{UserID: user.ID, Role: role, Email: user.Email}
}

func (f *fakeStore) seedShipment(shipper model.Principal, status model.ShipmentStatus) *model.Shipment {
	shipment := model.Shipment{
		ID:              uuid.New(),
		ShipperID:       shipper.UserID,
		Title:           "Pallet of parts",
		PickupAddress:   "1 Dock Rd",
		PickupCity:      "Lagos",
		DeliveryAddress: "2 Depot St",
		DeliveryCity:    "Abuja",
		WeightKg:        120,
		Quantity:        1,
		TransportMode:   model.TransportModeRoad,
		Currency:        "USD",
		Status:          status,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.shipments[shipment.ID] = &shipment
	return &shipment
}

func (f *fakeStore) seedBid(carrier model.Principal, shipmentID uuid.UUID, status model.BidStatus) *model.Bid {
	bid := model.Bid{
		ID:         uuid.New(),
		ShipmentID: shipmentID,
		CarrierID:  carrier.UserID,
		Price:      250,
		Currency:   "USD",
		ETA:        "3 days",
		Status:     status,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.bids[bid.ID] = &bid
	return &bid
}
