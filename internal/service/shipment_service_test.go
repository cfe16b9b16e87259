package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shipbridge/shipbridge/internal/model"
)

type stubExcel struct{}

func (stubExcel) Generate(report model.HistoryReport) ([]byte, error) {
	return []byte("xlsx"), nil
}

type stubWaybill struct{}

func (stubWaybill) Generate(doc model.WaybillDocument) ([]byte, error) {
	return []byte("%PDF"), nil
}

func newShipmentService(store *fakeStore) (*ShipmentService, *fakePublisher) {
	publisher := &fakePublisher{}
	svc := NewShipmentService(store, fakeBidStore{store}, fakeUserStore{store}, publisher, stubExcel{}, stubWaybill{})
	return svc, publisher
}

func TestPostShipment(t *testing.T) {
	store := newFakeStore()
	svc, _ := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")

	shipment, err := svc.Post(context.Background(), shipper, PostShipmentInput{
		Title:           "Office Chairs",
		PickupAddress:   "12 Marina Rd",
		PickupCity:      "Lagos",
		DeliveryAddress: "4 Garki Way",
		DeliveryCity:    "Abuja",
		WeightKg:        50,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if shipment.Status != model.ShipmentStatusOpen {
		t.Errorf("status = %s, want open", shipment.Status)
	}
	if shipment.ShipperID != shipper.UserID {
		t.Error("shipment not owned by the posting shipper")
	}
	if shipment.Quantity != 1 || shipment.TransportMode != model.TransportModeRoad || shipment.Currency != "USD" {
		t.Errorf("defaults not applied: %+v", shipment)
	}

	mine, err := svc.ListMine(context.Background(), shipper)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].Title != "Office Chairs" {
		t.Errorf("my shipments = %+v, want the posted one", mine)
	}
}

func TestPostShipmentValidation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")
	carrier := store.seedUser(model.RoleCarrier, "Ben")

	valid := PostShipmentInput{
		Title: "Chairs", PickupAddress: "a", PickupCity: "Lagos",
		DeliveryAddress: "b", DeliveryCity: "Abuja", WeightKg: 50,
	}

	if _, err := svc.Post(context.Background(), carrier, valid); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("carrier post: got %v, want ErrPermissionDenied", err)
	}

	broken := []func(*PostShipmentInput){
		func(i *PostShipmentInput) { i.Title = " " },
		func(i *PostShipmentInput) { i.PickupCity = "" },
		func(i *PostShipmentInput) { i.DeliveryAddress = "" },
		func(i *PostShipmentInput) { i.WeightKg = 0 },
		func(i *PostShipmentInput) { i.TransportMode = "teleport" },
	}
	for i, mutate := range broken {
		input := valid
		mutate(&input)
		if _, err := svc.Post(context.Background(), shipper, input); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("case %d: got %v, want ErrInvalidInput", i, err)
		}
	}
}

func TestDeliveryHandoff(t *testing.T) {
	store := newFakeStore()
	svc, _ := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")
	carrier := store.seedUser(model.RoleCarrier, "Ben")
	shipment := store.seedShipment(shipper, model.ShipmentStatusAccepted)
	bid := store.seedBid(carrier, shipment.ID, model.BidStatusAccepted)
	store.shipments[shipment.ID].AcceptedBidID = &bid.ID

	// Only the assigned carrier may mark delivered.
	stranger := store.seedUser(model.RoleCarrier, "Cal")
	if _, err := svc.MarkDeliveredByLogistics(context.Background(), stranger, shipment.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("foreign carrier: got %v, want ErrPermissionDenied", err)
	}

	delivered, err := svc.MarkDeliveredByLogistics(context.Background(), carrier, shipment.ID)
	if err != nil {
		t.Fatalf("mark delivered by logistics: %v", err)
	}
	if delivered.Status != model.ShipmentStatusDelivered || !delivered.DeliveredByLogistics || delivered.DeliveredAt == nil {
		t.Errorf("delivered = %+v, want status delivered with timestamp", delivered)
	}

	awaiting, err := svc.Delivered(context.Background(), shipper)
	if err != nil {
		t.Fatalf("delivered listing: %v", err)
	}
	if len(awaiting) != 1 || awaiting[0].ID != shipment.ID {
		t.Errorf("awaiting confirmation = %+v, want the delivered shipment", awaiting)
	}

	// Confirming twice, or confirming by a non-owner, must fail.
	if _, err := svc.MarkDeliveredByUser(context.Background(), stranger, shipment.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("foreign confirm: got %v, want ErrPermissionDenied", err)
	}

	completed, err := svc.MarkDeliveredByUser(context.Background(), shipper, shipment.ID)
	if err != nil {
		t.Fatalf("mark delivered by user: %v", err)
	}
	if completed.Status != model.ShipmentStatusCompleted {
		t.Errorf("status after confirmation = %s, want completed", completed.Status)
	}

	history, err := svc.History(context.Background(), shipper)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].Status != model.ShipmentStatusCompleted {
		t.Errorf("history = %+v, want the completed shipment", history)
	}

	if _, err := svc.MarkDeliveredByUser(context.Background(), shipper, shipment.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double confirm: got %v, want ErrInvalidTransition", err)
	}
}

func TestRateShipment(t *testing.T) {
	store := newFakeStore()
	svc, _ := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")
	completed := store.seedShipment(shipper, model.ShipmentStatusCompleted)

	rated, err := svc.Rate(context.Background(), shipper, completed.ID, 4, "smooth delivery")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rated.Rating == nil || rated.Rating.Score != 4 || rated.Rating.Feedback != "smooth delivery" {
		t.Errorf("rating = %+v, want 4/smooth delivery", rated.Rating)
	}
	if rated.Status != model.ShipmentStatusCompleted {
		t.Errorf("rating must not change status, got %s", rated.Status)
	}

	// Write-once.
	if _, err := svc.Rate(context.Background(), shipper, completed.ID, 5, "again"); !errors.Is(err, ErrConflict) {
		t.Errorf("second rating: got %v, want ErrConflict", err)
	}
}

func TestRateNonCompletedShipment(t *testing.T) {
	store := newFakeStore()
	svc, _ := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")
	open := store.seedShipment(shipper, model.ShipmentStatusOpen)

	_, err := svc.Rate(context.Background(), shipper, open.ID, 5, "eager")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("rate open shipment: got %v, want ErrConflict", err)
	}
	if store.shipments[open.ID].Rating != nil {
		t.Error("failed rating must not mutate the shipment")
	}
	if store.shipments[open.ID].Status != model.ShipmentStatusOpen {
		t.Error("failed rating must not change status")
	}

	if _, err := svc.Rate(context.Background(), shipper, open.ID, 9, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("out-of-range score: got %v, want ErrInvalidInput", err)
	}
}

func TestDeleteShipment(t *testing.T) {
	store := newFakeStore()
	svc, _ := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")
	other := store.seedUser(model.RoleShipper, "Eve")
	open := store.seedShipment(shipper, model.ShipmentStatusOpen)

	if err := svc.Delete(context.Background(), other, open.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("foreign delete: got %v, want ErrPermissionDenied", err)
	}
	if err := svc.Delete(context.Background(), shipper, open.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, ok := store.shipments[open.ID]; ok {
		t.Error("deleted shipment still stored")
	}
	mine, _ := svc.ListMine(context.Background(), shipper)
	for _, s := range mine {
		if s.ID == open.ID {
			t.Error("deleted shipment still listed")
		}
	}
	if _, err := svc.GetByID(context.Background(), shipper, open.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted: got %v, want ErrNotFound", err)
	}

	engaged := store.seedShipment(shipper, model.ShipmentStatusAccepted)
	if err := svc.Delete(context.Background(), shipper, engaged.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("delete engaged: got %v, want ErrConflict", err)
	}
}

func TestCancelAndReturn(t *testing.T) {
	store := newFakeStore()
	svc, publisher := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")
	carrier := store.seedUser(model.RoleCarrier, "Ben")

	open := store.seedShipment(shipper, model.ShipmentStatusOpen)
	cancelled, err := svc.UpdateStatus(context.Background(), shipper, open.ID, model.ShipmentStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.ShipmentStatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if len(publisher.keys) != 1 {
		t.Errorf("expected one status event, got %v", publisher.keys)
	}

	// Return is a carrier action on an engaged shipment.
	engaged := store.seedShipment(shipper, model.ShipmentStatusAccepted)
	bid := store.seedBid(carrier, engaged.ID, model.BidStatusAccepted)
	store.shipments[engaged.ID].AcceptedBidID = &bid.ID

	if _, err := svc.UpdateStatus(context.Background(), shipper, engaged.ID, model.ShipmentStatusReturned); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("shipper return: got %v, want ErrPermissionDenied", err)
	}
	returned, err := svc.UpdateStatus(context.Background(), carrier, engaged.ID, model.ShipmentStatusReturned)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != model.ShipmentStatusReturned {
		t.Errorf("status = %s, want returned", returned.Status)
	}

	// Acceptance is not reachable through the generic endpoint.
	another := store.seedShipment(shipper, model.ShipmentStatusOpen)
	if _, err := svc.UpdateStatus(context.Background(), shipper, another.ID, model.ShipmentStatusAccepted); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("generic accept: got %v, want ErrInvalidInput", err)
	}
	// Illegal edges are rejected before any permission logic runs.
	if _, err := svc.UpdateStatus(context.Background(), shipper, another.ID, model.ShipmentStatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("open -> completed: got %v, want ErrInvalidTransition", err)
	}
}

func TestShipmentVisibility(t *testing.T) {
	store := newFakeStore()
	svc, _ := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")
	carrier := store.seedUser(model.RoleCarrier, "Ben")
	stranger := store.seedUser(model.RoleCarrier, "Cal")

	open := store.seedShipment(shipper, model.ShipmentStatusOpen)
	if _, err := svc.GetByID(context.Background(), carrier, open.ID); err != nil {
		t.Errorf("carrier viewing open shipment: %v", err)
	}

	engaged := store.seedShipment(shipper, model.ShipmentStatusAccepted)
	bid := store.seedBid(carrier, engaged.ID, model.BidStatusAccepted)
	store.shipments[engaged.ID].AcceptedBidID = &bid.ID

	if _, err := svc.GetByID(context.Background(), shipper, engaged.ID); err != nil {
		t.Errorf("owner view: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), carrier, engaged.ID); err != nil {
		t.Errorf("assigned carrier view: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), stranger, engaged.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("stranger view: got %v, want ErrPermissionDenied", err)
	}
}

func TestWaybill(t *testing.T) {
	store := newFakeStore()
	svc, _ := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")
	carrier := store.seedUser(model.RoleCarrier, "Ben")

	open := store.seedShipment(shipper, model.ShipmentStatusOpen)
	if _, err := svc.Waybill(context.Background(), shipper, open.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("waybill without accepted bid: got %v, want ErrConflict", err)
	}

	engaged := store.seedShipment(shipper, model.ShipmentStatusAccepted)
	bid := store.seedBid(carrier, engaged.ID, model.BidStatusAccepted)
	store.shipments[engaged.ID].AcceptedBidID = &bid.ID

	result, err := svc.Waybill(context.Background(), carrier, engaged.ID)
	if err != nil {
		t.Fatalf("waybill: %v", err)
	}
	if result.ContentType != "application/pdf" || len(result.Content) == 0 {
		t.Errorf("waybill result = %+v, want pdf content", result)
	}

	stranger := store.seedUser(model.RoleCarrier, "Cal")
	if _, err := svc.Waybill(context.Background(), stranger, engaged.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("stranger waybill: got %v, want ErrPermissionDenied", err)
	}
}

func TestExportHistory(t *testing.T) {
	store := newFakeStore()
	svc, _ := newShipmentService(store)
	shipper := store.seedUser(model.RoleShipper, "Ada")
	store.seedShipment(shipper, model.ShipmentStatusCompleted)

	result, err := svc.ExportHistory(context.Background(), shipper)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.ContentType != xlsxContentType || len(result.Content) == 0 {
		t.Errorf("export result = %+v, want xlsx content", result)
	}

	carrier := store.seedUser(model.RoleCarrier, "Ben")
	if _, err := svc.ExportHistory(context.Background(), carrier); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("carrier export: got %v, want ErrPermissionDenied", err)
	}
}
