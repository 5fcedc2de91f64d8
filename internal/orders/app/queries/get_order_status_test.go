package queries_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/mainstem/mainstem-bridge/internal/orders/app/queries"
	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

type fakeRepository struct {
	orders map[int64]domain.Order
	err    error
	calls  int
}

func (r *fakeRepository) Create(ctx context.Context, order domain.NewOrder) (int64, error) {
	return 0, errors.New("not implemented")
}

func (r *fakeRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &order, nil
}

type fakeTracker struct {
	items     []ports.TrackingItem
	err       error
	panicWith any
	calls     int
	formatted []bool
}

func (f *fakeTracker) TrackingItems(ctx context.Context, orderID int64, formatted bool) ([]ports.TrackingItem, error) {
	f.calls++
	f.formatted = append(f.formatted, formatted)
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

func shippedMeta() []domain.MetaEntry {
	return []domain.MetaEntry{
		{Key: "shipment tracking", Value: "1Z999"},
		{Key: "shipment carrier", Value: "UPS"},
		{Key: "shipment date", Value: "2024-01-05"},
	}
}

func TestGetOrderStatus(t *testing.T) {
	t.Run("returns tracking items in service order", func(t *testing.T) {
		repo := &fakeRepository{orders: map[int64]domain.Order{
			42: {ID: 42, Total: "19.99", Meta: shippedMeta()},
		}}
		tracker := &fakeTracker{items: []ports.TrackingItem{
			{TrackingProvider: "fedex", FormattedTrackingProvider: "FedEx", TrackingNumber: "F1", DateShipped: "2024-02-01"},
			{TrackingProvider: "usps", FormattedTrackingProvider: "USPS", TrackingNumber: "U2", DateShipped: "2024-02-02"},
			{TrackingProvider: "dhl", FormattedTrackingProvider: "DHL", TrackingNumber: "D3", DateShipped: "2024-02-03"},
		}}
		handler := queries.NewGetOrderStatusQueryHandler(repo, tracker)

		status, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 42})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []domain.Shipment{
			{TrackingProvider: "FedEx", TrackingNumber: "F1", DateShipped: "2024-02-01"},
			{TrackingProvider: "USPS", TrackingNumber: "U2", DateShipped: "2024-02-02"},
			{TrackingProvider: "DHL", TrackingNumber: "D3", DateShipped: "2024-02-03"},
		}
		if !reflect.DeepEqual(status.Shipments, want) {
			t.Errorf("expected shipments %+v, got %+v", want, status.Shipments)
		}
		if status.Source != domain.SourceTracking {
			t.Errorf("expected source %s, got %s", domain.SourceTracking, status.Source)
		}
		if !status.WasSuccessful {
			t.Error("expected wasSuccessful to be true")
		}
	})

	t.Run("requests formatted provider names", func(t *testing.T) {
		repo := &fakeRepository{orders: map[int64]domain.Order{1: {ID: 1, Total: "1.00"}}}
		tracker := &fakeTracker{}
		handler := queries.NewGetOrderStatusQueryHandler(repo, tracker)

		if _, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 1}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(tracker.formatted) != 1 || !tracker.formatted[0] {
			t.Errorf("expected one call with formatted=true, got %v", tracker.formatted)
		}
	})

	t.Run("empty tracking result does not fall back", func(t *testing.T) {
		repo := &fakeRepository{orders: map[int64]domain.Order{
			7: {ID: 7, Total: "5.00", Meta: shippedMeta()},
		}}
		tracker := &fakeTracker{items: []ports.TrackingItem{}}
		handler := queries.NewGetOrderStatusQueryHandler(repo, tracker)

		status, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 7})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if status.Shipments == nil {
			t.Fatal("expected empty, non-nil shipments")
		}
		if len(status.Shipments) != 0 {
			t.Errorf("expected 0 shipments, got %d", len(status.Shipments))
		}
		if status.Source != domain.SourceTracking {
			t.Errorf("expected source %s, got %s", domain.SourceTracking, status.Source)
		}
	})

	t.Run("nil tracking result is normalized to empty shipments", func(t *testing.T) {
		repo := &fakeRepository{orders: map[int64]domain.Order{7: {ID: 7, Total: "5.00"}}}
		handler := queries.NewGetOrderStatusQueryHandler(repo, &fakeTracker{items: nil})

		status, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 7})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if status.Shipments == nil || len(status.Shipments) != 0 {
			t.Errorf("expected empty shipments, got %#v", status.Shipments)
		}
	})

	t.Run("falls back to metadata when tracking fails", func(t *testing.T) {
		repo := &fakeRepository{orders: map[int64]domain.Order{
			42: {ID: 42, Total: "19.99", Meta: shippedMeta()},
		}}
		tracker := &fakeTracker{
			items: []ports.TrackingItem{{FormattedTrackingProvider: "ignored"}, {FormattedTrackingProvider: "ignored"}},
			err:   errors.New("connection refused"),
		}
		handler := queries.NewGetOrderStatusQueryHandler(repo, tracker)

		status, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 42})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := &domain.OrderStatus{
			WasSuccessful: true,
			ID:            42,
			Total:         "19.99",
			Shipments: []domain.Shipment{
				{TrackingProvider: "UPS", TrackingNumber: "1Z999", DateShipped: "2024-01-05"},
			},
			Source: domain.SourceMetadata,
		}
		if !reflect.DeepEqual(status, want) {
			t.Errorf("expected %+v, got %+v", want, status)
		}
	})

	t.Run("falls back to metadata when no tracker is configured", func(t *testing.T) {
		repo := &fakeRepository{orders: map[int64]domain.Order{
			42: {ID: 42, Total: "19.99", Meta: shippedMeta()},
		}}
		handler := queries.NewGetOrderStatusQueryHandler(repo, nil)

		status, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 42})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(status.Shipments) != 1 || status.Shipments[0].TrackingNumber != "1Z999" {
			t.Errorf("expected single metadata shipment, got %+v", status.Shipments)
		}
	})

	t.Run("falls back to metadata when tracker panics", func(t *testing.T) {
		repo := &fakeRepository{orders: map[int64]domain.Order{
			42: {ID: 42, Total: "19.99", Meta: shippedMeta()},
		}}
		handler := queries.NewGetOrderStatusQueryHandler(repo, &fakeTracker{panicWith: "plugin class missing"})

		status, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 42})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if status.Source != domain.SourceMetadata {
			t.Errorf("expected source %s, got %s", domain.SourceMetadata, status.Source)
		}
	})

	t.Run("fallback synthesizes one empty shipment when metadata has no keys", func(t *testing.T) {
		repo := &fakeRepository{orders: map[int64]domain.Order{
			3: {ID: 3, Total: "0.00", Meta: []domain.MetaEntry{{Key: "mainstem_order_id", Value: "MS-3"}}},
		}}
		handler := queries.NewGetOrderStatusQueryHandler(repo, &fakeTracker{err: ports.ErrTrackingUnavailable})

		status, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 3})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := []domain.Shipment{{}}
		if !reflect.DeepEqual(status.Shipments, want) {
			t.Errorf("expected %+v, got %+v", want, status.Shipments)
		}
		if !status.WasSuccessful {
			t.Error("expected wasSuccessful to be true")
		}
	})

	t.Run("missing order fails before tracking is consulted", func(t *testing.T) {
		repo := &fakeRepository{orders: map[int64]domain.Order{}}
		tracker := &fakeTracker{}
		handler := queries.NewGetOrderStatusQueryHandler(repo, tracker)

		status, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 999})

		if !errors.Is(err, ports.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if status != nil {
			t.Errorf("expected nil result, got %+v", status)
		}
		if tracker.calls != 0 {
			t.Errorf("expected tracker not to be called, got %d calls", tracker.calls)
		}
	})

	t.Run("store errors propagate", func(t *testing.T) {
		storeErr := errors.New("connection reset")
		repo := &fakeRepository{err: storeErr}
		tracker := &fakeTracker{}
		handler := queries.NewGetOrderStatusQueryHandler(repo, tracker)

		_, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: 1})

		if !errors.Is(err, storeErr) {
			t.Errorf("expected store error, got %v", err)
		}
		if tracker.calls != 0 {
			t.Errorf("expected tracker not to be called, got %d calls", tracker.calls)
		}
	})

	t.Run("rejects non-positive ids without touching the store", func(t *testing.T) {
		repo := &fakeRepository{}
		handler := queries.NewGetOrderStatusQueryHandler(repo, &fakeTracker{})

		for _, id := range []int64{0, -5} {
			_, err := handler.Handle(context.Background(), queries.GetOrderStatusQuery{OrderID: id})
			if !errors.Is(err, ports.ErrInvalidInput) {
				t.Errorf("id %d: expected ErrInvalidInput, got %v", id, err)
			}
		}
		if repo.calls != 0 {
			t.Errorf("expected store not to be called, got %d calls", repo.calls)
		}
	})
}

func TestGetOrderStatusQueryValidation(t *testing.T) {
	tests := []struct {
		name    string
		query   queries.GetOrderStatusQuery
		wantErr bool
	}{
		{name: "positive id", query: queries.GetOrderStatusQuery{OrderID: 1}, wantErr: false},
		{name: "large id", query: queries.GetOrderStatusQuery{OrderID: 1 << 40}, wantErr: false},
		{name: "zero id", query: queries.GetOrderStatusQuery{OrderID: 0}, wantErr: true},
		{name: "negative id", query: queries.GetOrderStatusQuery{OrderID: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
