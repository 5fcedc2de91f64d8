package queries

import (
	"context"
	"fmt"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

// GetOrderStatusQuery asks for the status and shipments of an order.
type GetOrderStatusQuery struct {
	OrderID int64
}

// Validate ensures the query has valid parameters.
func (q GetOrderStatusQuery) Validate() error {
	if q.OrderID <= 0 {
		return fmt.Errorf("%w: order_id must be a positive integer", ports.ErrInvalidInput)
	}
	return nil
}

// GetOrderStatusHandler is implemented by the resolver and its decorators.
type GetOrderStatusHandler interface {
	Handle(ctx context.Context, query GetOrderStatusQuery) (*domain.OrderStatus, error)
}

// GetOrderStatusQueryHandler resolves shipments from the tracking integration,
// falling back to order metadata when the integration fails.
type GetOrderStatusQueryHandler struct {
	repo    ports.OrderRepository
	tracker ports.ShipmentTracker
}

// NewGetOrderStatusQueryHandler constructs a GetOrderStatusQueryHandler. tracker may be nil.
func NewGetOrderStatusQueryHandler(repo ports.OrderRepository, tracker ports.ShipmentTracker) *GetOrderStatusQueryHandler {
	return &GetOrderStatusQueryHandler{repo: repo, tracker: tracker}
}

// Handle executes the query. Only order lookup failures are returned; tracking
// failures select the metadata fallback instead.
func (h *GetOrderStatusQueryHandler) Handle(ctx context.Context, query GetOrderStatusQuery) (*domain.OrderStatus, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}

	status := &domain.OrderStatus{
		WasSuccessful: true,
		ID:            order.ID,
		Total:         order.Total,
	}

	items, err := h.trackingItems(ctx, order.ID)
	if err != nil {
		status.Shipments = []domain.Shipment{domain.ShipmentFromMeta(order.Meta)}
		status.Source = domain.SourceMetadata
		return status, nil
	}

	status.Shipments = make([]domain.Shipment, 0, len(items))
	for _, item := range items {
		status.Shipments = append(status.Shipments, domain.Shipment{
			TrackingProvider: item.FormattedTrackingProvider,
			TrackingNumber:   item.TrackingNumber,
			DateShipped:      item.DateShipped,
		})
	}
	status.Source = domain.SourceTracking

	return status, nil
}

// trackingItems turns every failure mode of the tracker, a panic included, into an error.
func (h *GetOrderStatusQueryHandler) trackingItems(ctx context.Context, orderID int64) (items []ports.TrackingItem, err error) {
	if h.tracker == nil {
		return nil, ports.ErrTrackingUnavailable
	}

	defer func() {
		if rec := recover(); rec != nil {
			items = nil
			err = fmt.Errorf("%w: tracker panicked: %v", ports.ErrTrackingUnavailable, rec)
		}
	}()

	return h.tracker.TrackingItems(ctx, orderID, true)
}
