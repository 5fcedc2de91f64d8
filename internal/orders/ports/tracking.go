package ports

import (
	"context"
	"errors"
)

// TrackingItem is a structured tracking record as returned by a shipment tracking integration.
type TrackingItem struct {
	TrackingProvider          string
	FormattedTrackingProvider string
	TrackingNumber            string
	DateShipped               string
}

// ShipmentTracker looks up tracking records for an order. Implementations are optional;
// any error means "no tracking integration" to callers.
type ShipmentTracker interface {
	TrackingItems(ctx context.Context, orderID int64, formatted bool) ([]TrackingItem, error)
}

// ErrTrackingUnavailable is returned when no tracking integration is installed or enabled.
var ErrTrackingUnavailable = errors.New("shipment tracking unavailable")
