package adapters

import (
	"context"

	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

// DisabledTracker stands in when no tracking integration is configured.
type DisabledTracker struct{}

func (DisabledTracker) TrackingItems(context.Context, int64, bool) ([]ports.TrackingItem, error) {
	return nil, ports.ErrTrackingUnavailable
}
