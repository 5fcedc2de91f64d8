package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

// TrackingItems reads the Shipment Tracking extension's items for an order.
// A shop without the extension answers rest_no_route, reported as ErrTrackingUnavailable.
func (c *Client) TrackingItems(ctx context.Context, orderID int64, formatted bool) ([]ports.TrackingItem, error) {
	url := c.storeURL + trackingPath + orderPath(orderID) + "/shipment-trackings"

	var raw []wooTrackingItem
	if _, err := c.do(ctx, "tracking_items", http.MethodGet, url, nil, &raw); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound && apiErr.Code == "rest_no_route" {
			return nil, fmt.Errorf("%w: %s", ports.ErrTrackingUnavailable, apiErr.Message)
		}
		return nil, fmt.Errorf("tracking items for order %d: %w", orderID, err)
	}

	items := make([]ports.TrackingItem, 0, len(raw))
	for _, r := range raw {
		item := ports.TrackingItem{
			TrackingProvider: r.TrackingProvider,
			TrackingNumber:   r.TrackingNumber,
			DateShipped:      shippedDate(r.DateShipped),
		}
		if formatted {
			item.FormattedTrackingProvider = r.TrackingProvider
			if r.CustomTrackingProvider != "" {
				item.FormattedTrackingProvider = r.CustomTrackingProvider
			}
		}
		items = append(items, item)
	}
	return items, nil
}
