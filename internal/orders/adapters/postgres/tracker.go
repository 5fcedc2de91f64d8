package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

// Tracker reads tracking items recorded against orders in shipment_tracking_items.
type Tracker struct {
	pool *pgxpool.Pool
}

func NewTracker(pool *pgxpool.Pool) *Tracker {
	return &Tracker{pool: pool}
}

func (t *Tracker) TrackingItems(ctx context.Context, orderID int64, formatted bool) ([]ports.TrackingItem, error) {
	rows, err := t.pool.Query(ctx, `
		SELECT tracking_provider, custom_tracking_provider, provider_title, tracking_number, date_shipped
		FROM shipment_tracking_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query tracking items: %w", err)
	}
	defer rows.Close()

	items := []ports.TrackingItem{}
	for rows.Next() {
		var (
			item          ports.TrackingItem
			custom, title string
		)
		if err := rows.Scan(&item.TrackingProvider, &custom, &title, &item.TrackingNumber, &item.DateShipped); err != nil {
			return nil, fmt.Errorf("scan tracking item: %w", err)
		}
		if formatted {
			item.FormattedTrackingProvider = formattedProvider(item.TrackingProvider, custom, title)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking items: %w", err)
	}

	return items, nil
}

// formattedProvider prefers a custom carrier name, then the display title, then the slug.
func formattedProvider(slug, custom, title string) string {
	switch {
	case custom != "":
		return custom
	case title != "":
		return title
	default:
		return slug
	}
}
