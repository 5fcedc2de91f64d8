package adapters

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
	"github.com/mainstem/mainstem-bridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableTracker records tracker calls. Errors are logged here because the
// status resolver absorbs them into the metadata fallback.
type ObservableTracker struct {
	tracker ports.ShipmentTracker
	logger  *slog.Logger
	metrics *StoreMetrics
}

func NewObservableTracker(tracker ports.ShipmentTracker, logger *slog.Logger, metrics *StoreMetrics) *ObservableTracker {
	return &ObservableTracker{
		tracker: tracker,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *ObservableTracker) TrackingItems(ctx context.Context, orderID int64, formatted bool) ([]ports.TrackingItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ShipmentTracker.TrackingItems")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", orderID),
		attribute.Bool("tracking.formatted", formatted),
	)

	start := time.Now()
	items, err := t.tracker.TrackingItems(ctx, orderID, formatted)
	unavailable := errors.Is(err, ports.ErrTrackingUnavailable)
	t.metrics.RecordOperation(ctx, "tracking_items", err == nil || unavailable, time.Since(start).Seconds())

	if err != nil {
		telemetry.AddSpanAttributes(span, attribute.Bool("tracking.available", false))
		if unavailable {
			t.logger.DebugContext(ctx, "shipment tracking unavailable", "order_id", orderID)
			telemetry.SetSpanSuccess(span)
		} else {
			t.logger.WarnContext(ctx, "shipment tracking lookup failed",
				"error", err,
				"order_id", orderID,
			)
			telemetry.RecordSpanError(span, err)
		}
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.Bool("tracking.available", true),
		attribute.Int("tracking.count", len(items)),
	)
	telemetry.SetSpanSuccess(span)
	return items, nil
}
