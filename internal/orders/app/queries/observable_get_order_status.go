package queries

import (
	"context"
	"log/slog"
	"time"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/metrics"
	"github.com/mainstem/mainstem-bridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableGetOrderStatusHandler struct {
	handler GetOrderStatusHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableGetOrderStatusHandler(handler GetOrderStatusHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableGetOrderStatusHandler {
	return &ObservableGetOrderStatusHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableGetOrderStatusHandler) Handle(ctx context.Context, query GetOrderStatusQuery) (*domain.OrderStatus, error) {
	ctx, span := telemetry.StartSpan(ctx, "GetOrderStatusQuery.Handle")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.Int64("order.id", query.OrderID))

	start := time.Now()
	status, err := o.handler.Handle(ctx, query)
	duration := time.Since(start).Seconds()

	if err != nil {
		o.metrics.RecordStatusLookup(ctx, "", false, duration)
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "order status lookup failed",
			"error", err,
			"order_id", query.OrderID,
		)
		return nil, err
	}

	o.metrics.RecordStatusLookup(ctx, string(status.Source), true, duration)

	telemetry.AddSpanAttributes(span,
		attribute.String("shipments.source", string(status.Source)),
		attribute.Int("shipments.count", len(status.Shipments)),
	)

	if status.Source == domain.SourceMetadata {
		o.logger.InfoContext(ctx, "shipments resolved from order metadata",
			"order_id", status.ID,
		)
	} else {
		o.logger.DebugContext(ctx, "shipments resolved from tracking integration",
			"order_id", status.ID,
			"shipments", len(status.Shipments),
		)
	}

	telemetry.SetSpanSuccess(span)
	return status, nil
}
