package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/mainstem/mainstem-bridge/internal/orders/metrics"
	"github.com/mainstem/mainstem-bridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		o.metrics.RecordOrderCreationDuration(ctx, time.Since(start).Seconds())
		o.metrics.RecordOrderCreated(ctx, success)
	}()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.mainstem_id", cmd.MainStemOrderID),
		attribute.Int("order.line_items", len(cmd.LineItems)),
	)

	o.logger.InfoContext(ctx, "creating order",
		"mainstem_order_id", cmd.MainStemOrderID,
		"line_items", len(cmd.LineItems),
	)

	orderID, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to create order",
			"error", err,
			"mainstem_order_id", cmd.MainStemOrderID,
			"order_id", orderID,
		)
		return orderID, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int64("order.id", orderID))

	o.logger.InfoContext(ctx, "order created successfully",
		"order_id", orderID,
		"mainstem_order_id", cmd.MainStemOrderID,
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return orderID, nil
}
