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

type ObservableListProductsHandler struct {
	handler ListProductsHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableListProductsHandler(handler ListProductsHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableListProductsHandler {
	return &ObservableListProductsHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableListProductsHandler) Handle(ctx context.Context, query ListProductsQuery) ([]domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "ListProductsQuery.Handle")
	defer span.End()

	start := time.Now()
	products, err := o.handler.Handle(ctx, query)
	o.metrics.RecordProductList(ctx, err == nil, time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to list products", "error", err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(products)))
	telemetry.SetSpanSuccess(span)
	return products, nil
}
