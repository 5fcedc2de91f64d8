package adapters

import (
	"context"
	"time"

	"github.com/mainstem/mainstem-bridge/internal/events"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
	"github.com/mainstem/mainstem-bridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *events.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *events.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, orderID int64) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.PublishOrderCreated", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.id", orderID),
		attribute.String("event.type", events.TypeOrderCreated),
	)

	start := time.Now()
	err := e.bus.PublishOrderCreated(ctx, orderID)
	e.metrics.RecordPublish(ctx, events.TypeOrderCreated, time.Since(start).Seconds(), err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
