package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal    metric.Int64Counter
	orderCreationDuration metric.Float64Histogram
	statusLookupsTotal    metric.Int64Counter
	statusLookupDuration  metric.Float64Histogram
	productListDuration   metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration histogram: %w", err)
	}

	m.statusLookupsTotal, err = meter.Int64Counter(
		"order_status_lookups_total",
		metric.WithDescription("Total number of order status lookups by shipment source"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_status_lookups_total counter: %w", err)
	}

	m.statusLookupDuration, err = meter.Float64Histogram(
		"order_status_duration_seconds",
		metric.WithDescription("Duration of order status lookups"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_status_duration histogram: %w", err)
	}

	m.productListDuration, err = meter.Float64Histogram(
		"product_list_duration_seconds",
		metric.WithDescription("Duration of product listing"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create product_list_duration histogram: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", outcome(success)),
	))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, durationSeconds float64) {
	m.orderCreationDuration.Record(ctx, durationSeconds)
}

// RecordStatusLookup counts a lookup. source is empty when the lookup failed.
func (m *Metrics) RecordStatusLookup(ctx context.Context, source string, success bool, durationSeconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", outcome(success)),
	)
	m.statusLookupsTotal.Add(ctx, 1, attrs)
	m.statusLookupDuration.Record(ctx, durationSeconds, attrs)
}

func (m *Metrics) RecordProductList(ctx context.Context, success bool, durationSeconds float64) {
	m.productListDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("status", outcome(success)),
	))
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
