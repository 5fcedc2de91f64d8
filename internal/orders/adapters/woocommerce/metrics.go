package woocommerce

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	requestDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestDuration, err := meter.Float64Histogram(
		"woocommerce_request_duration_seconds",
		metric.WithDescription("Duration of WooCommerce REST API requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create woocommerce_request_duration histogram: %w", err)
	}
	return &Metrics{requestDuration: requestDuration}, nil
}

// RecordRequest records one call. status 0 means no response was received.
func (m *Metrics) RecordRequest(ctx context.Context, endpoint string, status int, durationSeconds float64) {
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requestDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status_code", code),
	))
}
