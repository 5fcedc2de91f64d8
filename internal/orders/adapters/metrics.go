package adapters

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// StoreMetrics measures calls made through the store ports, whichever backend serves them.
type StoreMetrics struct {
	backend           string
	operationDuration metric.Float64Histogram
}

func NewStoreMetrics(meter metric.Meter, backend string) (*StoreMetrics, error) {
	operationDuration, err := meter.Float64Histogram(
		"store_operation_duration_seconds",
		metric.WithDescription("Duration of order store, tracker and catalog calls"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create store_operation_duration histogram: %w", err)
	}

	return &StoreMetrics{backend: backend, operationDuration: operationDuration}, nil
}

func (m *StoreMetrics) RecordOperation(ctx context.Context, operation string, success bool, durationSeconds float64) {
	status := "success"
	if !success {
		status = "error"
	}
	m.operationDuration.Record(ctx, durationSeconds, metric.WithAttributes(
		attribute.String("backend", m.backend),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}
