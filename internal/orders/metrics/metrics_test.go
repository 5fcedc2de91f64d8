package metrics

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestInitializeMetrics(t *testing.T) {
	t.Run("initializes all metric instruments successfully", func(t *testing.T) {
		metrics, _ := newTestMetrics(t)

		if metrics.ordersCreatedTotal == nil {
			t.Error("ordersCreatedTotal is nil")
		}
		if metrics.orderCreationDuration == nil {
			t.Error("orderCreationDuration is nil")
		}
		if metrics.statusLookupsTotal == nil {
			t.Error("statusLookupsTotal is nil")
		}
		if metrics.statusLookupDuration == nil {
			t.Error("statusLookupDuration is nil")
		}
		if metrics.productListDuration == nil {
			t.Error("productListDuration is nil")
		}
	})
}

func TestRecordOrderCreated(t *testing.T) {
	t.Run("records order creation count with success and error status", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordOrderCreated(ctx, true)
		metrics.RecordOrderCreated(ctx, false)

		m, found := findMetric(t, reader, "orders_created_total")
		if !found {
			t.Fatal("orders_created_total metric not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
		}
	})
}

func TestRecordOrderCreationDuration(t *testing.T) {
	t.Run("records order creation duration", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordOrderCreationDuration(ctx, 1.5)
		metrics.RecordOrderCreationDuration(ctx, 2.3)

		m, found := findMetric(t, reader, "order_creation_duration_seconds")
		if !found {
			t.Fatal("order_creation_duration_seconds metric not found")
		}
		histogram, ok := m.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("Expected Histogram[float64] data type")
		}
		if len(histogram.DataPoints) != 1 {
			t.Fatalf("Expected 1 data point, got %d", len(histogram.DataPoints))
		}
		if histogram.DataPoints[0].Count != 2 {
			t.Errorf("Expected count=2, got %d", histogram.DataPoints[0].Count)
		}
	})
}

func TestRecordStatusLookup(t *testing.T) {
	t.Run("separates lookups by shipment source", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordStatusLookup(ctx, "tracking", true, 0.01)
		metrics.RecordStatusLookup(ctx, "metadata", true, 0.02)
		metrics.RecordStatusLookup(ctx, "metadata", true, 0.03)
		metrics.RecordStatusLookup(ctx, "", false, 0.01)

		m, found := findMetric(t, reader, "order_status_lookups_total")
		if !found {
			t.Fatal("order_status_lookups_total metric not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 3 {
			t.Errorf("Expected 3 data points, got %d", len(sum.DataPoints))
		}

		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}
		if total != 4 {
			t.Errorf("Expected 4 lookups, got %d", total)
		}

		if _, found := findMetric(t, reader, "order_status_duration_seconds"); !found {
			t.Error("order_status_duration_seconds metric not found")
		}
	})
}

func TestRecordProductList(t *testing.T) {
	t.Run("records product list duration", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)

		metrics.RecordProductList(context.Background(), true, 0.2)

		m, found := findMetric(t, reader, "product_list_duration_seconds")
		if !found {
			t.Fatal("product_list_duration_seconds metric not found")
		}
		if _, ok := m.Data.(metricdata.Histogram[float64]); !ok {
			t.Fatal("Expected Histogram[float64] data type")
		}
	})
}
