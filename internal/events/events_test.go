package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestWebhookEventBus(t *testing.T) {
	t.Run("posts an order.created envelope", func(t *testing.T) {
		var (
			got     Envelope
			headers http.Header
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers = r.Header.Clone()
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode body: %v", err)
			}
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		bus := NewWebhookEventBus(server.URL, server.Client())
		bus.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }

		if err := bus.PublishOrderCreated(context.Background(), 77); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got.Type != TypeOrderCreated || got.OrderID != 77 {
			t.Errorf("unexpected envelope %+v", got)
		}
		if got.ID == "" || headers.Get("X-Event-ID") != got.ID {
			t.Errorf("expected event id header to match body, got %q vs %q", headers.Get("X-Event-ID"), got.ID)
		}
		if headers.Get("X-Event-Type") != TypeOrderCreated {
			t.Errorf("unexpected event type header %q", headers.Get("X-Event-Type"))
		}
		if !got.OccurredAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected timestamp %v", got.OccurredAt)
		}
	})

	t.Run("non-2xx responses are errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		err := NewWebhookEventBus(server.URL, nil).PublishOrderCreated(context.Background(), 1)
		if err == nil || !strings.Contains(err.Error(), "503") {
			t.Errorf("expected 503 error, got %v", err)
		}
	})

	t.Run("unreachable endpoint is an error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		if err := NewWebhookEventBus(url, nil).PublishOrderCreated(context.Background(), 1); err == nil {
			t.Error("expected delivery error")
		}
	})
}

func TestLogEventBus(t *testing.T) {
	var buf bytes.Buffer
	bus := NewLogEventBus(slog.New(slog.NewJSONHandler(&buf, nil)))

	if err := bus.PublishOrderCreated(context.Background(), 5); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid log line: %v", err)
	}
	if entry["event_type"] != TypeOrderCreated || entry["order_id"] != float64(5) {
		t.Errorf("unexpected log entry %v", entry)
	}
}

func TestRecordPublish(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	ctx := context.Background()
	metrics.RecordPublish(ctx, TypeOrderCreated, 0.01, true)
	metrics.RecordPublish(ctx, TypeOrderCreated, 0.02, false)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "event_publish_latency_seconds" {
				continue
			}
			histogram, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatal("Expected Histogram[float64] data type")
			}
			if len(histogram.DataPoints) != 2 {
				t.Errorf("Expected 2 data points, got %d", len(histogram.DataPoints))
			}
			return
		}
	}
	t.Error("event_publish_latency_seconds metric not found")
}
