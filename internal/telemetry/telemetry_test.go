package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type discardMetricExporter struct {
	exports int
}

func (d *discardMetricExporter) Temporality(_ sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

func (d *discardMetricExporter) Aggregation(_ sdkmetric.InstrumentKind) sdkmetric.Aggregation {
	return sdkmetric.AggregationDefault{}
}

func (d *discardMetricExporter) Export(_ context.Context, _ *metricdata.ResourceMetrics) error {
	d.exports++
	return nil
}

func (d *discardMetricExporter) ForceFlush(_ context.Context) error { return nil }

func (d *discardMetricExporter) Shutdown(_ context.Context) error { return nil }

func testConfig() Config {
	return Config{
		ServiceName:    "mainstem-bridge",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		SampleRate:     1.0,
	}
}

func shutdown(t *testing.T, tel *Telemetry) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		t.Errorf("shutdown failed: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "zero sample rate", mutate: func(c *Config) { c.SampleRate = 0 }},
		{name: "missing service name", mutate: func(c *Config) { c.ServiceName = "" }, wantErr: ErrMissingServiceName},
		{name: "missing service version", mutate: func(c *Config) { c.ServiceVersion = "" }, wantErr: ErrMissingServiceVersion},
		{name: "negative sample rate", mutate: func(c *Config) { c.SampleRate = -0.1 }, wantErr: ErrInvalidSampleRate},
		{name: "sample rate above one", mutate: func(c *Config) { c.SampleRate = 1.1 }, wantErr: ErrInvalidSampleRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestInitialize(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.ServiceName = ""

		tel, err := Initialize(context.Background(), cfg)

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if tel != nil {
			t.Error("expected nil telemetry")
		}
	})

	t.Run("requires an endpoint when exporting without an override", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableTracing = true

		_, err := Initialize(context.Background(), cfg)

		if !errors.Is(err, ErrMissingEndpoint) {
			t.Errorf("expected ErrMissingEndpoint, got %v", err)
		}
	})

	t.Run("installs tracer provider only", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableTracing = true

		tel, err := Initialize(context.Background(), cfg, WithTraceExporter(tracetest.NewNoopExporter()))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer shutdown(t, tel)

		if tel.TracerProvider() == nil {
			t.Error("expected tracer provider")
		}
		if tel.MeterProvider() != nil {
			t.Error("expected nil meter provider")
		}
	})

	t.Run("installs meter provider and exports on shutdown", func(t *testing.T) {
		cfg := testConfig()
		cfg.EnableMetrics = true
		exporter := &discardMetricExporter{}

		tel, err := Initialize(context.Background(), cfg, WithMetricExporter(exporter))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if tel.TracerProvider() != nil {
			t.Error("expected nil tracer provider")
		}
		if tel.MeterProvider() == nil {
			t.Fatal("expected meter provider")
		}

		counter, err := tel.Meter("test").Int64Counter("smoke_total")
		if err != nil {
			t.Fatalf("create counter: %v", err)
		}
		counter.Add(context.Background(), 1)

		shutdown(t, tel)

		if exporter.exports == 0 {
			t.Error("expected metrics to be flushed on shutdown")
		}
	})

	t.Run("disabled signals need no endpoint", func(t *testing.T) {
		tel, err := Initialize(context.Background(), testConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer shutdown(t, tel)

		if tel.TracerProvider() != nil || tel.MeterProvider() != nil {
			t.Error("expected no providers")
		}
		if tel.Meter("test") == nil {
			t.Error("expected global meter fallback")
		}
	})
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: -0.5, want: "AlwaysOffSampler"},
		{rate: 0.0, want: "AlwaysOffSampler"},
		{rate: 1.0, want: "AlwaysOnSampler"},
		{rate: 2.0, want: "AlwaysOnSampler"},
	}

	for _, tt := range tests {
		if got := createSampler(tt.rate).Description(); got != tt.want {
			t.Errorf("createSampler(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}

	if got := createSampler(0.25).Description(); got == "AlwaysOnSampler" || got == "AlwaysOffSampler" {
		t.Errorf("expected ratio sampler for 0.25, got %s", got)
	}
}

func TestShutdownWithoutProviders(t *testing.T) {
	tel := &Telemetry{}

	if err := tel.Shutdown(context.Background()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
