package adapters

import (
	"context"
	"time"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
	"github.com/mainstem/mainstem-bridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCatalog struct {
	catalog ports.ProductCatalog
	metrics *StoreMetrics
}

func NewObservableCatalog(catalog ports.ProductCatalog, metrics *StoreMetrics) *ObservableCatalog {
	return &ObservableCatalog{catalog: catalog, metrics: metrics}
}

func (c *ObservableCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductCatalog.ListProducts")
	defer span.End()

	start := time.Now()
	products, err := c.catalog.ListProducts(ctx)
	c.metrics.RecordOperation(ctx, "list_products", err == nil, time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(products)))
	telemetry.SetSpanSuccess(span)
	return products, nil
}
