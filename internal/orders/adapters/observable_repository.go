package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
	"github.com/mainstem/mainstem-bridge/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *StoreMetrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *StoreMetrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, order domain.NewOrder) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Create")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.Int("order.line_items", len(order.LineItems)),
		attribute.String("order.created_via", order.CreatedVia),
	)

	start := time.Now()
	id, err := r.repo.Create(ctx, order)
	r.metrics.RecordOperation(ctx, "create_order", err == nil, time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return 0, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int64("order.id", id))
	telemetry.SetSpanSuccess(span)
	return id, nil
}

func (r *ObservableRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.Int64("order.id", id))

	start := time.Now()
	order, err := r.repo.GetByID(ctx, id)
	// A missing order is an answer, not a store failure.
	r.metrics.RecordOperation(ctx, "get_order", err == nil || errors.Is(err, ports.ErrNotFound), time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("order.meta_count", len(order.Meta)))
	telemetry.SetSpanSuccess(span)
	return order, nil
}
