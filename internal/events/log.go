package events

import (
	"context"
	"log/slog"
)

// LogEventBus writes events to the logger instead of delivering them.
type LogEventBus struct {
	logger *slog.Logger
}

func NewLogEventBus(logger *slog.Logger) *LogEventBus {
	return &LogEventBus{logger: logger}
}

func (b *LogEventBus) PublishOrderCreated(ctx context.Context, orderID int64) error {
	b.logger.InfoContext(ctx, "event published",
		"event_type", TypeOrderCreated,
		"order_id", orderID,
	)
	return nil
}
