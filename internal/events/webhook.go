// Package events delivers order lifecycle events.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const TypeOrderCreated = "order.created"

// Envelope is the JSON body posted for every event.
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	OrderID    int64     `json:"order_id"`
}

// WebhookEventBus posts events to a single HTTP endpoint.
type WebhookEventBus struct {
	url    string
	client *http.Client
	now    func() time.Time
}

func NewWebhookEventBus(url string, client *http.Client) *WebhookEventBus {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookEventBus{url: url, client: client, now: time.Now}
}

func (b *WebhookEventBus) PublishOrderCreated(ctx context.Context, orderID int64) error {
	return b.post(ctx, Envelope{
		ID:         uuid.NewString(),
		Type:       TypeOrderCreated,
		OccurredAt: b.now().UTC(),
		OrderID:    orderID,
	})
}

func (b *WebhookEventBus) post(ctx context.Context, event Envelope) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build event request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", event.Type)
	req.Header.Set("X-Event-ID", event.ID)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s: %w", event.Type, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("deliver %s: webhook responded %d", event.Type, resp.StatusCode)
	}
	return nil
}
