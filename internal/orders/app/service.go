package app

import (
	"context"
	"log/slog"

	"github.com/mainstem/mainstem-bridge/internal/orders/app/commands"
	"github.com/mainstem/mainstem-bridge/internal/orders/app/queries"
	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/metrics"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

// Service bundles the use cases exposed to the marketplace.
type Service struct {
	idemStore          ports.IdempotencyStore
	createOrderHandler commands.CommandHandler
	orderStatusHandler queries.GetOrderStatusHandler
	productsHandler    queries.ListProductsHandler
}

// Dependencies groups the ports the service is built from. Tracker and Idempotency may be nil.
type Dependencies struct {
	Orders      ports.OrderRepository
	Tracker     ports.ShipmentTracker
	Catalog     ports.ProductCatalog
	Events      ports.EventBus
	Idempotency ports.IdempotencyStore
}

// NewService wires required dependencies.
func NewService(deps Dependencies, logger *slog.Logger, metrics *metrics.Metrics) *Service {
	createCore := commands.NewCreateOrderCommandHandler(deps.Orders, deps.Events)
	statusCore := queries.NewGetOrderStatusQueryHandler(deps.Orders, deps.Tracker)
	productsCore := queries.NewListProductsQueryHandler(deps.Catalog)

	return &Service{
		idemStore:          deps.Idempotency,
		createOrderHandler: commands.NewObservableCommandHandler(createCore, logger, metrics),
		orderStatusHandler: queries.NewObservableGetOrderStatusHandler(statusCore, logger, metrics),
		productsHandler:    queries.NewObservableListProductsHandler(productsCore, logger, metrics),
	}
}

// LineItemInput is one requested product and quantity.
type LineItemInput struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// CreateOrderInput captures the payload for creating an order.
type CreateOrderInput struct {
	Address         domain.Address
	LineItems       []LineItemInput
	MainStemOrderID string
}

// CreateOrder places an order and returns its id.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (int64, error) {
	cmd := commands.CreateOrderCommand{
		Address:         input.Address,
		LineItems:       make([]commands.LineItem, 0, len(input.LineItems)),
		MainStemOrderID: input.MainStemOrderID,
	}
	for _, item := range input.LineItems {
		cmd.LineItems = append(cmd.LineItems, commands.LineItem{ProductID: item.ID, Quantity: item.Quantity})
	}
	return s.createOrderHandler.Handle(ctx, cmd)
}

// GetOrderStatus resolves the status and shipments of an order.
func (s *Service) GetOrderStatus(ctx context.Context, orderID int64) (*domain.OrderStatus, error) {
	return s.orderStatusHandler.Handle(ctx, queries.GetOrderStatusQuery{OrderID: orderID})
}

// ListProducts returns the catalog sorted by name.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.productsHandler.Handle(ctx, queries.ListProductsQuery{})
}

// ReserveIdempotencyKey claims key for a create request. A nil result means the caller
// owns the key; otherwise the existing entry is returned. Without a configured store every
// request owns its key.
func (s *Service) ReserveIdempotencyKey(ctx context.Context, key, fingerprint string) (*ports.StoredResponse, error) {
	if s.idemStore == nil {
		return nil, nil
	}
	return s.idemStore.Reserve(ctx, key, fingerprint)
}

// ReleaseIdempotencyKey frees a reserved key after a create request failed.
func (s *Service) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	if s.idemStore == nil {
		return nil
	}
	return s.idemStore.Release(ctx, key)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	if s.idemStore == nil {
		return nil
	}
	return s.idemStore.Save(ctx, key, response)
}
