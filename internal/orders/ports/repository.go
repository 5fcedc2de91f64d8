package ports

import (
	"context"
	"errors"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
)

// OrderRepository exposes the order store operations required by the application layer.
type OrderRepository interface {
	Create(ctx context.Context, order domain.NewOrder) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrProductNotFound is returned when a line item references an unknown product.
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidInput wraps validation failures of incoming requests.
	ErrInvalidInput = errors.New("invalid input")
)
