package ports

import (
	"context"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
)

// ProductCatalog lists products sorted by name ascending.
type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}
