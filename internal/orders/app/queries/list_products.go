package queries

import (
	"context"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

// ListProductsQuery asks for the full catalog.
type ListProductsQuery struct{}

// ListProductsHandler is implemented by the catalog query and its decorators.
type ListProductsHandler interface {
	Handle(ctx context.Context, query ListProductsQuery) ([]domain.Product, error)
}

// ListProductsQueryHandler reads products from the catalog.
type ListProductsQueryHandler struct {
	catalog ports.ProductCatalog
}

// NewListProductsQueryHandler constructs a ListProductsQueryHandler.
func NewListProductsQueryHandler(catalog ports.ProductCatalog) *ListProductsQueryHandler {
	return &ListProductsQueryHandler{catalog: catalog}
}

// Handle returns every product sorted by name. Gallery images are never nil.
func (h *ListProductsQueryHandler) Handle(ctx context.Context, _ ListProductsQuery) ([]domain.Product, error) {
	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	for i := range products {
		if products[i].GalleryImages == nil {
			products[i].GalleryImages = []string{}
		}
	}
	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}
