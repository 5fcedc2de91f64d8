package woocommerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
)

const productsPerPage = 100

// ListProducts pages through the catalog ordered by title.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products := []domain.Product{}

	for page := 1; ; page++ {
		query := url.Values{
			"orderby":  {"title"},
			"order":    {"asc"},
			"per_page": {strconv.Itoa(productsPerPage)},
			"page":     {strconv.Itoa(page)},
		}

		var batch []wooProduct
		header, err := c.do(ctx, "list_products", http.MethodGet, c.restURL("/products")+"?"+query.Encode(), nil, &batch)
		if err != nil {
			return nil, fmt.Errorf("list products page %d: %w", page, err)
		}

		for _, p := range batch {
			products = append(products, toProduct(p))
		}

		totalPages, _ := strconv.Atoi(header.Get("X-WP-TotalPages"))
		if len(batch) < productsPerPage || page >= totalPages {
			break
		}
	}

	return products, nil
}

func toProduct(p wooProduct) domain.Product {
	product := domain.Product{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		RegularPrice:  p.RegularPrice,
		SalePrice:     p.SalePrice,
		StockStatus:   p.StockStatus,
		StockQuantity: p.StockQuantity,
		Description:   p.Description,
		SKU:           p.SKU,
		Weight:        p.Weight,
		GalleryImages: []string{},
	}
	for i, image := range p.Images {
		if i == 0 {
			src := image.Src
			product.MainImage = &src
			continue
		}
		product.GalleryImages = append(product.GalleryImages, image.Src)
	}
	return product
}
