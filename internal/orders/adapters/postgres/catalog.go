package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
)

type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT p.id, p.name, p.price::text, p.regular_price, p.sale_price, p.stock_status,
		       p.stock_quantity, p.description, p.sku, p.weight,
		       max(i.url) FILTER (WHERE i.position = 0),
		       COALESCE(array_agg(i.url ORDER BY i.position) FILTER (WHERE i.position > 0), '{}')
		FROM products p
		LEFT JOIN product_images i ON i.product_id = p.id
		GROUP BY p.id
		ORDER BY p.name, p.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Price,
			&product.RegularPrice,
			&product.SalePrice,
			&product.StockStatus,
			&product.StockQuantity,
			&product.Description,
			&product.SKU,
			&product.Weight,
			&product.MainImage,
			&product.GalleryImages,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if product.GalleryImages == nil {
			product.GalleryImages = []string{}
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}
