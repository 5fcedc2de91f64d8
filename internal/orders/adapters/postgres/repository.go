package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create stores the order, its line items priced from the catalog and its metadata
// in one transaction, then computes the total.
func (r *Repository) Create(ctx context.Context, order domain.NewOrder) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ensureProductsExist(ctx, tx, order.LineItems); err != nil {
		return 0, err
	}

	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (created_via, billing, shipping)
		VALUES ($1, $2, $3)
		RETURNING id
	`, order.CreatedVia, order.Billing, order.Shipping).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range order.LineItems {
		batch.Queue(`
			INSERT INTO order_line_items (order_id, product_id, quantity, unit_price)
			SELECT $1, id, $3, price FROM products WHERE id = $2
		`, orderID, item.ProductID, item.Quantity)
	}
	for _, meta := range order.Meta {
		batch.Queue(`
			INSERT INTO order_meta (order_id, meta_key, meta_value)
			VALUES ($1, $2, $3)
		`, orderID, meta.Key, meta.Value)
	}
	batch.Queue(`
		UPDATE orders
		SET total = COALESCE((SELECT SUM(quantity * unit_price) FROM order_line_items WHERE order_id = $1), 0)
		WHERE id = $1
	`, orderID)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("insert order details: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit order: %w", err)
	}

	return orderID, nil
}

func ensureProductsExist(ctx context.Context, tx pgx.Tx, items []domain.LineItem) error {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	rows, err := tx.Query(ctx, `SELECT id FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("select products: %w", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return fmt.Errorf("scan products: %w", err)
	}

	known := make(map[int64]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: %d", ports.ErrProductNotFound, id)
		}
	}
	return nil
}

// GetByID returns the order with its metadata in insertion order.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order := domain.Order{Meta: []domain.MetaEntry{}}
	err := r.pool.QueryRow(ctx, `
		SELECT id, total::text
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.Total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT meta_key, meta_value
		FROM order_meta
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query order meta: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.MetaEntry
		if err := rows.Scan(&entry.Key, &entry.Value); err != nil {
			return nil, fmt.Errorf("scan order meta: %w", err)
		}
		order.Meta = append(order.Meta, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order meta: %w", err)
	}

	return &order, nil
}
