//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mainstem/mainstem-bridge/internal/database/dbtest"
	"github.com/mainstem/mainstem-bridge/internal/orders/adapters/postgres"
	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

func seedProduct(t *testing.T, pool *pgxpool.Pool, name, price string, images ...string) int64 {
	t.Helper()
	ctx := context.Background()

	var id int64
	err := pool.QueryRow(ctx, `
		INSERT INTO products (name, sku, price, regular_price, sale_price, stock_quantity)
		VALUES ($1, $2, $3::numeric, $4, '', 10)
		RETURNING id
	`, name, "SKU-"+name, price, price).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	for position, url := range images {
		if _, err := pool.Exec(ctx,
			`INSERT INTO product_images (product_id, position, url) VALUES ($1, $2, $3)`,
			id, position, url,
		); err != nil {
			t.Fatalf("failed to seed image: %v", err)
		}
	}
	return id
}

func newOrder(items ...domain.LineItem) domain.NewOrder {
	address := domain.Address{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", City: "London"}
	return domain.NewOrder{
		Billing:    address,
		Shipping:   address,
		LineItems:  items,
		CreatedVia: domain.CreatedViaMainStem,
		Meta:       []domain.MetaEntry{{Key: domain.MetaKeyMainStemOrderID, Value: "MS-1"}},
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	pool := dbtest.NewPool(t)
	repo := postgres.NewRepository(pool)
	ctx := context.Background()

	gloves := seedProduct(t, pool, "Gloves", "4.50")
	masks := seedProduct(t, pool, "Masks", "10.00")

	id, err := repo.Create(ctx, newOrder(
		domain.LineItem{ProductID: gloves, Quantity: 2},
		domain.LineItem{ProductID: masks, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	order, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("failed to retrieve order: %v", err)
	}

	if order.ID != id {
		t.Errorf("expected ID %d, got %d", id, order.ID)
	}
	if order.Total != "19.00" {
		t.Errorf("expected total 19.00, got %s", order.Total)
	}
	if len(order.Meta) != 1 || order.Meta[0].Key != domain.MetaKeyMainStemOrderID || order.Meta[0].Value != "MS-1" {
		t.Errorf("unexpected meta %+v", order.Meta)
	}
}

func TestRepositoryCreateUnknownProduct(t *testing.T) {
	pool := dbtest.NewPool(t)
	repo := postgres.NewRepository(pool)
	ctx := context.Background()

	known := seedProduct(t, pool, "Gloves", "4.50")

	_, err := repo.Create(ctx, newOrder(
		domain.LineItem{ProductID: known, Quantity: 1},
		domain.LineItem{ProductID: 999999, Quantity: 1},
	))
	if !errors.Is(err, ports.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&count); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Errorf("expected rollback, found %d orders", count)
	}
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo := postgres.NewRepository(dbtest.NewPool(t))

	_, err := repo.GetByID(context.Background(), 424242)
	if !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepositoryMetaKeepsInsertionOrder(t *testing.T) {
	pool := dbtest.NewPool(t)
	repo := postgres.NewRepository(pool)
	ctx := context.Background()

	product := seedProduct(t, pool, "Gloves", "1.00")
	order := newOrder(domain.LineItem{ProductID: product, Quantity: 1})
	order.Meta = append(order.Meta,
		domain.MetaEntry{Key: domain.MetaKeyShipmentTracking, Value: "first"},
		domain.MetaEntry{Key: domain.MetaKeyShipmentTracking, Value: "second"},
	)

	id, err := repo.Create(ctx, order)
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	stored, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("failed to retrieve order: %v", err)
	}

	shipment := domain.ShipmentFromMeta(stored.Meta)
	if shipment.TrackingNumber != "second" {
		t.Errorf("expected last value to win, got %q", shipment.TrackingNumber)
	}
}

func TestTrackerTrackingItems(t *testing.T) {
	pool := dbtest.NewPool(t)
	repo := postgres.NewRepository(pool)
	tracker := postgres.NewTracker(pool)
	ctx := context.Background()

	product := seedProduct(t, pool, "Gloves", "1.00")
	id, err := repo.Create(ctx, newOrder(domain.LineItem{ProductID: product, Quantity: 1}))
	if err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	items, err := tracker.TrackingItems(ctx, id, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty tracking list, got %#v", items)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO shipment_tracking_items
			(order_id, tracking_provider, custom_tracking_provider, provider_title, tracking_number, date_shipped)
		VALUES
			($1, 'ups', '', 'UPS', '1Z1', '2024-03-01'),
			($1, '', 'Local Courier', '', 'LC-2', '2024-03-02')
	`, id)
	if err != nil {
		t.Fatalf("failed to seed tracking items: %v", err)
	}

	items, err = tracker.TrackingItems(ctx, id, true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].FormattedTrackingProvider != "UPS" || items[0].TrackingNumber != "1Z1" {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].FormattedTrackingProvider != "Local Courier" || items[1].DateShipped != "2024-03-02" {
		t.Errorf("unexpected second item %+v", items[1])
	}
}

func TestCatalogListProducts(t *testing.T) {
	pool := dbtest.NewPool(t)
	catalog := postgres.NewCatalog(pool)

	seedProduct(t, pool, "Masks", "10.00")
	seedProduct(t, pool, "Aprons", "7.25", "https://cdn.example.com/a0.jpg", "https://cdn.example.com/a1.jpg", "https://cdn.example.com/a2.jpg")

	products, err := catalog.ListProducts(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}

	aprons, masks := products[0], products[1]
	if aprons.Name != "Aprons" || masks.Name != "Masks" {
		t.Fatalf("expected name order, got %s, %s", aprons.Name, masks.Name)
	}
	if aprons.Price != "7.25" {
		t.Errorf("expected price 7.25, got %s", aprons.Price)
	}
	if aprons.MainImage == nil || *aprons.MainImage != "https://cdn.example.com/a0.jpg" {
		t.Errorf("unexpected main image %v", aprons.MainImage)
	}
	if len(aprons.GalleryImages) != 2 || aprons.GalleryImages[0] != "https://cdn.example.com/a1.jpg" {
		t.Errorf("unexpected gallery %v", aprons.GalleryImages)
	}
	if masks.MainImage != nil {
		t.Errorf("expected nil main image, got %v", *masks.MainImage)
	}
	if masks.GalleryImages == nil || len(masks.GalleryImages) != 0 {
		t.Errorf("expected empty gallery, got %#v", masks.GalleryImages)
	}
	if masks.StockQuantity == nil || *masks.StockQuantity != 10 {
		t.Errorf("unexpected stock quantity %v", masks.StockQuantity)
	}
}
