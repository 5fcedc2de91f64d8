package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

// CreatedViaSeed marks orders loaded from a seed file.
const CreatedViaSeed = "seed"

// Seed is the document read by LoadSeed. Orders are created in file order, so the
// first seeded order gets id 1.
type Seed struct {
	Products []SeedProduct `json:"products"`
	Orders   []SeedOrder   `json:"orders"`
}

type SeedProduct struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Price         string   `json:"price"`
	RegularPrice  string   `json:"regular_price"`
	SalePrice     string   `json:"sale_price"`
	StockStatus   string   `json:"stock_status"`
	StockQuantity *int     `json:"stock_quantity"`
	Description   string   `json:"description"`
	SKU           string   `json:"sku"`
	Weight        string   `json:"weight"`
	MainImage     *string  `json:"main_image"`
	GalleryImages []string `json:"gallery_images"`
}

type SeedOrder struct {
	LineItems     []domain.LineItem  `json:"line_items"`
	Meta          []domain.MetaEntry `json:"meta_data"`
	TrackingItems []SeedTrackingItem `json:"tracking_items"`
}

type SeedTrackingItem struct {
	TrackingProvider          string `json:"tracking_provider"`
	FormattedTrackingProvider string `json:"formatted_tracking_provider"`
	TrackingNumber            string `json:"tracking_number"`
	DateShipped               string `json:"date_shipped"`
}

// LoadSeedFile reads a JSON seed document from path into the store.
func (s *Store) LoadSeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	if err := s.LoadSeed(f); err != nil {
		return fmt.Errorf("seed %s: %w", path, err)
	}
	return nil
}

// LoadSeed adds the products first, then creates each order with its metadata and tracking items.
func (s *Store) LoadSeed(r io.Reader) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	var seed Seed
	if err := decoder.Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	for _, p := range seed.Products {
		if p.ID <= 0 {
			return fmt.Errorf("product %q: id must be positive", p.Name)
		}
		if err := s.AddProduct(domain.Product{
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
			MainImage:     p.MainImage,
			GalleryImages: p.GalleryImages,
		}); err != nil {
			return err
		}
	}

	for i, o := range seed.Orders {
		order := domain.NewOrder{
			LineItems:  o.LineItems,
			CreatedVia: CreatedViaSeed,
			Meta:       o.Meta,
		}
		if err := order.Validate(); err != nil {
			return fmt.Errorf("order %d: %w", i+1, err)
		}
		id, err := s.Create(context.Background(), order)
		if err != nil {
			return fmt.Errorf("order %d: %w", i+1, err)
		}
		for _, item := range o.TrackingItems {
			s.AddTrackingItem(id, ports.TrackingItem{
				TrackingProvider:          item.TrackingProvider,
				FormattedTrackingProvider: item.FormattedTrackingProvider,
				TrackingNumber:            item.TrackingNumber,
				DateShipped:               item.DateShipped,
			})
		}
	}

	return nil
}
