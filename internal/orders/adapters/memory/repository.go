package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

type storedOrder struct {
	order    domain.NewOrder
	totalCts int64
	meta     []domain.MetaEntry
}

// Store keeps orders, products and tracking items in memory. It implements
// OrderRepository, ShipmentTracker and ProductCatalog for local development and tests.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	orders   map[int64]*storedOrder
	products map[int64]domain.Product
	tracking map[int64][]ports.TrackingItem
}

func NewStore() *Store {
	return &Store{
		nextID:   1,
		orders:   make(map[int64]*storedOrder),
		products: make(map[int64]domain.Product),
		tracking: make(map[int64][]ports.TrackingItem),
	}
}

// AddProduct registers a catalog product. Its Price must be a decimal string.
func (s *Store) AddProduct(product domain.Product) error {
	if _, err := parseCents(product.Price); err != nil {
		return fmt.Errorf("product %d: %w", product.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
	return nil
}

// AddMeta appends a metadata entry to an existing order.
func (s *Store) AddMeta(orderID int64, entry domain.MetaEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[orderID]
	if !ok {
		return ports.ErrNotFound
	}
	stored.meta = append(stored.meta, entry)
	return nil
}

// AddTrackingItem records a tracking item for an order.
func (s *Store) AddTrackingItem(orderID int64, item ports.TrackingItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking[orderID] = append(s.tracking[orderID], item)
}

func (s *Store) Create(_ context.Context, order domain.NewOrder) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, item := range order.LineItems {
		product, ok := s.products[item.ProductID]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ports.ErrProductNotFound, item.ProductID)
		}
		cents, _ := parseCents(product.Price)
		total += cents * int64(item.Quantity)
	}

	id := s.nextID
	s.nextID++
	s.orders[id] = &storedOrder{
		order:    order,
		totalCts: total,
		meta:     append([]domain.MetaEntry(nil), order.Meta...),
	}
	return id, nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &domain.Order{
		ID:    id,
		Total: formatCents(stored.totalCts),
		Meta:  append([]domain.MetaEntry{}, stored.meta...),
	}, nil
}

// TrackingItems returns tracking items in insertion order. Unformatted lookups leave
// FormattedTrackingProvider empty.
func (s *Store) TrackingItems(_ context.Context, orderID int64, formatted bool) ([]ports.TrackingItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.TrackingItem, 0, len(s.tracking[orderID]))
	for _, item := range s.tracking[orderID] {
		if !formatted {
			item.FormattedTrackingProvider = ""
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		product.GalleryImages = append([]string{}, product.GalleryImages...)
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool {
		if products[i].Name == products[j].Name {
			return products[i].ID < products[j].ID
		}
		return products[i].Name < products[j].Name
	})
	return products, nil
}

// parseCents converts a non-negative decimal with at most two fractional digits.
func parseCents(value string) (int64, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(value), ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("price %q has more than two decimals", value)
	}
	frac = (frac + "00")[:2]

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, fmt.Errorf("invalid price %q", value)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", value)
	}
	return units*100 + cents, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
