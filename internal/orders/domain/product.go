package domain

// Product is a catalog entry as exposed to the marketplace.
type Product struct {
	ID            int64
	Name          string
	Price         string
	RegularPrice  string
	SalePrice     string
	StockStatus   string
	StockQuantity *int
	Description   string
	SKU           string
	Weight        string
	MainImage     *string
	GalleryImages []string
}
