package woocommerce

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type wooMeta struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// text renders a meta value the way WordPress would print it.
func (m wooMeta) text() string {
	raw := bytes.TrimSpace(m.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	switch string(raw) {
	case "true":
		return "1"
	case "false":
		return ""
	}
	return string(raw)
}

type wooOrder struct {
	ID       int64     `json:"id"`
	Total    string    `json:"total"`
	MetaData []wooMeta `json:"meta_data"`
}

type wooAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone"`
}

type wooLineItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type wooNewMeta struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type wooCreateOrder struct {
	Billing    wooAddress    `json:"billing"`
	Shipping   wooAddress    `json:"shipping"`
	LineItems  []wooLineItem `json:"line_items"`
	CreatedVia string        `json:"created_via"`
	MetaData   []wooNewMeta  `json:"meta_data"`
	SetPaid    bool          `json:"set_paid"`
}

type wooTrackingItem struct {
	TrackingID             string `json:"tracking_id"`
	TrackingProvider       string `json:"tracking_provider"`
	CustomTrackingProvider string `json:"custom_tracking_provider"`
	TrackingNumber         string `json:"tracking_number"`
	DateShipped            string `json:"date_shipped"`
}

// shippedDate normalizes unix timestamps to YYYY-MM-DD and passes other values through.
func shippedDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC().Format(time.DateOnly)
	}
	return value
}

type wooImage struct {
	Src string `json:"src"`
}

type wooProduct struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Price         string     `json:"price"`
	RegularPrice  string     `json:"regular_price"`
	SalePrice     string     `json:"sale_price"`
	StockStatus   string     `json:"stock_status"`
	StockQuantity *int       `json:"stock_quantity"`
	Description   string     `json:"description"`
	SKU           string     `json:"sku"`
	Weight        string     `json:"weight"`
	Images        []wooImage `json:"images"`
}

type wooError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
