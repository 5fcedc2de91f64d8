package domain

import (
	"errors"
	"strings"
)

// CreatedViaMainStem marks orders placed through the bridge.
const CreatedViaMainStem = "MainStem"

// MetaKeyMainStemOrderID stores the marketplace's own order reference.
const MetaKeyMainStemOrderID = "mainstem_order_id"

// MetaEntry is a single free-form key/value pair attached to an order.
// Keys are not unique; order of entries is preserved.
type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Address is used for both billing and shipping.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
}

// LineItem requests a quantity of a single product.
type LineItem struct {
	ProductID int64 `json:"id"`
	Quantity  int   `json:"quantity"`
}

// Order is the read model of a stored order.
type Order struct {
	ID    int64       `json:"id"`
	Total string      `json:"total"`
	Meta  []MetaEntry `json:"meta_data"`
}

// NewOrder carries everything needed to place an order. Totals are left to the store.
type NewOrder struct {
	Billing    Address
	Shipping   Address
	LineItems  []LineItem
	CreatedVia string
	Meta       []MetaEntry
}

// Validate ensures the order can be handed to a store.
func (o NewOrder) Validate() error {
	if len(o.LineItems) == 0 {
		return errors.New("line_items must not be empty")
	}
	for _, item := range o.LineItems {
		if item.ProductID <= 0 {
			return errors.New("line item id must be positive")
		}
		if item.Quantity <= 0 {
			return errors.New("line item quantity must be positive")
		}
	}
	if strings.TrimSpace(o.CreatedVia) == "" {
		return errors.New("created_via is required")
	}
	return nil
}
