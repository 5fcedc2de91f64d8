package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mainstem/mainstem-bridge/internal/orders/app"
	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
)

type createOrderRequest struct {
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	Company         string         `json:"company"`
	Email           string         `json:"email"`
	Phone           string         `json:"phone"`
	Address1        string         `json:"address_1"`
	Address2        string         `json:"address_2"`
	City            string         `json:"city"`
	State           string         `json:"state"`
	Postcode        string         `json:"postcode"`
	Country         string         `json:"country"`
	LineItems       []lineItem     `json:"line_items"`
	MainStemOrderID flexibleString `json:"mainstem_order_id"`
}

func (r createOrderRequest) input() app.CreateOrderInput {
	input := app.CreateOrderInput{
		Address: domain.Address{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Company:   r.Company,
			Email:     r.Email,
			Phone:     r.Phone,
			Address1:  r.Address1,
			Address2:  r.Address2,
			City:      r.City,
			State:     r.State,
			Postcode:  r.Postcode,
			Country:   r.Country,
		},
		LineItems:       make([]app.LineItemInput, 0, len(r.LineItems)),
		MainStemOrderID: string(r.MainStemOrderID),
	}
	for _, item := range r.LineItems {
		input.LineItems = append(input.LineItems, app.LineItemInput{ID: int64(item.ID), Quantity: int(item.Quantity)})
	}
	return input
}

// lineItem accepts either an object or a JSON-encoded string holding one.
type lineItem struct {
	ID       flexibleInt `json:"id"`
	Quantity flexibleInt `json:"quantity"`
}

func (l *lineItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		data = []byte(encoded)
	}

	type plain lineItem
	var item plain
	if err := json.Unmarshal(data, &item); err != nil {
		return fmt.Errorf("line item: %w", err)
	}
	*l = lineItem(item)
	return nil
}

// flexibleInt accepts 3 and "3".
type flexibleInt int64

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", data)
	}
	*f = flexibleInt(n)
	return nil
}

// flexibleString accepts "MS-1" and 1.
type flexibleString string

func (f *flexibleString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or number, got %s", data)
	}
	*f = flexibleString(n.String())
	return nil
}

type createOrderResponse struct {
	WasSuccessful bool  `json:"wasSuccessful"`
	ID            int64 `json:"id"`
}

type productResponse struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Price          string   `json:"price"`
	PriceRetail    string   `json:"priceRetail"`
	PriceWholesale string   `json:"priceWholesale"`
	StockStatus    string   `json:"stock_status"`
	StockQuantity  *int     `json:"stock_quantity"`
	Description    string   `json:"description"`
	SKU            string   `json:"sku"`
	Weight         string   `json:"weight"`
	MainImage      *string  `json:"mainImage"`
	Images         []string `json:"images"`
}

type productsResponse struct {
	WasSuccessful bool              `json:"wasSuccessful"`
	Products      []productResponse `json:"products"`
}

func newProductsResponse(products []domain.Product) productsResponse {
	resp := productsResponse{WasSuccessful: true, Products: make([]productResponse, 0, len(products))}
	for _, p := range products {
		images := p.GalleryImages
		if images == nil {
			images = []string{}
		}
		resp.Products = append(resp.Products, productResponse{
			ID:             p.ID,
			Name:           p.Name,
			Price:          p.Price,
			PriceRetail:    p.RegularPrice,
			PriceWholesale: p.SalePrice,
			StockStatus:    p.StockStatus,
			StockQuantity:  p.StockQuantity,
			Description:    p.Description,
			SKU:            p.SKU,
			Weight:         p.Weight,
			MainImage:      p.MainImage,
			Images:         images,
		})
	}
	return resp
}

// restError is the WordPress REST error shape.
type restError struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Data    restErrorData `json:"data"`
}

type restErrorData struct {
	Status int `json:"status"`
}
