package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

// Create posts the order to the shop, which computes totals itself.
func (c *Client) Create(ctx context.Context, order domain.NewOrder) (int64, error) {
	body := wooCreateOrder{
		Billing:    toWooAddress(order.Billing),
		Shipping:   toWooAddress(order.Shipping),
		LineItems:  make([]wooLineItem, 0, len(order.LineItems)),
		CreatedVia: order.CreatedVia,
		MetaData:   make([]wooNewMeta, 0, len(order.Meta)),
	}
	// WooCommerce rejects an email on the shipping address.
	body.Shipping.Email = ""
	for _, item := range order.LineItems {
		body.LineItems = append(body.LineItems, wooLineItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	for _, meta := range order.Meta {
		body.MetaData = append(body.MetaData, wooNewMeta{Key: meta.Key, Value: meta.Value})
	}

	var created wooOrder
	if _, err := c.do(ctx, "create_order", http.MethodPost, c.restURL("/orders"), body, &created); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			switch apiErr.Code {
			case "woocommerce_rest_invalid_product_id":
				return 0, fmt.Errorf("%w: %s", ports.ErrProductNotFound, apiErr.Message)
			case "rest_invalid_param", "woocommerce_rest_invalid_order":
				return 0, fmt.Errorf("%w: %s", ports.ErrInvalidInput, apiErr.Message)
			}
		}
		return 0, fmt.Errorf("create order: %w", err)
	}

	return created.ID, nil
}

func (c *Client) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	var order wooOrder
	if _, err := c.do(ctx, "get_order", http.MethodGet, c.restURL(orderPath(id)), nil, &order); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}

	result := &domain.Order{
		ID:    order.ID,
		Total: order.Total,
		Meta:  make([]domain.MetaEntry, 0, len(order.MetaData)),
	}
	for _, meta := range order.MetaData {
		result.Meta = append(result.Meta, domain.MetaEntry{Key: meta.Key, Value: meta.text()})
	}
	return result, nil
}

func toWooAddress(a domain.Address) wooAddress {
	return wooAddress{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Company:   a.Company,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Country:   a.Country,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}
