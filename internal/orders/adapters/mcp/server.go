// Package mcp exposes the bridge operations as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mainstem/mainstem-bridge/internal/orders/app"
	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

type Handler struct {
	service *app.Service
	logger  *slog.Logger
	version string
}

func NewHandler(service *app.Service, logger *slog.Logger, version string) *Handler {
	return &Handler{service: service, logger: logger, version: version}
}

type GetOrderStatusInput struct {
	OrderID int64 `json:"order_id" jsonschema:"store order id"`
}

type ListProductsInput struct{}

type LineItemInput struct {
	ID       int64 `json:"id" jsonschema:"product id"`
	Quantity int   `json:"quantity" jsonschema:"units to order"`
}

type CreateOrderInput struct {
	FirstName       string          `json:"first_name,omitempty"`
	LastName        string          `json:"last_name,omitempty"`
	Company         string          `json:"company,omitempty"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	Address1        string          `json:"address_1,omitempty"`
	Address2        string          `json:"address_2,omitempty"`
	City            string          `json:"city,omitempty"`
	State           string          `json:"state,omitempty"`
	Postcode        string          `json:"postcode,omitempty"`
	Country         string          `json:"country,omitempty"`
	LineItems       []LineItemInput `json:"line_items" jsonschema:"products and quantities, at least one"`
	MainStemOrderID string          `json:"mainstem_order_id,omitempty" jsonschema:"marketplace order reference"`
}

type CreateOrderOutput struct {
	WasSuccessful bool  `json:"wasSuccessful"`
	ID            int64 `json:"id"`
}

type Product struct {
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

type ListProductsOutput struct {
	WasSuccessful bool      `json:"wasSuccessful"`
	Products      []Product `json:"products"`
}

// NewServer creates an MCP server offering the same operations as the REST routes.
func (h *Handler) NewServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "mainstem-bridge", Version: h.version},
		&mcp.ServerOptions{
			Instructions: "MainStem bridge: place orders, check their shipping status and browse the product catalog.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_order_status",
		Description: "Get an order's total and shipments. Shipments come from the tracking integration or, failing that, the order metadata.",
	}, h.getOrderStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List all catalog products sorted by name.",
	}, h.listProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_order",
		Description: "Place an order. The address is used for both billing and shipping.",
	}, h.createOrder)

	return server
}

// NewHTTPHandler serves the MCP streamable HTTP transport.
func (h *Handler) NewHTTPHandler() http.Handler {
	server := h.NewServer()
	return mcp.NewStreamableHTTPHandler(
		func(*http.Request) *mcp.Server { return server },
		nil,
	)
}

func (h *Handler) getOrderStatus(ctx context.Context, _ *mcp.CallToolRequest, input GetOrderStatusInput) (*mcp.CallToolResult, *domain.OrderStatus, error) {
	status, err := h.service.GetOrderStatus(ctx, input.OrderID)
	if err != nil {
		return nil, nil, h.toolError(ctx, err)
	}
	return nil, status, nil
}

func (h *Handler) listProducts(ctx context.Context, _ *mcp.CallToolRequest, _ ListProductsInput) (*mcp.CallToolResult, *ListProductsOutput, error) {
	products, err := h.service.ListProducts(ctx)
	if err != nil {
		return nil, nil, h.toolError(ctx, err)
	}

	out := &ListProductsOutput{WasSuccessful: true, Products: make([]Product, 0, len(products))}
	for _, p := range products {
		images := p.GalleryImages
		if images == nil {
			images = []string{}
		}
		out.Products = append(out.Products, Product{
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
	return nil, out, nil
}

func (h *Handler) createOrder(ctx context.Context, _ *mcp.CallToolRequest, input CreateOrderInput) (*mcp.CallToolResult, *CreateOrderOutput, error) {
	req := app.CreateOrderInput{
		Address: domain.Address{
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Company:   input.Company,
			Email:     input.Email,
			Phone:     input.Phone,
			Address1:  input.Address1,
			Address2:  input.Address2,
			City:      input.City,
			State:     input.State,
			Postcode:  input.Postcode,
			Country:   input.Country,
		},
		LineItems:       make([]app.LineItemInput, 0, len(input.LineItems)),
		MainStemOrderID: input.MainStemOrderID,
	}
	for _, item := range input.LineItems {
		req.LineItems = append(req.LineItems, app.LineItemInput{ID: item.ID, Quantity: item.Quantity})
	}

	orderID, err := h.service.CreateOrder(ctx, req)
	if err != nil {
		if orderID == 0 {
			return nil, nil, h.toolError(ctx, err)
		}
		h.logger.WarnContext(ctx, "order created with errors", "order_id", orderID, "error", err)
	}
	return nil, &CreateOrderOutput{WasSuccessful: true, ID: orderID}, nil
}

// toolError keeps caller-facing failures readable and hides internal ones.
func (h *Handler) toolError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return fmt.Errorf("mainstem_order_not_found: %w", err)
	case errors.Is(err, ports.ErrProductNotFound):
		return fmt.Errorf("mainstem_product_not_found: %w", err)
	case errors.Is(err, ports.ErrInvalidInput):
		return fmt.Errorf("mainstem_invalid_request: %w", err)
	}
	h.logger.ErrorContext(ctx, "mcp tool failed", "error", err)
	return errors.New("mainstem_internal_error: internal error")
}
