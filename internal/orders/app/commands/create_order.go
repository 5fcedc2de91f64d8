package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mainstem/mainstem-bridge/internal/orders/domain"
	"github.com/mainstem/mainstem-bridge/internal/orders/ports"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type LineItem struct {
	ProductID int64 `validate:"gt=0"`
	Quantity  int   `validate:"gt=0"`
}

type CreateOrderCommand struct {
	Address         domain.Address
	LineItems       []LineItem `validate:"required,min=1,dive"`
	MainStemOrderID string
}

func (c CreateOrderCommand) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %s", ports.ErrInvalidInput, describe(verrs))
		}
		return fmt.Errorf("%w: %v", ports.ErrInvalidInput, err)
	}
	if err := validate.Var(strings.TrimSpace(c.Address.Email), "omitempty,email"); err != nil {
		return fmt.Errorf("%w: email must be valid", ports.ErrInvalidInput)
	}
	return nil
}

func describe(verrs validator.ValidationErrors) string {
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fmt.Sprintf("%s failed %s", fieldName(fe.Namespace()), fe.Tag()))
	}
	return strings.Join(messages, "; ")
}

// fieldName maps struct namespaces to request field names.
func fieldName(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "CreateOrderCommand.")
	replacer := strings.NewReplacer(
		"LineItems", "line_items",
		"ProductID", "id",
		"Quantity", "quantity",
	)
	return replacer.Replace(namespace)
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (int64, error)
}

type CreateOrderCommandHandler struct {
	repo   ports.OrderRepository
	events ports.EventBus
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	events ports.EventBus,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:   repo,
		events: events,
	}
}

// Handle places the order using the same address for billing and shipping.
// A failed event publish still returns the new order id.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (int64, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	order := domain.NewOrder{
		Billing:    cmd.Address,
		Shipping:   cmd.Address,
		LineItems:  make([]domain.LineItem, 0, len(cmd.LineItems)),
		CreatedVia: domain.CreatedViaMainStem,
		Meta: []domain.MetaEntry{
			{Key: domain.MetaKeyMainStemOrderID, Value: cmd.MainStemOrderID},
		},
	}
	for _, item := range cmd.LineItems {
		order.LineItems = append(order.LineItems, domain.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	if err := order.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ports.ErrInvalidInput, err)
	}

	orderID, err := h.repo.Create(ctx, order)
	if err != nil {
		return 0, err
	}

	if err := h.events.PublishOrderCreated(ctx, orderID); err != nil {
		return orderID, fmt.Errorf("order saved but failed to publish event: %w", err)
	}

	return orderID, nil
}
