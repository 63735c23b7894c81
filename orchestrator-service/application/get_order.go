package application

import (
	"context"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

// OrderReader reads orders
type OrderReader interface {
	FindByID(ctx context.Context, id models.ID) (*domain.Order, error)
	FindByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error)
	FindByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)
}

// OrderResponse represents an order
type OrderResponse struct {
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId"`
	ProductID  string    `json:"productId"`
	Quantity   int       `json:"quantity"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newOrderResponse(order *domain.Order) *OrderResponse {
	return &OrderResponse{
		OrderID:    order.ID.String(),
		CustomerID: order.CustomerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		Amount:     order.Amount.Amount,
		Currency:   order.Amount.Currency,
		Status:     order.Status.String(),
		CreatedAt:  order.Timestamps.CreatedAt,
		UpdatedAt:  order.Timestamps.UpdatedAt,
	}
}

func newOrderResponses(orders []*domain.Order) []*OrderResponse {
	responses := make([]*OrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = newOrderResponse(order)
	}
	return responses
}

// GetOrder use case
type GetOrder struct {
	orderReader OrderReader
}

// NewGetOrder creates a new GetOrder use case
func NewGetOrder(orderReader OrderReader) *GetOrder {
	return &GetOrder{orderReader: orderReader}
}

// Execute executes the get order use case
func (uc *GetOrder) Execute(ctx context.Context, orderID string) (*OrderResponse, error) {
	id, err := models.NewID(orderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	order, err := uc.orderReader.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return newOrderResponse(order), nil
}

// ListOrders use case
type ListOrders struct {
	orderReader OrderReader
}

// NewListOrders creates a new ListOrders use case
func NewListOrders(orderReader OrderReader) *ListOrders {
	return &ListOrders{orderReader: orderReader}
}

// ByCustomer lists the customer's orders
func (uc *ListOrders) ByCustomer(ctx context.Context, customerID string) ([]*OrderResponse, error) {
	if customerID == "" {
		return nil, errors.New("customer ID is required")
	}

	orders, err := uc.orderReader.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return newOrderResponses(orders), nil
}

// ByStatus lists the orders in status
func (uc *ListOrders) ByStatus(ctx context.Context, status string) ([]*OrderResponse, error) {
	orderStatus, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}

	orders, err := uc.orderReader.FindByStatus(ctx, orderStatus)
	if err != nil {
		return nil, err
	}

	return newOrderResponses(orders), nil
}
