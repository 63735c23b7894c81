package application

import (
	"context"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

// OrderCreator stores new orders
type OrderCreator interface {
	Create(ctx context.Context, customerID, productID string, quantity int, amount models.Money) (*domain.Order, error)
	FindByID(ctx context.Context, id models.ID) (*domain.Order, error)
}

// SagaStarter starts the saga for a stored order
type SagaStarter interface {
	StartSaga(ctx context.Context, order *domain.Order) (models.ID, error)
}

// CreateOrderCommand represents the command to create an order
type CreateOrderCommand struct {
	CustomerID string `json:"customerId" validate:"required"`
	ProductID  string `json:"productId" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	Amount     int64  `json:"amount" validate:"required,gt=0"`
	Currency   string `json:"currency" validate:"required,len=3"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID string `json:"orderId"`
	SagaID  string `json:"sagaId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateOrder stores the order and starts its saga
type CreateOrder struct {
	orderCreator OrderCreator
	sagaStarter  SagaStarter
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(orderCreator OrderCreator, sagaStarter SagaStarter) *CreateOrder {
	return &CreateOrder{
		orderCreator: orderCreator,
		sagaStarter:  sagaStarter,
	}
}

// Execute executes the create order use case
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*CreateOrderResponse, error) {
	order, err := uc.orderCreator.Create(ctx, cmd.CustomerID, cmd.ProductID, cmd.Quantity, models.NewMoney(cmd.Amount, cmd.Currency))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}

	sagaID, err := uc.sagaStarter.StartSaga(ctx, order)
	if err != nil {
		return nil, errors.Wrap(err, "failed to start saga")
	}

	// A saga that fails during setup cancels the order before StartSaga
	// returns. If the reload fails the order is reported as created.
	if current, err := uc.orderCreator.FindByID(ctx, order.ID); err == nil {
		order = current
	}

	message := "Order created and saga started"
	if order.Status == domain.OrderStatusCancelled {
		message = "Order created but saga setup failed"
	}

	return &CreateOrderResponse{
		OrderID: order.ID.String(),
		SagaID:  sagaID.String(),
		Status:  order.Status.String(),
		Message: message,
	}, nil
}
