package application

import (
	"context"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

// CancelOrder cancels an order on request. Orders with a running saga are
// left to the saga.
type CancelOrder struct {
	orderService   domain.OrderService
	sagaRepository domain.SagaRepository
}

// NewCancelOrder creates a new CancelOrder use case
func NewCancelOrder(orderService domain.OrderService, sagaRepository domain.SagaRepository) *CancelOrder {
	return &CancelOrder{
		orderService:   orderService,
		sagaRepository: sagaRepository,
	}
}

// Execute executes the cancel order use case
func (uc *CancelOrder) Execute(ctx context.Context, orderID string) (*OrderResponse, error) {
	id, err := models.NewID(orderID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid order ID")
	}

	sagas, err := uc.sagaRepository.FindByOrderID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find sagas")
	}

	for _, saga := range sagas {
		if !saga.Status.IsTerminal() {
			return nil, errors.Wrapf(domain.ErrActiveSagaExists, "saga %s is %s", saga.ID, saga.Status)
		}
	}

	order, err := uc.orderService.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}

	return newOrderResponse(order), nil
}
