package application

import (
	"context"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var _ domain.OrderService = (*OrderService)(nil)

const orderEventSource = "OrderService"

// OrderService owns order records and publishes their lifecycle events
type OrderService struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
	logger          *zap.Logger
	now             func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepository domain.OrderRepository,
	eventPublisher events.Publisher,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
		logger:          logger,
		now:             time.Now,
	}
}

// Create stores a new PENDING order
func (s *OrderService) Create(ctx context.Context, customerID, productID string, quantity int, amount models.Money) (*domain.Order, error) {
	order, err := domain.NewOrder(customerID, productID, quantity, amount, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	s.publish(ctx, order, domain.OrderCreatedEvent)
	s.logger.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("customer_id", order.CustomerID),
	)

	return order, nil
}

// FindByID finds an order by ID
func (s *OrderService) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	order, err := s.orderRepository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	return order, nil
}

// FindByCustomer lists the customer's orders
func (s *OrderService) FindByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	orders, err := s.orderRepository.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find orders by customer")
	}
	return orders, nil
}

// FindByStatus lists the orders in status
func (s *OrderService) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	orders, err := s.orderRepository.FindByStatus(ctx, status)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find orders by status")
	}
	return orders, nil
}

// Confirm marks the order confirmed
func (s *OrderService) Confirm(ctx context.Context, id models.ID) (*domain.Order, error) {
	return s.transition(ctx, id, (*domain.Order).Confirm, domain.OrderConfirmedEvent)
}

// Cancel cancels the order. Cancelling a cancelled order is a no-op.
func (s *OrderService) Cancel(ctx context.Context, id models.ID) (*domain.Order, error) {
	return s.transition(ctx, id, (*domain.Order).Cancel, domain.OrderCancelledEvent)
}

// MarkShipped marks the order shipped. Shipping a shipped order is a no-op.
func (s *OrderService) MarkShipped(ctx context.Context, id models.ID) (*domain.Order, error) {
	return s.transition(ctx, id, (*domain.Order).Ship, domain.OrderShippedEvent)
}

func (s *OrderService) transition(
	ctx context.Context,
	id models.ID,
	apply func(*domain.Order, time.Time) (bool, error),
	eventType string,
) (*domain.Order, error) {
	order, err := s.orderRepository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}

	changed, err := apply(order, s.now())
	if err != nil {
		return nil, err
	}

	if !changed {
		s.logger.Debug("order already in target status",
			zap.String("order_id", id.String()),
			zap.String("status", order.Status.String()),
		)
		return order, nil
	}

	if err := s.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	s.publish(ctx, order, eventType)
	s.logger.Info("order status changed",
		zap.String("order_id", id.String()),
		zap.String("status", order.Status.String()),
	)

	return order, nil
}

// publish emits the order event. The order is already saved, so a publish
// failure is only logged.
func (s *OrderService) publish(ctx context.Context, order *domain.Order, eventType string) {
	payload := &domain.OrderEvent{
		EventID:     models.GenerateUUID(),
		EventType:   eventType,
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		ProductID:   order.ProductID,
		Quantity:    order.Quantity,
		Amount:      order.Amount,
		OrderStatus: order.Status,
		EventTime:   s.now(),
		Source:      orderEventSource,
	}

	event := events.NewEvent(order.ID, events.OrderEventsTopic, payload).
		WithMetadata(events.OrderIDKey, order.ID.String()).
		WithMetadata("event_type", eventType)

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish order event",
			zap.String("order_id", order.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
