package application

import (
	"context"
	"testing"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/orchestrator-service/mocks"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var baseOrderTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func orderEventOfType(eventType string) func(*events.Event) bool {
	return func(event *events.Event) bool {
		payload, ok := event.Data.(*domain.OrderEvent)
		return ok && event.Topic == events.OrderEventsTopic && payload.EventType == eventType
	}
}

func TestOrderService_Create(t *testing.T) {
	tests := []struct {
		name          string
		quantity      int
		amount        models.Money
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockPublisher)
		expectedError string
	}{
		{
			name:     "successful creation",
			quantity: 2,
			amount:   models.NewMoney(5000, "USD"),
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(orderEventOfType(domain.OrderCreatedEvent))).Return(nil).Once()
			},
		},
		{
			name:     "publish failure is not fatal",
			quantity: 2,
			amount:   models.NewMoney(5000, "USD"),
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.AnythingOfType("*events.Event")).Return(errors.New("sns unavailable")).Once()
			},
		},
		{
			name:          "invalid quantity",
			quantity:      0,
			amount:        models.NewMoney(5000, "USD"),
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockPublisher) {},
			expectedError: "quantity must be positive",
		},
		{
			name:          "invalid amount",
			quantity:      1,
			amount:        models.NewMoney(0, "USD"),
			setupMocks:    func(*mocks.MockOrderRepository, *mocks.MockPublisher) {},
			expectedError: "amount must be positive",
		},
		{
			name:     "repository error",
			quantity: 1,
			amount:   models.NewMoney(5000, "USD"),
			setupMocks: func(repo *mocks.MockOrderRepository, _ *mocks.MockPublisher) {
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).Return(errors.New("database error")).Once()
			},
			expectedError: "failed to save order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockOrderRepository(t)
			publisher := mocks.NewMockPublisher(t)
			tt.setupMocks(repo, publisher)

			service := NewOrderService(repo, publisher, zap.NewNop())
			order, err := service.Create(context.Background(), "customer-1", "product-1", tt.quantity, tt.amount)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, order)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, domain.OrderStatusPending, order.Status)
			assert.Equal(t, tt.amount, order.Amount)
		})
	}
}

func TestOrderService_Transitions(t *testing.T) {
	tests := []struct {
		name           string
		initialStatus  domain.OrderStatus
		transition     func(*OrderService, context.Context, models.ID) (*domain.Order, error)
		setupMocks     func(*domain.Order, *mocks.MockOrderRepository, *mocks.MockPublisher)
		expectedStatus domain.OrderStatus
		expectedError  error
	}{
		{
			name:          "cancel pending order",
			initialStatus: domain.OrderStatusPending,
			transition:    (*OrderService).Cancel,
			setupMocks: func(order *domain.Order, repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(order, nil).Once()
				repo.EXPECT().Save(mock.Anything, order).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(orderEventOfType(domain.OrderCancelledEvent))).Return(nil).Once()
			},
			expectedStatus: domain.OrderStatusCancelled,
		},
		{
			name:          "cancel cancelled order is a no-op",
			initialStatus: domain.OrderStatusCancelled,
			transition:    (*OrderService).Cancel,
			setupMocks: func(order *domain.Order, repo *mocks.MockOrderRepository, _ *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(order, nil).Once()
			},
			expectedStatus: domain.OrderStatusCancelled,
		},
		{
			name:          "cancel shipped order",
			initialStatus: domain.OrderStatusShipped,
			transition:    (*OrderService).Cancel,
			setupMocks: func(order *domain.Order, repo *mocks.MockOrderRepository, _ *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(order, nil).Once()
			},
			expectedError: domain.ErrInvalidOrderTransition,
		},
		{
			name:          "confirm pending order",
			initialStatus: domain.OrderStatusPending,
			transition:    (*OrderService).Confirm,
			setupMocks: func(order *domain.Order, repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(order, nil).Once()
				repo.EXPECT().Save(mock.Anything, order).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(orderEventOfType(domain.OrderConfirmedEvent))).Return(nil).Once()
			},
			expectedStatus: domain.OrderStatusConfirmed,
		},
		{
			name:          "ship confirmed order",
			initialStatus: domain.OrderStatusConfirmed,
			transition:    (*OrderService).MarkShipped,
			setupMocks: func(order *domain.Order, repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(order, nil).Once()
				repo.EXPECT().Save(mock.Anything, order).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(orderEventOfType(domain.OrderShippedEvent))).Return(nil).Once()
			},
			expectedStatus: domain.OrderStatusShipped,
		},
		{
			name:          "ship cancelled order",
			initialStatus: domain.OrderStatusCancelled,
			transition:    (*OrderService).MarkShipped,
			setupMocks: func(order *domain.Order, repo *mocks.MockOrderRepository, _ *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(order, nil).Once()
			},
			expectedError: domain.ErrInvalidOrderTransition,
		},
		{
			name:          "order not found",
			initialStatus: domain.OrderStatusPending,
			transition:    (*OrderService).Cancel,
			setupMocks: func(order *domain.Order, repo *mocks.MockOrderRepository, _ *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(nil, domain.ErrOrderNotFound).Once()
			},
			expectedError: domain.ErrOrderNotFound,
		},
		{
			name:          "lost update",
			initialStatus: domain.OrderStatusPending,
			transition:    (*OrderService).Cancel,
			setupMocks: func(order *domain.Order, repo *mocks.MockOrderRepository, _ *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, order.ID).Return(order, nil).Once()
				repo.EXPECT().Save(mock.Anything, order).Return(domain.ErrVersionConflict).Once()
			},
			expectedError: domain.ErrVersionConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := domain.NewOrder("customer-1", "product-1", 1, models.NewMoney(1000, "USD"), baseOrderTime)
			require.NoError(t, err)
			order.Status = tt.initialStatus

			repo := mocks.NewMockOrderRepository(t)
			publisher := mocks.NewMockPublisher(t)
			tt.setupMocks(order, repo, publisher)

			service := NewOrderService(repo, publisher, zap.NewNop())
			result, err := tt.transition(service, context.Background(), order.ID)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.expectedError))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, result.Status)
		})
	}
}
