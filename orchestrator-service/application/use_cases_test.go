package application

import (
	"context"
	"testing"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/orchestrator-service/mocks"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder_Execute(t *testing.T) {
	valid := &CreateOrderCommand{
		CustomerID: "customer-1",
		ProductID:  "product-1",
		Quantity:   2,
		Amount:     2500,
		Currency:   "USD",
	}

	tests := []struct {
		name            string
		cmd             *CreateOrderCommand
		publishErr      error
		expectedError   string
		expectedStatus  string
		expectedMessage string
		expectedSaga    domain.SagaStatus
	}{
		{
			name:            "order created and saga started",
			cmd:             valid,
			expectedStatus:  "PENDING",
			expectedMessage: "Order created and saga started",
			expectedSaga:    domain.SagaStatusInProgress,
		},
		{
			name:            "setup failure reports the cancelled order",
			cmd:             valid,
			publishErr:      errors.New("sns unavailable"),
			expectedStatus:  "CANCELLED",
			expectedMessage: "Order created but saga setup failed",
			expectedSaga:    domain.SagaStatusFailed,
		},
		{
			name: "invalid order",
			cmd: &CreateOrderCommand{
				CustomerID: "customer-1",
				ProductID:  "product-1",
				Quantity:   0,
				Amount:     2500,
				Currency:   "USD",
			},
			expectedError: "failed to create order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSagaFixture(t, DefaultOrchestratorConfig())
			uc := NewCreateOrder(f.orders, f.orchestrator)
			if tt.publishErr != nil {
				// order.created and the payment request
				f.bus.FailNext(tt.publishErr, tt.publishErr)
			}

			response, err := uc.Execute(context.Background(), tt.cmd)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Empty(t, f.bus.Published())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, response.Status)
			assert.Equal(t, tt.expectedMessage, response.Message)
			assert.Equal(t, tt.expectedStatus, f.order(t, models.ID(response.OrderID)).Status.String())

			saga := f.saga(t, models.ID(response.SagaID))
			assert.Equal(t, response.OrderID, saga.OrderID.String())
			assert.Equal(t, tt.expectedSaga, saga.Status)
		})
	}
}

func TestCreateOrder_Execute_ReloadFails(t *testing.T) {
	order := &domain.Order{
		ID:         models.GenerateUUID(),
		CustomerID: "customer-1",
		Amount:     models.NewMoney(2500, "USD"),
		Status:     domain.OrderStatusPending,
	}
	sagaID := models.GenerateUUID()

	orders := mocks.NewMockOrderCreator(t)
	starter := mocks.NewMockSagaStarter(t)
	orders.EXPECT().Create(mock.Anything, "customer-1", "product-1", 2, models.NewMoney(2500, "USD")).Return(order, nil).Once()
	starter.EXPECT().StartSaga(mock.Anything, order).Return(sagaID, nil).Once()
	orders.EXPECT().FindByID(mock.Anything, order.ID).Return(nil, errors.New("connection reset")).Once()

	response, err := NewCreateOrder(orders, starter).Execute(context.Background(), &CreateOrderCommand{
		CustomerID: "customer-1",
		ProductID:  "product-1",
		Quantity:   2,
		Amount:     2500,
		Currency:   "USD",
	})

	require.NoError(t, err)
	assert.Equal(t, "PENDING", response.Status)
	assert.Equal(t, sagaID.String(), response.SagaID)
}

func TestCancelOrder_Execute(t *testing.T) {
	t.Run("order without saga", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())
		order := f.createOrder(t)

		response, err := NewCancelOrder(f.orders, f.sagas).Execute(context.Background(), order.ID.String())

		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", response.Status)
	})

	t.Run("order with a running saga", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())
		order, _ := f.startSaga(t)

		_, err := NewCancelOrder(f.orders, f.sagas).Execute(context.Background(), order.ID.String())

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrActiveSagaExists))
		assert.Equal(t, domain.OrderStatusPending, f.order(t, order.ID).Status)
	})

	t.Run("order whose saga was compensated", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())
		order, sagaID := f.startSaga(t)
		require.NoError(t, f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: sagaID}))

		response, err := NewCancelOrder(f.orders, f.sagas).Execute(context.Background(), order.ID.String())

		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", response.Status)
	})

	t.Run("shipped order", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())
		order, sagaID := f.sagaAtShipping(t)
		require.NoError(t, f.orchestrator.OnShippingResponse(context.Background(), &domain.ShippingResponse{SagaID: sagaID, Successful: true}))

		_, err := NewCancelOrder(f.orders, f.sagas).Execute(context.Background(), order.ID.String())

		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidOrderTransition))
	})

	t.Run("invalid order ID", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())

		_, err := NewCancelOrder(f.orders, f.sagas).Execute(context.Background(), "not-a-uuid")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid order ID")
	})
}

func TestGetOrder_Execute(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	order := f.createOrder(t)
	uc := NewGetOrder(f.orders)

	response, err := uc.Execute(context.Background(), order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, order.ID.String(), response.OrderID)
	assert.Equal(t, int64(9900), response.Amount)
	assert.Equal(t, "USD", response.Currency)

	_, err = uc.Execute(context.Background(), models.GenerateUUID().String())
	assert.True(t, errors.Is(err, domain.ErrOrderNotFound))

	_, err = uc.Execute(context.Background(), "bogus")
	assert.Contains(t, err.Error(), "invalid order ID")
}

func TestListOrders(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	first := f.createOrder(t)
	f.clock.Advance(time.Second)
	second := f.createOrder(t)
	_, err := f.orders.Cancel(context.Background(), first.ID)
	require.NoError(t, err)

	uc := NewListOrders(f.orders)

	byCustomer, err := uc.ByCustomer(context.Background(), "customer-123")
	require.NoError(t, err)
	require.Len(t, byCustomer, 2)
	assert.Equal(t, second.ID.String(), byCustomer[0].OrderID)

	pending, err := uc.ByStatus(context.Background(), "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID.String(), pending[0].OrderID)

	_, err = uc.ByStatus(context.Background(), "LOST")
	assert.True(t, errors.Is(err, domain.ErrInvalidOrderStatus))

	_, err = uc.ByCustomer(context.Background(), "")
	assert.Error(t, err)
}

func TestGetSagaStatus_Execute(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	order, sagaID := f.startSaga(t)
	uc := NewGetSagaStatus(f.sagas)

	tests := []struct {
		name          string
		sagaID        string
		expectedError string
		expectedErr   error
	}{
		{
			name:   "existing saga",
			sagaID: sagaID.String(),
		},
		{
			name:          "invalid ID",
			sagaID:        "nope",
			expectedError: "invalid saga ID",
		},
		{
			name:        "unknown saga",
			sagaID:      models.GenerateUUID().String(),
			expectedErr: domain.ErrSagaNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := uc.Execute(context.Background(), tt.sagaID)

			switch {
			case tt.expectedError != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			case tt.expectedErr != nil:
				assert.True(t, errors.Is(err, tt.expectedErr))
			default:
				require.NoError(t, err)
				assert.Equal(t, order.ID.String(), response.OrderID)
				assert.Equal(t, "IN_PROGRESS", response.Status)
				assert.Equal(t, "PAYMENT_PROCESSED", response.CurrentStep)
				assert.Empty(t, response.CompensationStep)
				assert.Nil(t, response.CompletedAt)
			}
		})
	}
}

func TestListSagas_Execute(t *testing.T) {
	t.Run("filters by status", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())
		_, running := f.startSaga(t)
		_, compensated := f.startSaga(t)
		require.NoError(t, f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: compensated}))

		uc := NewListSagas(f.sagas)

		all, err := uc.Execute(context.Background(), &ListSagasQuery{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		inProgress, err := uc.Execute(context.Background(), &ListSagasQuery{Status: "in_progress"})
		require.NoError(t, err)
		require.Len(t, inProgress, 1)
		assert.Equal(t, running.String(), inProgress[0].SagaID)

		_, err = uc.Execute(context.Background(), &ListSagasQuery{Status: "LOST"})
		assert.True(t, errors.Is(err, domain.ErrInvalidSagaStatus))
	})

	t.Run("applies the default limit", func(t *testing.T) {
		sagaRepo := mocks.NewMockSagaRepository(t)
		sagaRepo.EXPECT().List(mock.Anything, domain.SagaFilter{Limit: 100}).Return(nil, nil).Once()

		responses, err := NewListSagas(sagaRepo).Execute(context.Background(), &ListSagasQuery{})

		require.NoError(t, err)
		assert.Empty(t, responses)
	})
}

func TestGetSagaMetrics_Execute(t *testing.T) {
	metrics := mocks.NewMockMetricsRecorder(t)
	metrics.EXPECT().Snapshot().Return(telemetry.SagaSnapshot{
		TotalStarted:     4,
		TotalCompleted:   2,
		TotalFailed:      1,
		TotalCompensated: 1,
		AverageDuration:  1500 * time.Millisecond,
		SuccessRate:      50,
		FailureRate:      50,
	}).Once()

	response := NewGetSagaMetrics(metrics).Execute()

	assert.Equal(t, &SagaMetricsResponse{
		TotalStarted:      4,
		TotalCompleted:    2,
		TotalFailed:       1,
		TotalCompensated:  1,
		AverageDurationMs: 1500,
		SuccessRate:       50,
		FailureRate:       50,
	}, response)
}
