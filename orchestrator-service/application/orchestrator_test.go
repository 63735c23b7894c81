package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/orchestrator-service/infrastructure"
	"github.com/draftea/order-saga/shared/events"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sagaFixture struct {
	clock        *testClock
	bus          *sharedinfra.MemoryBus
	sagas        *infrastructure.MemorySagaRepository
	orders       *OrderService
	metrics      *telemetry.SagaMetrics
	orchestrator *Orchestrator
}

func newSagaFixture(t *testing.T, config OrchestratorConfig) *sagaFixture {
	t.Helper()

	logger := zap.NewNop()
	clock := &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	bus := sharedinfra.NewMemoryBus(logger)
	t.Cleanup(func() { _ = bus.Close() })

	sagas := infrastructure.NewMemorySagaRepository()
	orders := NewOrderService(infrastructure.NewMemoryOrderRepository(), bus, logger)
	orders.now = clock.Now

	metrics, err := telemetry.NewSagaMetrics(nil)
	require.NoError(t, err)

	return &sagaFixture{
		clock:        clock,
		bus:          bus,
		sagas:        sagas,
		orders:       orders,
		metrics:      metrics,
		orchestrator: NewOrchestrator(sagas, orders, bus, metrics, logger, config, WithClock(clock.Now)),
	}
}

func (f *sagaFixture) createOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.orders.Create(context.Background(), "customer-123", "product-456", 3, models.NewMoney(9900, "USD"))
	require.NoError(t, err)
	f.bus.Reset()
	return order
}

// startSaga starts a saga and forgets the payment request it emitted
func (f *sagaFixture) startSaga(t *testing.T) (*domain.Order, models.ID) {
	t.Helper()
	order := f.createOrder(t)
	sagaID, err := f.orchestrator.StartSaga(context.Background(), order)
	require.NoError(t, err)
	f.bus.Reset()
	f.clock.Advance(time.Second)
	return order, sagaID
}

// sagaAtShipping drives a saga until it waits for the shipping response
func (f *sagaFixture) sagaAtShipping(t *testing.T) (*domain.Order, models.ID) {
	t.Helper()
	ctx := context.Background()
	order, sagaID := f.startSaga(t)

	require.NoError(t, f.orchestrator.OnPaymentResponse(ctx, &domain.PaymentResponse{SagaID: sagaID, Successful: true}))
	f.clock.Advance(time.Second)
	require.NoError(t, f.orchestrator.OnInventoryResponse(ctx, &domain.InventoryResponse{SagaID: sagaID, Successful: true}))
	f.clock.Advance(time.Second)
	f.bus.Reset()

	return order, sagaID
}

func (f *sagaFixture) saga(t *testing.T, id models.ID) *domain.SagaTransaction {
	t.Helper()
	saga, err := f.sagas.FindByID(context.Background(), id)
	require.NoError(t, err)
	return saga
}

func (f *sagaFixture) order(t *testing.T, id models.ID) *domain.Order {
	t.Helper()
	order, err := f.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	return order
}

func topicsOf(evts []*events.Event) []events.Topic {
	var topics []events.Topic
	for _, event := range evts {
		topics = append(topics, event.Topic)
	}
	return topics
}

func payloadOf[T any](t *testing.T, event *events.Event) T {
	t.Helper()
	var payload T
	require.NoError(t, event.UnmarshalPayload(&payload))
	return payload
}

func TestOrchestrator_StartSaga(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	order := f.createOrder(t)

	sagaID, err := f.orchestrator.StartSaga(context.Background(), order)
	require.NoError(t, err)
	require.False(t, sagaID.IsZero())

	saga := f.saga(t, sagaID)
	assert.Equal(t, domain.SagaStatusInProgress, saga.Status)
	assert.Equal(t, domain.StepPaymentProcessed, saga.CurrentStep)
	assert.Equal(t, order.ID, saga.OrderID)

	published := f.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.PaymentRequestedTopic, published[0].Topic)
	assert.Equal(t, sagaID.String(), published[0].Metadata[events.SagaIDKey])

	request := payloadOf[domain.PaymentRequest](t, published[0])
	assert.Equal(t, sagaID, request.SagaID)
	assert.Equal(t, order.ID, request.OrderID)
	assert.Equal(t, "customer-123", request.CustomerID)
	assert.Equal(t, order.Amount, request.Amount)
	assert.Equal(t, "CREDIT_CARD", request.PaymentMethod)

	assert.Equal(t, int64(1), f.metrics.Snapshot().TotalStarted)
}

func TestOrchestrator_StartSaga_ActiveSagaExists(t *testing.T) {
	tests := []struct {
		name       string
		concurrent int
	}{
		{name: "sequential retry", concurrent: 1},
		{name: "concurrent requests", concurrent: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSagaFixture(t, DefaultOrchestratorConfig())
			order := f.createOrder(t)
			ctx := context.Background()

			first, err := f.orchestrator.StartSaga(ctx, order)
			require.NoError(t, err)

			var (
				wg   sync.WaitGroup
				errs = make([]error, tt.concurrent)
				ids  = make([]models.ID, tt.concurrent)
			)
			for i := 0; i < tt.concurrent; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					ids[i], errs[i] = f.orchestrator.StartSaga(ctx, order)
				}(i)
			}
			wg.Wait()

			for i := range errs {
				assert.True(t, errors.Is(errs[i], domain.ErrActiveSagaExists))
				assert.True(t, ids[i].IsZero())
			}

			sagas, err := f.sagas.FindByOrderID(ctx, order.ID)
			require.NoError(t, err)
			require.Len(t, sagas, 1)
			assert.Equal(t, first, sagas[0].ID)
			assert.Len(t, f.bus.ByTopic(events.PaymentRequestedTopic), 1)
			assert.Equal(t, int64(1), f.metrics.Snapshot().TotalStarted)
		})
	}
}

func TestOrchestrator_StartSaga_AfterTerminalSaga(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	ctx := context.Background()
	order, first := f.startSaga(t)

	require.NoError(t, f.orchestrator.OnPaymentResponse(ctx, &domain.PaymentResponse{SagaID: first, ErrorMessage: "card declined"}))
	require.True(t, f.saga(t, first).Status.IsTerminal())

	second, err := f.orchestrator.StartSaga(ctx, order)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, domain.SagaStatusInProgress, f.saga(t, second).Status)
}

func TestOrchestrator_StartSaga_InvalidOrder(t *testing.T) {
	tests := []struct {
		name          string
		order         func() *domain.Order
		expectedError string
	}{
		{
			name:          "nil order",
			order:         func() *domain.Order { return nil },
			expectedError: "order is required",
		},
		{
			name:          "missing id",
			order:         func() *domain.Order { return &domain.Order{Amount: models.NewMoney(100, "USD")} },
			expectedError: "order ID is required",
		},
		{
			name: "missing amount",
			order: func() *domain.Order {
				return &domain.Order{ID: models.GenerateUUID()}
			},
			expectedError: "order amount must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSagaFixture(t, DefaultOrchestratorConfig())

			sagaID, err := f.orchestrator.StartSaga(context.Background(), tt.order())

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.True(t, sagaID.IsZero())
			assert.Empty(t, f.bus.Published())
			assert.Equal(t, int64(0), f.metrics.Snapshot().TotalStarted)
		})
	}
}

func TestOrchestrator_StartSaga_DispatchFailure(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	order := f.createOrder(t)
	f.bus.FailNext(errors.New("sns unavailable"))

	sagaID, err := f.orchestrator.StartSaga(context.Background(), order)
	require.NoError(t, err)

	saga := f.saga(t, sagaID)
	assert.Equal(t, domain.SagaStatusFailed, saga.Status)
	assert.Contains(t, saga.ErrorMessage, "sns unavailable")
	assert.NotNil(t, saga.CompletedAt)

	assert.Empty(t, f.bus.ByTopic(events.PaymentRequestedTopic))
	assert.Equal(t, domain.OrderStatusCancelled, f.order(t, order.ID).Status)

	snapshot := f.metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalStarted)
	assert.Equal(t, int64(1), snapshot.TotalFailed)
}

func TestOrchestrator_StartSaga_RetriesDispatch(t *testing.T) {
	config := DefaultOrchestratorConfig()
	config.MaxDispatchRetries = 2

	f := newSagaFixture(t, config)
	order := f.createOrder(t)
	f.bus.FailNext(errors.New("throttled"))

	sagaID, err := f.orchestrator.StartSaga(context.Background(), order)
	require.NoError(t, err)

	saga := f.saga(t, sagaID)
	assert.Equal(t, domain.SagaStatusInProgress, saga.Status)
	assert.Equal(t, 1, saga.RetryCount)
	assert.Len(t, f.bus.ByTopic(events.PaymentRequestedTopic), 1)
}

func TestOrchestrator_OnPaymentResponse_Success(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	order, sagaID := f.startSaga(t)

	err := f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{
		SagaID:        sagaID,
		OrderID:       order.ID,
		TransactionID: "txn-1",
		Successful:    true,
	})
	require.NoError(t, err)

	saga := f.saga(t, sagaID)
	assert.Equal(t, domain.SagaStatusInProgress, saga.Status)
	assert.Equal(t, domain.StepInventoryReserved, saga.CurrentStep)

	published := f.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.InventoryRequestedTopic, published[0].Topic)

	request := payloadOf[domain.InventoryRequest](t, published[0])
	assert.Equal(t, sagaID, request.SagaID)
	assert.Equal(t, "product-456", request.ProductID)
	assert.Equal(t, 3, request.Quantity)
	assert.Equal(t, domain.InventoryOperationReserve, request.Operation)
}

func TestOrchestrator_OnInventoryResponse_Success(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	ctx := context.Background()
	_, sagaID := f.startSaga(t)

	require.NoError(t, f.orchestrator.OnPaymentResponse(ctx, &domain.PaymentResponse{SagaID: sagaID, Successful: true}))
	f.bus.Reset()

	require.NoError(t, f.orchestrator.OnInventoryResponse(ctx, &domain.InventoryResponse{SagaID: sagaID, Successful: true}))

	saga := f.saga(t, sagaID)
	assert.Equal(t, domain.StepShippingArranged, saga.CurrentStep)

	published := f.bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.ShippingRequestedTopic, published[0].Topic)

	request := payloadOf[domain.ShippingRequest](t, published[0])
	assert.Equal(t, "customer-123", request.CustomerID)
	assert.Equal(t, "default", request.ShippingAddress)
	assert.Equal(t, "STANDARD", request.ShippingMethod)
}

func TestOrchestrator_OnInventoryResponse_Failure(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	ctx := context.Background()
	order, sagaID := f.startSaga(t)

	require.NoError(t, f.orchestrator.OnPaymentResponse(ctx, &domain.PaymentResponse{SagaID: sagaID, Successful: true}))
	f.bus.Reset()

	err := f.orchestrator.OnInventoryResponse(ctx, &domain.InventoryResponse{
		SagaID:       sagaID,
		Successful:   false,
		ErrorMessage: "out of stock",
	})
	require.NoError(t, err)

	saga := f.saga(t, sagaID)
	assert.Equal(t, domain.SagaStatusCompensated, saga.Status)
	assert.Equal(t, domain.StepPaymentProcessed, saga.CompensationStep)
	assert.NotNil(t, saga.CompletedAt)

	published := f.bus.Published()
	require.Equal(t, []events.Topic{events.PaymentCompensationTopic, events.OrderEventsTopic}, topicsOf(published))

	refund := payloadOf[domain.CompensationRequest](t, published[0])
	assert.Equal(t, domain.CompensationRefundPayment, refund.CompensationType)
	assert.Equal(t, domain.ActionRefundPayment, refund.CompensationData["action"])
	assert.Equal(t, "customer-123", refund.CompensationData["customerId"])
	assert.Equal(t, "out of stock", refund.Reason)

	cancelled := payloadOf[domain.OrderEvent](t, published[1])
	assert.Equal(t, domain.OrderCancelledEvent, cancelled.EventType)
	assert.Equal(t, domain.OrderStatusCancelled, f.order(t, order.ID).Status)

	snapshot := f.metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalCompensated)
	assert.Equal(t, int64(0), snapshot.TotalFailed)
}

func TestOrchestrator_OnShippingResponse_Success(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	order, sagaID := f.sagaAtShipping(t)

	err := f.orchestrator.OnShippingResponse(context.Background(), &domain.ShippingResponse{
		SagaID:         sagaID,
		Successful:     true,
		TrackingNumber: "TRACK-1",
	})
	require.NoError(t, err)

	saga := f.saga(t, sagaID)
	assert.Equal(t, domain.SagaStatusCompleted, saga.Status)
	assert.Equal(t, domain.StepShippingArranged, saga.CurrentStep)
	require.NotNil(t, saga.CompletedAt)

	assert.Equal(t, domain.OrderStatusShipped, f.order(t, order.ID).Status)

	shipped := f.bus.ByTopic(events.OrderEventsTopic)
	require.Len(t, shipped, 1)
	assert.Equal(t, domain.OrderShippedEvent, payloadOf[domain.OrderEvent](t, shipped[0]).EventType)

	snapshot := f.metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.TotalCompleted)
	assert.Equal(t, 3*time.Second, snapshot.AverageDuration)
	assert.Equal(t, float64(100), snapshot.SuccessRate)
}

func TestOrchestrator_CompensationAnchors(t *testing.T) {
	tests := []struct {
		name           string
		policy         domain.AnchorPolicy
		fail           func(f *sagaFixture, sagaID models.ID) error
		prepare        func(t *testing.T, f *sagaFixture) models.ID
		expectedAnchor domain.SagaStep
		expectedTopics []events.Topic
	}{
		{
			name:   "payment failure unwinds only the order",
			policy: domain.AnchorLastCompleted,
			prepare: func(t *testing.T, f *sagaFixture) models.ID {
				_, id := f.startSaga(t)
				return id
			},
			fail: func(f *sagaFixture, sagaID models.ID) error {
				return f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: sagaID})
			},
			expectedAnchor: domain.StepOrderCreated,
			expectedTopics: []events.Topic{events.OrderEventsTopic},
		},
		{
			name:   "payment failure anchored at the failed step refunds",
			policy: domain.AnchorFailedStep,
			prepare: func(t *testing.T, f *sagaFixture) models.ID {
				_, id := f.startSaga(t)
				return id
			},
			fail: func(f *sagaFixture, sagaID models.ID) error {
				return f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: sagaID})
			},
			expectedAnchor: domain.StepPaymentProcessed,
			expectedTopics: []events.Topic{events.PaymentCompensationTopic, events.OrderEventsTopic},
		},
		{
			name:   "inventory failure anchored at the failed step releases stock",
			policy: domain.AnchorFailedStep,
			prepare: func(t *testing.T, f *sagaFixture) models.ID {
				_, id := f.startSaga(t)
				require.NoError(t, f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: id, Successful: true}))
				f.bus.Reset()
				return id
			},
			fail: func(f *sagaFixture, sagaID models.ID) error {
				return f.orchestrator.OnInventoryResponse(context.Background(), &domain.InventoryResponse{SagaID: sagaID})
			},
			expectedAnchor: domain.StepInventoryReserved,
			expectedTopics: []events.Topic{
				events.InventoryCompensationTopic,
				events.PaymentCompensationTopic,
				events.OrderEventsTopic,
			},
		},
		{
			name:   "shipping failure",
			policy: domain.AnchorLastCompleted,
			prepare: func(t *testing.T, f *sagaFixture) models.ID {
				_, id := f.sagaAtShipping(t)
				return id
			},
			fail: func(f *sagaFixture, sagaID models.ID) error {
				return f.orchestrator.OnShippingResponse(context.Background(), &domain.ShippingResponse{SagaID: sagaID})
			},
			expectedAnchor: domain.StepInventoryReserved,
			expectedTopics: []events.Topic{
				events.InventoryCompensationTopic,
				events.PaymentCompensationTopic,
				events.OrderEventsTopic,
			},
		},
		{
			name:   "shipping failure anchored at the failed step cancels shipping",
			policy: domain.AnchorFailedStep,
			prepare: func(t *testing.T, f *sagaFixture) models.ID {
				_, id := f.sagaAtShipping(t)
				return id
			},
			fail: func(f *sagaFixture, sagaID models.ID) error {
				return f.orchestrator.OnShippingResponse(context.Background(), &domain.ShippingResponse{SagaID: sagaID})
			},
			expectedAnchor: domain.StepShippingArranged,
			expectedTopics: []events.Topic{
				events.ShippingCompensationTopic,
				events.InventoryCompensationTopic,
				events.PaymentCompensationTopic,
				events.OrderEventsTopic,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultOrchestratorConfig()
			config.AnchorPolicy = tt.policy
			f := newSagaFixture(t, config)

			sagaID := tt.prepare(t, f)
			require.NoError(t, tt.fail(f, sagaID))

			saga := f.saga(t, sagaID)
			assert.Equal(t, domain.SagaStatusCompensated, saga.Status)
			assert.Equal(t, tt.expectedAnchor, saga.CompensationStep)
			assert.Equal(t, tt.expectedTopics, topicsOf(f.bus.Published()))
		})
	}
}

func TestOrchestrator_IgnoresDuplicateAndLateResponses(t *testing.T) {
	t.Run("duplicate payment response", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())
		_, sagaID := f.startSaga(t)
		response := &domain.PaymentResponse{SagaID: sagaID, Successful: true}

		require.NoError(t, f.orchestrator.OnPaymentResponse(context.Background(), response))
		require.NoError(t, f.orchestrator.OnPaymentResponse(context.Background(), response))

		assert.Len(t, f.bus.ByTopic(events.InventoryRequestedTopic), 1)
		assert.Equal(t, domain.StepInventoryReserved, f.saga(t, sagaID).CurrentStep)
	})

	t.Run("concurrent duplicate deliveries", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())
		_, sagaID := f.startSaga(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: sagaID, Successful: true})
			}()
		}
		wg.Wait()

		assert.Len(t, f.bus.ByTopic(events.InventoryRequestedTopic), 1)
		assert.Equal(t, 0, f.orchestrator.locks.size())
	})

	t.Run("response after compensation", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())
		_, sagaID := f.startSaga(t)

		require.NoError(t, f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: sagaID}))
		f.bus.Reset()

		require.NoError(t, f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: sagaID, Successful: true}))

		assert.Empty(t, f.bus.Published())
		assert.Equal(t, domain.SagaStatusCompensated, f.saga(t, sagaID).Status)
	})

	t.Run("response for a step not yet reached", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())
		_, sagaID := f.startSaga(t)

		require.NoError(t, f.orchestrator.OnShippingResponse(context.Background(), &domain.ShippingResponse{SagaID: sagaID, Successful: true}))

		assert.Empty(t, f.bus.Published())
		assert.Equal(t, domain.SagaStatusInProgress, f.saga(t, sagaID).Status)
	})

	t.Run("unknown saga", func(t *testing.T) {
		f := newSagaFixture(t, DefaultOrchestratorConfig())

		err := f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: models.GenerateUUID(), Successful: true})

		assert.NoError(t, err)
		assert.Empty(t, f.bus.Published())
	})
}

func TestOrchestrator_ForwardDispatchFailureCompensates(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	_, sagaID := f.startSaga(t)
	f.bus.FailNext(errors.New("sns unavailable"))

	err := f.orchestrator.OnPaymentResponse(context.Background(), &domain.PaymentResponse{SagaID: sagaID, Successful: true})
	require.NoError(t, err)

	saga := f.saga(t, sagaID)
	assert.Equal(t, domain.SagaStatusCompensated, saga.Status)
	assert.Equal(t, domain.StepPaymentProcessed, saga.CompensationStep)
	assert.Equal(t, []events.Topic{events.PaymentCompensationTopic, events.OrderEventsTopic}, topicsOf(f.bus.Published()))
}

func TestOrchestrator_Compensate(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	_, sagaID := f.sagaAtShipping(t)

	require.NoError(t, f.orchestrator.Compensate(context.Background(), sagaID, domain.StepShippingArranged))

	published := f.bus.Published()
	require.Equal(t, []events.Topic{
		events.ShippingCompensationTopic,
		events.InventoryCompensationTopic,
		events.PaymentCompensationTopic,
		events.OrderEventsTopic,
	}, topicsOf(published))

	release := payloadOf[domain.CompensationRequest](t, published[1])
	assert.Equal(t, domain.CompensationReleaseInventory, release.CompensationType)
	assert.Equal(t, "product-456", release.CompensationData["productId"])
	assert.Equal(t, float64(3), release.CompensationData["quantity"])
	assert.Equal(t, "Saga compensation required", release.Reason)

	err := f.orchestrator.Compensate(context.Background(), sagaID, domain.StepShippingArranged)
	assert.True(t, errors.Is(err, domain.ErrTerminalSaga))
}

func TestOrchestrator_CompensationActionFailureContinues(t *testing.T) {
	f := newSagaFixture(t, DefaultOrchestratorConfig())
	_, sagaID := f.sagaAtShipping(t)
	f.bus.FailNext(errors.New("sns unavailable"))

	require.NoError(t, f.orchestrator.OnShippingResponse(context.Background(), &domain.ShippingResponse{SagaID: sagaID}))

	assert.Equal(t, []events.Topic{events.PaymentCompensationTopic, events.OrderEventsTopic}, topicsOf(f.bus.Published()))
	assert.Equal(t, domain.SagaStatusCompensated, f.saga(t, sagaID).Status)
}
