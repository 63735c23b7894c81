package application

import (
	"context"
	"time"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// maxConflictRetries bounds how often one event reloads a saga after losing
// a ledger compare-and-swap
const maxConflictRetries = 3

// OrchestratorConfig holds the request defaults and failure policy
type OrchestratorConfig struct {
	PaymentMethod      string
	ShippingAddress    string
	ShippingMethod     string
	AnchorPolicy       domain.AnchorPolicy
	MaxDispatchRetries int
	CompensationReason string
}

// DefaultOrchestratorConfig returns the configuration used when nothing is set
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		PaymentMethod:      "CREDIT_CARD",
		ShippingAddress:    "default",
		ShippingMethod:     "STANDARD",
		AnchorPolicy:       domain.AnchorLastCompleted,
		CompensationReason: "Saga compensation required",
	}
}

// Orchestrator drives every saga through payment, inventory and shipping and
// unwinds it when a step fails
type Orchestrator struct {
	sagaRepository domain.SagaRepository
	orderService   domain.OrderService
	eventPublisher events.Publisher
	metrics        domain.MetricsRecorder
	journal        domain.SagaJournal
	logger         *zap.Logger
	config         OrchestratorConfig
	locks          *sagaLocks
	orderLocks     *sagaLocks
	now            func() time.Time
}

// OrchestratorOption customizes an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithJournal records every dispatched request in journal
func WithJournal(journal domain.SagaJournal) OrchestratorOption {
	return func(o *Orchestrator) {
		o.journal = journal
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	sagaRepository domain.SagaRepository,
	orderService domain.OrderService,
	eventPublisher events.Publisher,
	metrics domain.MetricsRecorder,
	logger *zap.Logger,
	config OrchestratorConfig,
	opts ...OrchestratorOption,
) *Orchestrator {
	if config.AnchorPolicy == "" {
		config.AnchorPolicy = domain.AnchorLastCompleted
	}
	if config.MaxDispatchRetries < 0 {
		config.MaxDispatchRetries = 0
	}

	o := &Orchestrator{
		sagaRepository: sagaRepository,
		orderService:   orderService,
		eventPublisher: eventPublisher,
		metrics:        metrics,
		logger:         logger,
		config:         config,
		locks:          newSagaLocks(),
		orderLocks:     newSagaLocks(),
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// StartSaga creates the saga for order and dispatches the payment request.
// It returns an error only when no saga could be created, including when the
// order already has a non-terminal saga; a saga that fails during setup is
// left FAILED and its ID is still returned.
func (o *Orchestrator) StartSaga(ctx context.Context, order *domain.Order) (models.ID, error) {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.StartSaga")
	defer span.End()

	if order == nil {
		return "", errors.New("order is required")
	}
	if order.ID.IsZero() {
		return "", errors.New("order ID is required")
	}
	if !order.Amount.IsPositive() {
		return "", errors.New("order amount must be positive")
	}

	saga, err := o.createSaga(ctx, order.ID)
	if err != nil {
		return "", err
	}

	unlock := o.locks.Lock(saga.ID)
	defer unlock()

	span.SetAttributes(attribute.String("saga_id", saga.ID.String()))
	o.metrics.Incr(ctx, telemetry.SagaStarted)
	o.logger.Info("saga started",
		zap.String("saga_id", saga.ID.String()),
		zap.String("order_id", order.ID.String()),
	)

	if err := saga.Advance(domain.StepPaymentProcessed, o.now()); err != nil {
		o.failSetup(ctx, saga, err)
		return saga.ID, nil
	}
	if err := o.sagaRepository.Save(ctx, saga); err != nil {
		o.failSetup(ctx, saga, errors.Wrap(err, "failed to claim payment step"))
		return saga.ID, nil
	}

	request := &domain.PaymentRequest{
		SagaID:        saga.ID,
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Amount:        order.Amount,
		PaymentMethod: o.config.PaymentMethod,
		RequestedAt:   o.now(),
	}

	if err := o.dispatch(ctx, saga, events.PaymentRequestedTopic, request); err != nil {
		o.failSetup(ctx, saga, err)
		return saga.ID, nil
	}

	o.logger.Info("payment requested",
		zap.String("saga_id", saga.ID.String()),
		zap.String("amount", order.Amount.String()),
	)

	return saga.ID, nil
}

// createSaga persists a new saga unless the order already has an active one.
// The ledger enforces the same rule across processes.
func (o *Orchestrator) createSaga(ctx context.Context, orderID models.ID) (*domain.SagaTransaction, error) {
	unlock := o.orderLocks.Lock(orderID)
	defer unlock()

	existing, err := o.sagaRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check active sagas")
	}
	for _, saga := range existing {
		if !saga.Status.IsTerminal() {
			return nil, errors.Wrapf(domain.ErrActiveSagaExists, "saga %s is %s", saga.ID, saga.Status)
		}
	}

	saga, err := domain.NewSagaTransaction(orderID, o.now())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create saga")
	}

	if err := o.sagaRepository.Save(ctx, saga); err != nil {
		return nil, errors.Wrap(err, "failed to save saga")
	}

	return saga, nil
}

// failSetup marks a saga that never got its first request out as FAILED and
// releases the order
func (o *Orchestrator) failSetup(ctx context.Context, saga *domain.SagaTransaction, cause error) {
	o.logger.Error("saga setup failed",
		zap.String("saga_id", saga.ID.String()),
		zap.Error(cause),
	)

	o.fail(ctx, saga, cause.Error())

	if _, err := o.orderService.Cancel(ctx, saga.OrderID); err != nil {
		o.logger.Warn("failed to cancel order after setup failure",
			zap.String("saga_id", saga.ID.String()),
			zap.String("order_id", saga.OrderID.String()),
			zap.Error(err),
		)
	}
}

// OnPaymentResponse advances to inventory reservation or compensates
func (o *Orchestrator) OnPaymentResponse(ctx context.Context, response *domain.PaymentResponse) error {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.OnPaymentResponse")
	defer span.End()

	return o.onResponse(ctx, response.SagaID, domain.StepPaymentProcessed, response.Successful, response.ErrorMessage,
		func(ctx context.Context, saga *domain.SagaTransaction) error {
			return o.advance(ctx, saga, domain.StepInventoryReserved, events.InventoryRequestedTopic,
				func(order *domain.Order) interface{} {
					return &domain.InventoryRequest{
						SagaID:      saga.ID,
						OrderID:     order.ID,
						ProductID:   order.ProductID,
						Quantity:    order.Quantity,
						Operation:   domain.InventoryOperationReserve,
						RequestedAt: o.now(),
					}
				})
		})
}

// OnInventoryResponse advances to shipping or compensates
func (o *Orchestrator) OnInventoryResponse(ctx context.Context, response *domain.InventoryResponse) error {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.OnInventoryResponse")
	defer span.End()

	return o.onResponse(ctx, response.SagaID, domain.StepInventoryReserved, response.Successful, response.ErrorMessage,
		func(ctx context.Context, saga *domain.SagaTransaction) error {
			return o.advance(ctx, saga, domain.StepShippingArranged, events.ShippingRequestedTopic,
				func(order *domain.Order) interface{} {
					return &domain.ShippingRequest{
						SagaID:          saga.ID,
						OrderID:         order.ID,
						CustomerID:      order.CustomerID,
						ShippingAddress: o.config.ShippingAddress,
						ShippingMethod:  o.config.ShippingMethod,
						RequestedAt:     o.now(),
					}
				})
		})
}

// OnShippingResponse completes the saga or compensates
func (o *Orchestrator) OnShippingResponse(ctx context.Context, response *domain.ShippingResponse) error {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.OnShippingResponse")
	defer span.End()

	return o.onResponse(ctx, response.SagaID, domain.StepShippingArranged, response.Successful, response.ErrorMessage, o.complete)
}

// onResponse applies a participant response for step to the saga. Responses
// for a step the saga is not waiting on are ignored.
func (o *Orchestrator) onResponse(
	ctx context.Context,
	sagaID models.ID,
	step domain.SagaStep,
	successful bool,
	errorMessage string,
	onSuccess func(ctx context.Context, saga *domain.SagaTransaction) error,
) error {
	return o.withSaga(ctx, sagaID, func(saga *domain.SagaTransaction) error {
		if !saga.AwaitsResponseFor(step) {
			o.logger.Debug("ignoring late or duplicate response",
				zap.String("saga_id", saga.ID.String()),
				zap.String("step", step.String()),
				zap.String("status", saga.Status.String()),
				zap.String("current_step", saga.CurrentStep.String()),
			)
			return nil
		}

		if successful {
			return onSuccess(ctx, saga)
		}

		o.logger.Warn("participant reported failure",
			zap.String("saga_id", saga.ID.String()),
			zap.String("step", step.String()),
			zap.String("error", errorMessage),
		)

		reason := o.config.CompensationReason
		if errorMessage != "" {
			reason = errorMessage
		}

		return o.compensate(ctx, saga, o.config.AnchorPolicy.Anchor(step), reason)
	})
}

// advance claims the next step in the ledger and then sends its request.
// When the order cannot be loaded the completed steps are unwound.
func (o *Orchestrator) advance(
	ctx context.Context,
	saga *domain.SagaTransaction,
	step domain.SagaStep,
	topic events.Topic,
	buildRequest func(order *domain.Order) interface{},
) error {
	order, err := o.orderService.FindByID(ctx, saga.OrderID)
	if err != nil {
		o.logger.Error("failed to load order",
			zap.String("saga_id", saga.ID.String()),
			zap.String("order_id", saga.OrderID.String()),
			zap.Error(err),
		)
		return o.compensate(ctx, saga, domain.AnchorLastCompleted.Anchor(step), errors.Wrap(err, "failed to load order").Error())
	}

	if err := saga.Advance(step, o.now()); err != nil {
		return err
	}
	if err := o.sagaRepository.Save(ctx, saga); err != nil {
		return errors.Wrapf(err, "failed to claim step %s", step)
	}

	if err := o.dispatch(ctx, saga, topic, buildRequest(order)); err != nil {
		o.logger.Error("failed to dispatch request",
			zap.String("saga_id", saga.ID.String()),
			zap.String("step", step.String()),
			zap.Error(err),
		)
		return o.compensate(ctx, saga, domain.AnchorLastCompleted.Anchor(step), err.Error())
	}

	o.logger.Info("saga advanced",
		zap.String("saga_id", saga.ID.String()),
		zap.String("step", step.String()),
	)

	return nil
}

// complete finishes a saga whose shipping was arranged
func (o *Orchestrator) complete(ctx context.Context, saga *domain.SagaTransaction) error {
	now := o.now()
	if err := saga.Complete(now); err != nil {
		return err
	}
	if err := o.sagaRepository.Save(ctx, saga); err != nil {
		return errors.Wrap(err, "failed to complete saga")
	}

	o.metrics.Incr(ctx, telemetry.SagaCompleted)
	o.metrics.ObserveDuration(ctx, telemetry.SagaDuration, saga.Duration(now))

	if _, err := o.orderService.MarkShipped(ctx, saga.OrderID); err != nil {
		o.logger.Error("failed to mark order shipped",
			zap.String("saga_id", saga.ID.String()),
			zap.String("order_id", saga.OrderID.String()),
			zap.Error(err),
		)
	}

	o.logger.Info("saga completed",
		zap.String("saga_id", saga.ID.String()),
		zap.Duration("duration", saga.Duration(now)),
	)

	return nil
}

// fail marks the saga FAILED and records the terminal metrics. Failures to
// persist are logged; the watchdog picks the saga up again later.
func (o *Orchestrator) fail(ctx context.Context, saga *domain.SagaTransaction, reason string) bool {
	now := o.now()
	if err := saga.Fail(reason, now); err != nil {
		o.logger.Warn("cannot fail saga",
			zap.String("saga_id", saga.ID.String()),
			zap.Error(err),
		)
		return false
	}

	if err := o.sagaRepository.Save(ctx, saga); err != nil {
		o.logger.Error("failed to persist failed saga",
			zap.String("saga_id", saga.ID.String()),
			zap.Error(err),
		)
		return false
	}

	o.metrics.Incr(ctx, telemetry.SagaFailed)
	o.metrics.ObserveDuration(ctx, telemetry.SagaDuration, saga.Duration(now))

	o.logger.Info("saga failed",
		zap.String("saga_id", saga.ID.String()),
		zap.String("reason", reason),
	)

	return true
}

// dispatch publishes one request, retrying up to MaxDispatchRetries times.
// Every retry is counted on the saga.
func (o *Orchestrator) dispatch(ctx context.Context, saga *domain.SagaTransaction, topic events.Topic, payload interface{}) error {
	event := o.newRequestEvent(saga, topic, payload)

	var err error
	for attempt := 0; ; attempt++ {
		if err = o.eventPublisher.Publish(ctx, event); err == nil {
			o.record(ctx, saga, event)
			return nil
		}

		if attempt >= o.config.MaxDispatchRetries {
			break
		}

		o.logger.Warn("retrying request dispatch",
			zap.String("saga_id", saga.ID.String()),
			zap.String("topic", topic.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		saga.IncrementRetry(o.now())
		if saveErr := o.sagaRepository.Save(ctx, saga); saveErr != nil {
			return errors.Wrap(saveErr, "failed to record dispatch retry")
		}
	}

	return errors.Wrapf(err, "failed to publish %s", topic)
}

func (o *Orchestrator) newRequestEvent(saga *domain.SagaTransaction, topic events.Topic, payload interface{}) *events.Event {
	event := events.NewEvent(saga.ID, topic, payload).
		WithCorrelationID(saga.ID).
		WithMetadata(events.SagaIDKey, saga.ID.String()).
		WithMetadata(events.OrderIDKey, saga.OrderID.String())
	event.Timestamp = o.now()
	return event
}

// record appends a dispatched request to the saga journal
func (o *Orchestrator) record(ctx context.Context, saga *domain.SagaTransaction, event *events.Event) {
	if o.journal == nil {
		return
	}

	if err := o.journal.AppendEvents(ctx, saga.ID, []*events.Event{event}); err != nil {
		o.logger.Warn("failed to journal request",
			zap.String("saga_id", saga.ID.String()),
			zap.String("topic", event.Topic.String()),
			zap.Error(err),
		)
	}
}

// withSaga loads the saga under its lock and runs fn. A ledger conflict
// reloads the saga and runs fn again.
func (o *Orchestrator) withSaga(ctx context.Context, sagaID models.ID, fn func(saga *domain.SagaTransaction) error) error {
	unlock := o.locks.Lock(sagaID)
	defer unlock()

	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		var saga *domain.SagaTransaction
		saga, err = o.sagaRepository.FindByID(ctx, sagaID)
		if err != nil {
			if errors.Is(err, domain.ErrSagaNotFound) {
				o.logger.Warn("event for unknown saga", zap.String("saga_id", sagaID.String()))
				return nil
			}
			return errors.Wrap(err, "failed to load saga")
		}

		err = fn(saga)
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}

		o.logger.Debug("saga changed concurrently, reloading",
			zap.String("saga_id", sagaID.String()),
			zap.Int("attempt", attempt+1),
		)
	}

	return err
}
