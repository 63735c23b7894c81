package application

import (
	"context"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Compensate unwinds an IN_PROGRESS saga from anchor
func (o *Orchestrator) Compensate(ctx context.Context, sagaID models.ID, anchor domain.SagaStep) error {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.Compensate")
	defer span.End()

	return o.withSaga(ctx, sagaID, func(saga *domain.SagaTransaction) error {
		return o.compensate(ctx, saga, anchor, o.config.CompensationReason)
	})
}

// compensate marks the saga COMPENSATING, dispatches the plan for anchor and
// marks it COMPENSATED. If the ledger cannot record the start of the cascade
// the saga is failed instead.
func (o *Orchestrator) compensate(ctx context.Context, saga *domain.SagaTransaction, anchor domain.SagaStep, reason string) error {
	if err := saga.BeginCompensation(anchor, o.now()); err != nil {
		return err
	}

	if err := o.sagaRepository.Save(ctx, saga); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return err
		}

		o.logger.Error("failed to start compensation",
			zap.String("saga_id", saga.ID.String()),
			zap.Error(err),
		)
		o.fail(ctx, saga, errors.Wrap(err, "compensation failed").Error())
		return nil
	}

	o.logger.Info("saga compensating",
		zap.String("saga_id", saga.ID.String()),
		zap.String("anchor", anchor.String()),
		zap.String("reason", reason),
	)

	o.runCascade(ctx, saga, anchor, reason)

	now := o.now()
	compensated := *saga
	if err := compensated.MarkCompensated(now); err != nil {
		return err
	}
	if err := o.sagaRepository.Save(ctx, &compensated); err != nil {
		o.logger.Error("failed to mark saga compensated",
			zap.String("saga_id", saga.ID.String()),
			zap.Error(err),
		)
		o.fail(ctx, saga, errors.Wrap(err, "compensation failed").Error())
		return nil
	}
	*saga = compensated

	o.metrics.Incr(ctx, telemetry.SagaCompensated)
	o.metrics.ObserveDuration(ctx, telemetry.SagaDuration, saga.Duration(now))

	o.logger.Info("saga compensated",
		zap.String("saga_id", saga.ID.String()),
		zap.Duration("duration", saga.Duration(now)),
	)

	return nil
}

// runCascade issues every action of the plan for anchor in order. A failed
// action is logged and the remaining actions still run.
func (o *Orchestrator) runCascade(ctx context.Context, saga *domain.SagaTransaction, anchor domain.SagaStep, reason string) {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.runCascade")
	defer span.End()
	span.SetAttributes(
		attribute.String("saga_id", saga.ID.String()),
		attribute.String("anchor", anchor.String()),
	)

	order, err := o.orderService.FindByID(ctx, saga.OrderID)
	if err != nil {
		o.logger.Error("failed to load order for compensation",
			zap.String("saga_id", saga.ID.String()),
			zap.String("order_id", saga.OrderID.String()),
			zap.Error(err),
		)
	}

	for _, compensation := range domain.CompensationPlan(anchor) {
		if err := o.runCompensation(ctx, saga, order, compensation, reason); err != nil {
			o.logger.Error("compensation action failed",
				zap.String("saga_id", saga.ID.String()),
				zap.String("compensation", compensation.String()),
				zap.Error(err),
			)
			continue
		}

		o.logger.Info("compensation dispatched",
			zap.String("saga_id", saga.ID.String()),
			zap.String("compensation", compensation.String()),
		)
	}
}

func (o *Orchestrator) runCompensation(
	ctx context.Context,
	saga *domain.SagaTransaction,
	order *domain.Order,
	compensation domain.CompensationType,
	reason string,
) error {
	if compensation == domain.CompensationCancelOrder {
		_, err := o.orderService.Cancel(ctx, saga.OrderID)
		return errors.Wrap(err, "failed to cancel order")
	}

	topic, ok := compensation.Topic()
	if !ok {
		return errors.Errorf("no channel for compensation %s", compensation)
	}

	data, err := compensationData(compensation, saga.OrderID, order)
	if err != nil {
		return err
	}

	request := &domain.CompensationRequest{
		SagaID:           saga.ID,
		OrderID:          saga.OrderID,
		CompensationType: compensation,
		CompensationData: data,
		RequestedAt:      o.now(),
		Reason:           reason,
	}

	event := o.newRequestEvent(saga, topic, request).
		WithMetadata("compensation_type", compensation.String())

	if err := o.eventPublisher.Publish(ctx, event); err != nil {
		return errors.Wrapf(err, "failed to publish %s", topic)
	}

	o.record(ctx, saga, event)
	return nil
}

// compensationData builds the action specific payload. Without the order
// only the action and order ID are sent.
func compensationData(compensation domain.CompensationType, orderID models.ID, order *domain.Order) (map[string]interface{}, error) {
	data := map[string]interface{}{
		"orderId": orderID.String(),
	}

	switch compensation {
	case domain.CompensationCancelShipping:
		data["action"] = domain.ActionCancelShipping
	case domain.CompensationReleaseInventory:
		data["action"] = domain.ActionReleaseInventory
		if order != nil {
			data["productId"] = order.ProductID
			data["quantity"] = order.Quantity
		}
	case domain.CompensationRefundPayment:
		data["action"] = domain.ActionRefundPayment
		if order != nil {
			data["customerId"] = order.CustomerID
			data["amount"] = order.Amount
		}
	default:
		return nil, errors.Errorf("unknown compensation %s", compensation)
	}

	return data, nil
}
