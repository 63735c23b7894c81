package handlers

import (
	"context"

	"github.com/draftea/order-saga/orchestrator-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/saga"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ResponseHandler applies participant responses to their sagas
type ResponseHandler interface {
	OnPaymentResponse(ctx context.Context, response *domain.PaymentResponse) error
	OnInventoryResponse(ctx context.Context, response *domain.InventoryResponse) error
	OnShippingResponse(ctx context.Context, response *domain.ShippingResponse) error
}

// SagaEventHandlers decodes participant responses from the response channels.
// Malformed messages are dropped; redelivering them cannot succeed. Errors
// from the orchestrator are returned so the transport redelivers.
type SagaEventHandlers struct {
	orchestrator ResponseHandler
	validate     *validator.Validate
	logger       *zap.Logger
}

// NewSagaEventHandlers creates new saga event handlers
func NewSagaEventHandlers(orchestrator ResponseHandler, logger *zap.Logger) *SagaEventHandlers {
	return &SagaEventHandlers{
		orchestrator: orchestrator,
		validate:     newValidator(),
		logger:       logger,
	}
}

// RegisterRoutes binds every response channel on router
func (h *SagaEventHandlers) RegisterRoutes(router *saga.TopicRouter) {
	router.RegisterFunc(events.PaymentResponseTopic, h.HandlePaymentResponse)
	router.RegisterFunc(events.InventoryResponseTopic, h.HandleInventoryResponse)
	router.RegisterFunc(events.ShippingResponseTopic, h.HandleShippingResponse)
}

// HandlePaymentResponse handles payment.response messages
func (h *SagaEventHandlers) HandlePaymentResponse(ctx context.Context, event *events.Event) error {
	var response domain.PaymentResponse
	if !h.decode(event, &response, &response.SagaID) {
		return nil
	}
	return h.orchestrator.OnPaymentResponse(ctx, &response)
}

// HandleInventoryResponse handles inventory.response messages
func (h *SagaEventHandlers) HandleInventoryResponse(ctx context.Context, event *events.Event) error {
	var response domain.InventoryResponse
	if !h.decode(event, &response, &response.SagaID) {
		return nil
	}
	return h.orchestrator.OnInventoryResponse(ctx, &response)
}

// HandleShippingResponse handles shipping.response messages
func (h *SagaEventHandlers) HandleShippingResponse(ctx context.Context, event *events.Event) error {
	var response domain.ShippingResponse
	if !h.decode(event, &response, &response.SagaID) {
		return nil
	}
	return h.orchestrator.OnShippingResponse(ctx, &response)
}

// decode unmarshals and validates the payload. A payload without sagaId
// takes it from the saga_id metadata the request carried.
func (h *SagaEventHandlers) decode(event *events.Event, v interface{}, sagaID *models.ID) bool {
	if err := event.UnmarshalPayload(v); err != nil {
		h.logger.Warn("dropping malformed response",
			zap.String("topic", event.Topic.String()),
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
		return false
	}

	if sagaID.IsZero() {
		if id, ok := event.Metadata.Get(events.SagaIDKey); ok {
			*sagaID = models.ID(id)
		}
	}

	if err := h.validate.Struct(v); err != nil {
		h.logger.Warn("dropping invalid response",
			zap.String("topic", event.Topic.String()),
			zap.String("event_id", event.ID.String()),
			zap.Error(formatValidationError(err)),
		)
		return false
	}

	return true
}
