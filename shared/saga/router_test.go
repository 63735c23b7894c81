package saga

import (
	"context"
	"testing"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTopicRouter_Handle(t *testing.T) {
	tests := []struct {
		name          string
		topic         events.Topic
		expectedCalls []string
		expectedError string
	}{
		{
			name:          "exact topic",
			topic:         events.PaymentResponseTopic,
			expectedCalls: []string{"payment", "responses"},
		},
		{
			name:          "pattern only",
			topic:         events.ShippingResponseTopic,
			expectedCalls: []string{"responses"},
		},
		{
			name:          "handler error is returned after all handlers ran",
			topic:         events.InventoryResponseTopic,
			expectedCalls: []string{"inventory", "responses"},
			expectedError: "handling inventory.response: inventory down",
		},
		{
			name:  "unrouted topic is acknowledged",
			topic: events.OrderEventsTopic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			record := func(name string, err error) func(context.Context, *events.Event) error {
				return func(context.Context, *events.Event) error {
					calls = append(calls, name)
					return err
				}
			}

			router := NewTopicRouter(zap.NewNop())
			router.RegisterFunc(events.PaymentResponseTopic, record("payment", nil))
			router.RegisterFunc(events.InventoryResponseTopic, record("inventory", errors.New("inventory down")))
			router.RegisterFunc("*.response", record("responses", nil))

			err := router.Handle(context.Background(), events.NewEvent(models.ID("s-1"), tt.topic, nil))

			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}

func TestTopicRouter_HandleWithMetadata(t *testing.T) {
	tests := []struct {
		name          string
		topic         events.Topic
		metadata      events.Metadata
		expectedCalls []string
	}{
		{
			name:          "metadata route matches required pairs",
			topic:         events.PaymentCompensationTopic,
			metadata:      events.Metadata{"compensation_type": "PAYMENT_REFUND", events.SagaIDKey: "s-1"},
			expectedCalls: []string{"refunds", "compensations"},
		},
		{
			name:          "different value skips the metadata route",
			topic:         events.InventoryCompensationTopic,
			metadata:      events.Metadata{"compensation_type": "INVENTORY_RELEASE"},
			expectedCalls: []string{"compensations"},
		},
		{
			name:          "missing key skips the metadata route",
			topic:         events.PaymentCompensationTopic,
			expectedCalls: []string{"compensations"},
		},
		{
			name:     "metadata alone does not route another topic",
			topic:    events.PaymentResponseTopic,
			metadata: events.Metadata{"compensation_type": "PAYMENT_REFUND"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			record := func(name string) events.EventHandlerFunc {
				return func(context.Context, *events.Event) error {
					calls = append(calls, name)
					return nil
				}
			}

			required := events.Metadata{"compensation_type": "PAYMENT_REFUND"}
			router := NewTopicRouter(zap.NewNop())
			router.RegisterWhere("*.compensation", required, record("refunds"))
			router.Register("#.compensation", record("compensations"))
			required.Set("compensation_type", "INVENTORY_RELEASE")

			event := events.NewEvent(models.ID("s-1"), tt.topic, nil)
			for k, v := range tt.metadata {
				event.WithMetadata(k, v)
			}

			assert.NoError(t, router.Handle(context.Background(), event))
			assert.Equal(t, tt.expectedCalls, calls)
		})
	}
}
