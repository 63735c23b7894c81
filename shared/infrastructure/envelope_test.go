package infrastructure

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	SagaID string `json:"sagaId"`
	Amount int64  `json:"amount"`
}

func TestEnvelope_RoundTrip(t *testing.T) {
	sagaID := models.ID("550e8400-e29b-41d4-a716-446655440000")
	event := events.NewEvent(sagaID, events.PaymentRequestedTopic, testPayload{SagaID: sagaID.String(), Amount: 1500}).
		WithCorrelationID(sagaID).
		WithMetadata(events.SagaIDKey, sagaID.String()).
		WithMetadata(SQSReceiptHandleKey, "receipt")

	body, err := EncodeEnvelope(event)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "receipt")
	assert.True(t, event.Metadata.Has(SQSReceiptHandleKey))

	decoded, err := DecodeEnvelope(body)
	require.NoError(t, err)

	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, sagaID, decoded.AggregateID)
	assert.Equal(t, sagaID, decoded.CorrelationID)
	assert.Equal(t, events.PaymentRequestedTopic, decoded.Topic)
	assert.True(t, event.Timestamp.Equal(decoded.Timestamp))

	value, ok := decoded.Metadata.Get(events.SagaIDKey)
	assert.True(t, ok)
	assert.Equal(t, sagaID.String(), value)
	assert.False(t, decoded.Metadata.Has(SQSReceiptHandleKey))

	var payload testPayload
	require.NoError(t, decoded.UnmarshalPayload(&payload))
	assert.Equal(t, int64(1500), payload.Amount)
}

func TestDecodeEnvelope(t *testing.T) {
	inner := `{"id":"e-1","topic":"payment.response","payload":{"sagaId":"s-1","amount":7},"timestamp":"2024-01-02T03:04:05Z"}`
	wrapped, err := json.Marshal(map[string]string{
		"Type":    "Notification",
		"Message": inner,
	})
	require.NoError(t, err)

	tests := []struct {
		name          string
		body          []byte
		expectedError string
		validate      func(*events.Event)
	}{
		{
			name: "raw delivery",
			body: []byte(inner),
			validate: func(e *events.Event) {
				assert.Equal(t, events.PaymentResponseTopic, e.Topic)
				assert.Equal(t, models.ID("e-1"), e.ID)
				assert.NotNil(t, e.Metadata)
				assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), e.Timestamp.UTC())
			},
		},
		{
			name: "sns notification wrapper",
			body: wrapped,
			validate: func(e *events.Event) {
				var payload testPayload
				require.NoError(t, e.UnmarshalPayload(&payload))
				assert.Equal(t, "s-1", payload.SagaID)
			},
		},
		{
			name:          "missing topic",
			body:          []byte(`{"id":"e-2","payload":{}}`),
			expectedError: "invalid topic",
		},
		{
			name:          "not json",
			body:          []byte("garbage"),
			expectedError: "failed to unmarshal envelope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeEnvelope(tt.body)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			tt.validate(event)
		})
	}
}
