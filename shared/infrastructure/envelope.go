package infrastructure

import (
	"encoding/json"
	"time"

	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
	"github.com/pkg/errors"
)

const (
	SQSMessageIDKey     = "sqs_message_id"
	SQSReceiptHandleKey = "sqs_receipt_handle"
	topicAttribute      = "topic"
)

// envelope is the wire form of an event on SNS/SQS
type envelope struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Metadata      events.Metadata `json:"metadata"`
	Topic         string          `json:"topic"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
}

// snsNotification is the wrapper SNS adds when raw message delivery is off
type snsNotification struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// EncodeEnvelope renders an event as the JSON body published to the channel
func EncodeEnvelope(event *events.Event) ([]byte, error) {
	payload, err := event.MarshalPayload()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}

	metadata := event.Metadata.Clone()
	delete(metadata, SQSMessageIDKey)
	delete(metadata, SQSReceiptHandleKey)

	return json.Marshal(&envelope{
		ID:            event.ID.String(),
		AggregateID:   event.AggregateID.String(),
		CorrelationID: event.CorrelationID.String(),
		Metadata:      metadata,
		Topic:         event.Topic.String(),
		Payload:       payload,
		Timestamp:     event.Timestamp,
	})
}

// DecodeEnvelope parses a message body into an event. The payload stays raw
// JSON until a handler unmarshals it into its own type.
func DecodeEnvelope(body []byte) (*events.Event, error) {
	var notification snsNotification
	if err := json.Unmarshal(body, &notification); err == nil && notification.Type == "Notification" && notification.Message != "" {
		body = []byte(notification.Message)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal envelope")
	}

	topic, err := events.NewTopic(env.Topic)
	if err != nil {
		return nil, err
	}

	metadata := env.Metadata
	if metadata == nil {
		metadata = make(events.Metadata)
	}

	return &events.Event{
		ID:            models.ID(env.ID),
		AggregateID:   models.ID(env.AggregateID),
		CorrelationID: models.ID(env.CorrelationID),
		Topic:         topic,
		Version:       "1.0",
		Data:          env.Payload,
		Metadata:      metadata,
		Timestamp:     env.Timestamp,
	}, nil
}
