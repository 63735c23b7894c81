package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/draftea/order-saga/shared/events"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var _ events.Subscriber = (*SQSSubscriberAdapter)(nil)

// SQSSubscriberAdapter adapts SQSEventSubscriber to the events.Subscriber interface
type SQSSubscriberAdapter struct {
	mux           sync.Mutex
	client        SQSAPI
	queueURL      string
	logger        *zap.Logger
	options       []SQSSubscriberOption
	sqsSubscriber *SQSEventSubscriber
}

// NewSQSSubscriberAdapter creates a new SQS subscriber adapter. A non-empty
// endpoint overrides the service endpoint (LocalStack).
func NewSQSSubscriberAdapter(
	cfg aws.Config,
	endpoint string,
	queueURL string,
	logger *zap.Logger,
	opts ...SQSSubscriberOption,
) *SQSSubscriberAdapter {
	client := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return newSQSSubscriberAdapter(client, queueURL, logger, opts...)
}

func newSQSSubscriberAdapter(client SQSAPI, queueURL string, logger *zap.Logger, opts ...SQSSubscriberOption) *SQSSubscriberAdapter {
	return &SQSSubscriberAdapter{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
		options:  opts,
	}
}

// Subscribe starts consuming the queue with the given handler. It returns
// once the workers are running.
func (s *SQSSubscriberAdapter) Subscribe(ctx context.Context, handler events.EventHandler) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.sqsSubscriber != nil {
		return errors.New("subscriber is already running")
	}

	subscriber := NewSQSEventSubscriber(s.client, s.queueURL, handler, s.logger, s.options...)
	if err := subscriber.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start SQS subscriber")
	}

	s.sqsSubscriber = subscriber
	return nil
}

// Close stops the subscriber
func (s *SQSSubscriberAdapter) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if s.sqsSubscriber == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.sqsSubscriber.Stop(ctx); err != nil {
		return errors.Wrap(err, "failed to stop SQS subscriber")
	}

	s.sqsSubscriber = nil
	return nil
}
