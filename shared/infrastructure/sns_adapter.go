package infrastructure

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/draftea/order-saga/shared/events"
	"go.uber.org/zap"
)

var _ events.Publisher = (*SNSPublisherAdapter)(nil)

// SNSPublisherAdapter builds the SNS client from an AWS config and exposes it
// as an events.Publisher
type SNSPublisherAdapter struct {
	snsPublisher *SNSEventPublisher
}

// NewSNSPublisherAdapter creates a new SNS publisher adapter. A non-empty
// endpoint overrides the service endpoint (LocalStack).
func NewSNSPublisherAdapter(cfg aws.Config, endpoint, topicArn string, logger *zap.Logger) *SNSPublisherAdapter {
	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &SNSPublisherAdapter{
		snsPublisher: NewSNSEventPublisher(client, topicArn, logger),
	}
}

// Publish implements events.Publisher interface
func (p *SNSPublisherAdapter) Publish(ctx context.Context, evts ...*events.Event) error {
	return p.snsPublisher.Publish(ctx, evts...)
}

// Close closes the publisher
func (p *SNSPublisherAdapter) Close() error {
	// SNS client doesn't need explicit closing
	return nil
}
