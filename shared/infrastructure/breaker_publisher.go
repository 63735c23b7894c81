package infrastructure

import (
	"context"
	"time"

	"github.com/draftea/order-saga/shared/events"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var _ events.Publisher = (*BreakerPublisher)(nil)

// ErrPublisherUnavailable is returned while the breaker is open
var ErrPublisherUnavailable = errors.New("publisher unavailable")

// BreakerConfig holds configuration for the publish circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the default breaker configuration
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerPublisher fails fast once the underlying channel keeps rejecting
// publishes, so dispatch errors surface immediately instead of after a
// full transport timeout.
type BreakerPublisher struct {
	next    events.Publisher
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerPublisher wraps next with a circuit breaker
func NewBreakerPublisher(next events.Publisher, config BreakerConfig, logger *zap.Logger) *BreakerPublisher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("publish circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BreakerPublisher{
		next:    next,
		breaker: cb,
	}
}

// Publish forwards to the wrapped publisher through the breaker
func (p *BreakerPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.next.Publish(ctx, evts...)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return errors.Wrap(ErrPublisherUnavailable, err.Error())
	default:
		return err
	}
}

// State reports the breaker state
func (p *BreakerPublisher) State() gobreaker.State {
	return p.breaker.State()
}
