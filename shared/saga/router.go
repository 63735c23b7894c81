package saga

import (
	"context"
	"sync"

	"github.com/draftea/order-saga/shared/events"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var _ events.EventHandler = (*TopicRouter)(nil)

type route struct {
	pattern  events.Topic
	metadata events.Metadata
	handler  events.EventHandler
}

// TopicRouter dispatches channel messages to the handlers registered for
// their topic. Patterns follow events.Topic.Matches; a route may also require
// metadata values.
type TopicRouter struct {
	mux    sync.RWMutex
	routes []route
	logger *zap.Logger
}

// NewTopicRouter creates an empty router
func NewTopicRouter(logger *zap.Logger) *TopicRouter {
	return &TopicRouter{logger: logger}
}

// Register adds a handler for every topic matching pattern
func (r *TopicRouter) Register(pattern events.Topic, handler events.EventHandler) {
	r.RegisterWhere(pattern, nil, handler)
}

// RegisterWhere adds a handler for events on pattern whose metadata carries
// every pair of metadata
func (r *TopicRouter) RegisterWhere(pattern events.Topic, metadata events.Metadata, handler events.EventHandler) {
	r.mux.Lock()
	defer r.mux.Unlock()

	r.routes = append(r.routes, route{pattern: pattern, metadata: metadata.Clone(), handler: handler})
}

// RegisterFunc registers a plain function as handler
func (r *TopicRouter) RegisterFunc(pattern events.Topic, fn func(ctx context.Context, event *events.Event) error) {
	r.Register(pattern, events.EventHandlerFunc(fn))
}

// Handle runs every matching handler in registration order. Unrouted topics
// are acknowledged; the first handler error is returned so the transport
// redelivers the message.
func (r *TopicRouter) Handle(ctx context.Context, event *events.Event) error {
	r.mux.RLock()
	routes := r.routes
	r.mux.RUnlock()

	var firstErr error
	matched := false

	for _, rt := range routes {
		if !event.Matches(rt.pattern, rt.metadata) {
			continue
		}
		matched = true

		if err := rt.handler.Handle(ctx, event); err != nil {
			r.logger.Error("handler failed",
				zap.String("topic", event.Topic.String()),
				zap.String("event_id", event.ID.String()),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "handling %s", event.Topic)
			}
		}
	}

	if !matched {
		r.logger.Debug("no handlers registered for event", zap.String("topic", event.Topic.String()))
	}

	return firstErr
}
