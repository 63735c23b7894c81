package infrastructure

import (
	"context"
	"sync"

	"github.com/draftea/order-saga/shared/events"
	"go.uber.org/zap"
)

var (
	_ events.Publisher  = (*MemoryBus)(nil)
	_ events.Subscriber = (*MemoryBus)(nil)
)

// MemoryBus is an in-process channel. Published events go through the same
// envelope encoding as SNS, are recorded, and are delivered asynchronously to
// every subscribed handler.
type MemoryBus struct {
	mux       sync.RWMutex
	wg        sync.WaitGroup
	published []*events.Event
	handlers  []events.EventHandler
	failures  []error
	logger    *zap.Logger
}

// NewMemoryBus creates an empty bus
func NewMemoryBus(logger *zap.Logger) *MemoryBus {
	return &MemoryBus{logger: logger}
}

// Publish implements events.Publisher
func (b *MemoryBus) Publish(ctx context.Context, evts ...*events.Event) error {
	b.mux.Lock()
	if len(b.failures) > 0 {
		err := b.failures[0]
		b.failures = b.failures[1:]
		b.mux.Unlock()
		return err
	}

	wire := make([]*events.Event, 0, len(evts))
	for _, event := range evts {
		body, err := EncodeEnvelope(event)
		if err != nil {
			b.mux.Unlock()
			return err
		}

		decoded, err := DecodeEnvelope(body)
		if err != nil {
			b.mux.Unlock()
			return err
		}
		wire = append(wire, decoded)
	}

	b.published = append(b.published, wire...)
	handlers := append([]events.EventHandler(nil), b.handlers...)
	b.mux.Unlock()

	deliveryCtx := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		for _, event := range wire {
			b.wg.Add(1)
			go func(h events.EventHandler, e *events.Event) {
				defer b.wg.Done()
				if err := h.Handle(deliveryCtx, e); err != nil {
					b.logger.Warn("memory bus handler failed",
						zap.String("topic", e.Topic.String()),
						zap.Error(err),
					)
				}
			}(handler, event)
		}
	}

	return nil
}

// Subscribe implements events.Subscriber
func (b *MemoryBus) Subscribe(_ context.Context, handler events.EventHandler) error {
	b.mux.Lock()
	defer b.mux.Unlock()

	b.handlers = append(b.handlers, handler)
	return nil
}

// FailNext makes the next publish calls return the given errors, one per call
func (b *MemoryBus) FailNext(errs ...error) {
	b.mux.Lock()
	defer b.mux.Unlock()

	b.failures = append(b.failures, errs...)
}

// Published returns every event accepted so far, in publish order
func (b *MemoryBus) Published() []*events.Event {
	b.mux.RLock()
	defer b.mux.RUnlock()

	return append([]*events.Event(nil), b.published...)
}

// ByTopic returns the accepted events on one topic, in publish order
func (b *MemoryBus) ByTopic(topic events.Topic) []*events.Event {
	b.mux.RLock()
	defer b.mux.RUnlock()

	var out []*events.Event
	for _, event := range b.published {
		if event.Topic == topic {
			out = append(out, event)
		}
	}
	return out
}

// Reset forgets recorded events and pending failures
func (b *MemoryBus) Reset() {
	b.mux.Lock()
	defer b.mux.Unlock()

	b.published = nil
	b.failures = nil
}

// Close waits for in-flight deliveries
func (b *MemoryBus) Close() error {
	b.wg.Wait()
	return nil
}
