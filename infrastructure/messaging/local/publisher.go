// Package local provides an in-process event publisher for development and
// the memory storage backend. Events are logged and handed to subscribers
// synchronously.
package local

import (
	"context"
	"sync"

	"focuslink/domain/events"

	"go.uber.org/zap"
)

// Handler consumes a published event
type Handler func(ctx context.Context, event events.DomainEvent) error

// Publisher implements ports.EventPublisher without a broker
type Publisher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewPublisher creates a publisher with no subscribers
func NewPublisher(logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{handlers: make(map[string][]Handler), logger: logger}
}

// Subscribe registers h for eventType
func (p *Publisher) Subscribe(eventType string, h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = append(p.handlers[eventType], h)
}

func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.logger.Debug("Event published",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
	)

	p.mu.RLock()
	handlers := append([]Handler(nil), p.handlers[event.GetEventType()]...)
	p.mu.RUnlock()

	// A failing subscriber must not fail the write that raised the event
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			p.logger.Error("Event handler failed",
				zap.Error(err),
				zap.String("eventType", event.GetEventType()),
			)
		}
	}
	return nil
}

func (p *Publisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
