package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus implements EventBus with in-memory pub/sub.
// Without a queue it dispatches synchronously on Publish; with one,
// Start spins up workers that drain the queue in the background.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
	wg       sync.WaitGroup

	mu      sync.RWMutex
	queue   chan shared.DomainEvent
	workers int
}

// NewInMemoryEventBus creates a synchronous in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// NewInMemoryEventBusWithConfig creates a bus that dispatches events
// asynchronously through a buffered queue drained by worker goroutines
func NewInMemoryEventBusWithConfig(logger *zap.Logger, bufferSize, workers int) *InMemoryEventBus {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if workers <= 0 {
		workers = 1
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
		queue:    make(chan shared.DomainEvent, bufferSize),
		workers:  workers,
	}
}

// Publish publishes events to all registered handlers. Async buses
// enqueue; a full queue falls back to inline delivery so events are
// never dropped.
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		if !b.enqueue(event) {
			b.deliver(ctx, event)
		}
	}
	return nil
}

func (b *InMemoryEventBus) enqueue(event shared.DomainEvent) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.queue == nil || !b.running.Load() {
		return false
	}
	select {
	case b.queue <- event:
		return true
	default:
		return false
	}
}

func (b *InMemoryEventBus) deliver(ctx context.Context, event shared.DomainEvent) {
	handlers := b.registry.GetHandlers(event.EventType())

	for _, handler := range handlers {
		if err := b.dispatchToHandler(ctx, handler, event); err != nil {
			// Log error but continue with other handlers
			b.logger.Error("handler failed to process event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// Subscribe registers a handler for specific event types
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	// If handler specifies its own event types, use those
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed",
		zap.Strings("event_types", eventTypes),
	)
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
	b.logger.Debug("handler unsubscribed")
}

// Start starts the event bus and its workers
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	if b.queue != nil {
		for i := 0; i < b.workers; i++ {
			b.wg.Add(1)
			go b.work()
		}
	}
	b.logger.Info("event bus started", zap.Int("workers", b.workers))
	return nil
}

func (b *InMemoryEventBus) work() {
	defer b.wg.Done()
	for event := range b.queue {
		b.deliver(context.Background(), event)
	}
}

// Stop stops the event bus gracefully, draining any queued events
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.mu.Lock()
	if b.queue != nil {
		close(b.queue)
		b.queue = nil
	}
	b.mu.Unlock()
	b.wg.Wait()
	b.logger.Info("event bus stopped")
	return nil
}

// dispatchToHandler safely dispatches an event to a handler
func (b *InMemoryEventBus) dispatchToHandler(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("event_type", event.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	return handler.Handle(ctx, event)
}

// Ensure InMemoryEventBus implements EventBus
var _ shared.EventBus = (*InMemoryEventBus)(nil)
