// internal/eventbus/bus.go
package eventbus

import (
	"context"
	"sync"

	"tafiti-service/internal/domain/event"
	"tafiti-service/internal/metrics"

	"go.uber.org/zap"
)

// HandlerFunc consumes one domain event. Handler failures are logged
// and never propagate to the publisher.
type HandlerFunc func(ctx context.Context, evt event.Event) error

type subscription struct {
	name string
	fn   HandlerFunc
}

type job struct {
	sub subscription
	evt event.Event
}

// Bus is the in-process domain event bus. Publish is fire-and-forget:
// events are fanned out to registered handlers on a fixed worker pool,
// and one handler's failure or panic never affects the publisher or
// other handlers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	closed   bool

	jobs   chan job
	wg     sync.WaitGroup
	logger *zap.Logger

	closeOnce sync.Once
}

func New(workers int, logger *zap.Logger) *Bus {
	if workers < 1 {
		workers = 1
	}
	b := &Bus{
		handlers: make(map[string][]subscription),
		jobs:     make(chan job, 1024),
		logger:   logger,
	}
	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			for j := range b.jobs {
				b.dispatch(j)
			}
		}()
	}
	return b
}

// Subscribe registers a named handler for an event name. Registration
// order is delivery order within one event.
func (b *Bus) Subscribe(eventName, handlerName string, fn HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], subscription{name: handlerName, fn: fn})
}

// Publish enqueues the event for every registered handler and returns
// immediately. Events with no subscribers are dropped silently, as are
// events published after Stop. The enqueue never blocks: workers
// publish follow-on events into the same queue, so a blocking send on a
// full queue could deadlock the pool.
func (b *Bus) Publish(evt event.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.Warn("event published after bus stop, dropped",
			zap.String("event", evt.Name()))
		return
	}

	for _, sub := range b.handlers[evt.Name()] {
		select {
		case b.jobs <- job{sub: sub, evt: evt}:
			metrics.EventQueueDepth.Inc()
		default:
			b.logger.Error("event queue full, dropping",
				zap.String("event", evt.Name()),
				zap.String("handler", sub.name),
			)
		}
	}
}

// Stop closes the queue and waits for in-flight handlers to drain.
// Publishes racing or following Stop are dropped, not panicked on.
func (b *Bus) Stop() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		close(b.jobs)
	})
	b.wg.Wait()
}

func (b *Bus) dispatch(j job) {
	defer metrics.EventQueueDepth.Dec()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked",
				zap.String("event", j.evt.Name()),
				zap.String("handler", j.sub.name),
				zap.Any("panic", r),
			)
		}
	}()

	// Handlers run detached from the publisher's request context.
	if err := j.sub.fn(context.Background(), j.evt); err != nil {
		b.logger.Error("event handler failed",
			zap.String("event", j.evt.Name()),
			zap.String("handler", j.sub.name),
			zap.Error(err),
		)
	}
}
