// internal/eventbus/bus_test.go
package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"tafiti-service/internal/domain/event"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := New(4, zap.NewNop())

	var first, second atomic.Int64
	bus.Subscribe(event.NameSurveyCompleted, "first", func(_ context.Context, _ event.Event) error {
		first.Add(1)
		return nil
	})
	bus.Subscribe(event.NameSurveyCompleted, "second", func(_ context.Context, _ event.Event) error {
		second.Add(1)
		return nil
	})

	for i := 0; i < 10; i++ {
		bus.Publish(event.SurveyCompleted{TenantID: 1, SurveyRef: "SRV-1"})
	}
	bus.Stop()

	assert.Equal(t, int64(10), first.Load())
	assert.Equal(t, int64(10), second.Load())
}

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	bus := New(1, zap.NewNop())
	bus.Publish(event.PaymentSucceeded{PaymentID: 1})
	bus.Stop()
}

func TestHandlerFailureDoesNotAffectOthers(t *testing.T) {
	bus := New(2, zap.NewNop())

	var delivered atomic.Int64
	bus.Subscribe(event.NameSurveyCompleted, "failing", func(_ context.Context, _ event.Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(event.NameSurveyCompleted, "healthy", func(_ context.Context, _ event.Event) error {
		delivered.Add(1)
		return nil
	})

	bus.Publish(event.SurveyCompleted{TenantID: 1})
	bus.Stop()

	assert.Equal(t, int64(1), delivered.Load())
}

func TestHandlerPanicIsContained(t *testing.T) {
	bus := New(2, zap.NewNop())

	var delivered atomic.Int64
	bus.Subscribe(event.NameSurveyCompleted, "panicking", func(_ context.Context, _ event.Event) error {
		panic("boom")
	})
	bus.Subscribe(event.NameSurveyCompleted, "healthy", func(_ context.Context, _ event.Event) error {
		delivered.Add(1)
		return nil
	})

	bus.Publish(event.SurveyCompleted{TenantID: 1})
	bus.Stop()

	assert.Equal(t, int64(1), delivered.Load())
}

func TestStopDrainsInFlightWork(t *testing.T) {
	bus := New(4, zap.NewNop())

	var mu sync.Mutex
	seen := 0
	bus.Subscribe(event.NameRewardDisbursed, "counter", func(_ context.Context, _ event.Event) error {
		mu.Lock()
		seen++
		mu.Unlock()
		return nil
	})

	const n = 200
	for i := 0; i < n; i++ {
		bus.Publish(event.RewardDisbursed{CampaignID: int64(i)})
	}
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, n, seen)
}

func TestPublishAfterStopIsDropped(t *testing.T) {
	bus := New(2, zap.NewNop())

	var delivered atomic.Int64
	bus.Subscribe(event.NamePaymentSucceeded, "counter", func(_ context.Context, _ event.Event) error {
		delivered.Add(1)
		return nil
	})
	bus.Stop()

	// Must not panic on the closed queue.
	bus.Publish(event.PaymentSucceeded{PaymentID: 1})

	assert.Equal(t, int64(0), delivered.Load())
}

func TestHandlerPublishingDuringStopDoesNotPanic(t *testing.T) {
	bus := New(2, zap.NewNop())

	bus.Subscribe(event.NameSurveyCompleted, "chained", func(_ context.Context, _ event.Event) error {
		// Follow-on publishes from a worker must never crash the pool,
		// even if Stop is draining concurrently.
		bus.Publish(event.PaymentSucceeded{PaymentID: 1})
		return nil
	})

	for i := 0; i < 50; i++ {
		bus.Publish(event.SurveyCompleted{TenantID: 1})
	}
	bus.Stop()
}
