package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juanctr3/b2b/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSyncDeliversToAllHandlers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	var calls int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		}))
	}

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	sentinel := errors.New("handler broke")
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return sentinel }))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return nil }))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, sentinel) {
		t.Fatalf("PublishSync error = %v, want wrapped sentinel", err)
	}
}

func TestPublishSyncRecoversPanic(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { panic("boom") }))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err == nil {
		t.Fatal("expected panic to surface as error")
	}
}

func TestPublishSurvivesCanceledContext(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	done := make(chan struct{})
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, _ Event) error {
		if ctx.Err() != nil {
			t.Error("handler context should be detached from the publisher's")
		}
		close(done)
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler was never invoked")
	}
}

func TestPublishUnknownEventIsNoop(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("PublishSync on event without handlers: %v", err)
	}
}
