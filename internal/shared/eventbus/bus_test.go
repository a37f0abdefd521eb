package eventbus

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DummyEvent implements Event for testing
type DummyEvent struct {
	typeStr   string
	data      interface{}
	timestamp time.Time
	source    string
}

func (e *DummyEvent) Type() string         { return e.typeStr }
func (e *DummyEvent) Data() interface{}    { return e.data }
func (e *DummyEvent) Timestamp() time.Time { return e.timestamp }
func (e *DummyEvent) Source() string       { return e.source }

func TestEventBus_SubscribePublish(t *testing.T) {
	bus := NewEventBus(nil)
	var called bool
	bus.Subscribe("test", func(ctx context.Context, event Event) error {
		called = true
		assert.Equal(t, "test", event.Type())
		return nil
	})
	err := bus.Publish(context.Background(), &DummyEvent{typeStr: "test", timestamp: time.Now()})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestEventBus_AsyncPublish(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{AsyncProcessing: true})
	ch := make(chan struct{}, 1)
	bus.Subscribe("async", func(ctx context.Context, event Event) error {
		ch <- struct{}{}
		return nil
	})
	_ = bus.Publish(context.Background(), &DummyEvent{typeStr: "async", timestamp: time.Now()})
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for async event")
	}
}

func TestEventBus_UnsubscribeSingleHandler(t *testing.T) {
	bus := NewEventBus(nil)
	var first, second int32
	subA := bus.Subscribe("ev", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&first, 1)
		return nil
	})
	bus.Subscribe("ev", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&second, 1)
		return nil
	})
	require.Equal(t, 2, bus.GetSubscriberCount("ev"))

	bus.Unsubscribe(subA)
	bus.Unsubscribe(subA)
	assert.Equal(t, 1, bus.GetSubscriberCount("ev"))

	require.NoError(t, bus.Publish(context.Background(), NewBasicEvent("ev", nil)))
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
	assert.Equal(t, int32(1), atomic.LoadInt32(&second))
}

func TestEventBus_SyncRunsAllHandlersAndReturnsFirstError(t *testing.T) {
	bus := NewEventBus(nil)
	boom := errors.New("boom")
	var ran int32
	bus.Subscribe("ev", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&ran, 1)
		return boom
	})
	bus.Subscribe("ev", func(ctx context.Context, event Event) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	err := bus.Publish(context.Background(), NewBasicEvent("ev", nil))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), atomic.LoadInt32(&ran))
}

func TestEventBus_Retries(t *testing.T) {
	bus := NewEventBusWithConfig(nil, BusConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	var attempts int32
	bus.Subscribe("ev", func(ctx context.Context, event Event) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, bus.Publish(context.Background(), NewBasicEvent("ev", nil)))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestBasicEvent(t *testing.T) {
	ev := NewBasicEventWithSource(EventTypeRecordSaved, "user", "form")
	assert.Equal(t, EventTypeRecordSaved, ev.Type())
	assert.Equal(t, "user", ev.Data())
	assert.Equal(t, "form", ev.Source())
	assert.WithinDuration(t, time.Now(), ev.Timestamp(), time.Second)
	assert.Equal(t, "unknown", NewBasicEvent("x", nil).Source())
}
