package eventbus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringflow/ringflow/pkg/channels/gochannel"
	"github.com/ringflow/ringflow/pkg/events"
)

func newTestEventBus(t *testing.T) *WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishTriggerRoundTrip(t *testing.T) {
	bus := newTestEventBus(t)

	received := make(chan *events.TriggerReceived, 1)
	err := bus.SubscribeTriggers(t.Context(), func(_ context.Context, trigger *events.TriggerReceived) error {
		received <- trigger

		return nil
	})
	require.NoError(t, err)

	trigger := &events.TriggerReceived{
		BaseEvent:   events.NewBaseEvent(events.TriggerReceivedEvent, ""),
		UserID:      "user-1",
		AssistantID: "asst-1",
		Event:       "call_ended",
		Payload:     map[string]any{"outcome": "booked"},
	}

	require.NoError(t, bus.PublishTrigger(t.Context(), trigger))

	select {
	case got := <-received:
		assert.Equal(t, trigger.ID, got.ID)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "asst-1", got.AssistantID)
		assert.Equal(t, "call_ended", got.Event)
		assert.Equal(t, map[string]any{"outcome": "booked"}, got.Payload)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for trigger")
	}
}

func TestSubscribeTriggersRedeliversOnHandlerError(t *testing.T) {
	bus := newTestEventBus(t)

	attempts := make(chan int, 8)
	var count int

	err := bus.SubscribeTriggers(t.Context(), func(_ context.Context, _ *events.TriggerReceived) error {
		count++
		attempts <- count

		if count == 1 {
			return fmt.Errorf("transient failure")
		}

		return nil
	})
	require.NoError(t, err)

	trigger := &events.TriggerReceived{
		BaseEvent: events.NewBaseEvent(events.TriggerReceivedEvent, ""),
		UserID:    "user-1",
		Event:     "call_ended",
	}

	require.NoError(t, bus.PublishTrigger(t.Context(), trigger))

	deadline := time.After(5 * time.Second)

	for {
		select {
		case attempt := <-attempts:
			if attempt >= 2 {
				return
			}
		case <-deadline:
			t.Fatal("trigger was not redelivered after nack")
		}
	}
}

func TestGenerateIDUnique(t *testing.T) {
	bus := newTestEventBus(t)

	a := bus.GenerateID()
	b := bus.GenerateID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
