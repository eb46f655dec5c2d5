package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ringflow/ringflow/pkg/events"
)

// WatermillEventBus adapts a watermill publisher/subscriber pair to the
// EventBus interface. The pair may be Kafka-backed or an in-memory
// gochannel (see pkg/channels).
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) PublishTrigger(_ context.Context, trigger *events.TriggerReceived) error {
	payload, err := json.Marshal(trigger)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger event: %w", err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, trigger.ID)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(trigger.GetType()))

	return eb.publisher.Publish(events.TriggerTopic, msg)
}

func (eb *WatermillEventBus) Publish(_ context.Context, key string, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

func (eb *WatermillEventBus) SubscribeTriggers(ctx context.Context, handler TriggerHandler) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.TriggerTopic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to trigger topic: %w", err)
	}

	go func() {
		for msg := range messages {
			trigger := &events.TriggerReceived{}

			err := json.Unmarshal(msg.Payload, trigger)
			if err != nil {
				// Poison message, drop it.
				msg.Ack()

				continue
			}

			err = handler(msg.Context(), trigger)
			if err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return fmt.Errorf("failed to close publisher: %w", err)
	}

	err = eb.subscriber.Close()
	if err != nil {
		return fmt.Errorf("failed to close subscriber: %w", err)
	}

	return nil
}
