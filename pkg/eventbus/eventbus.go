// Package eventbus carries trigger and lifecycle events between ingress,
// dispatcher and observers.
package eventbus

import (
	"context"

	"github.com/ringflow/ringflow/pkg/events"
)

// TriggerHandler consumes one inbound trigger event. Returning an error
// nacks the message for redelivery.
type TriggerHandler func(ctx context.Context, trigger *events.TriggerReceived) error

type EventBus interface {
	GenerateID() string

	// PublishTrigger puts an inbound trigger event on the trigger topic.
	PublishTrigger(ctx context.Context, trigger *events.TriggerReceived) error

	// Publish puts a workflow lifecycle event on the events topic.
	Publish(ctx context.Context, key string, event events.Event) error

	// SubscribeTriggers starts consuming the trigger topic until ctx ends.
	SubscribeTriggers(ctx context.Context, handler TriggerHandler) error

	Close() error
}
