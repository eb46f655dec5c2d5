// Package events defines the event types flowing through the trigger and
// workflow lifecycle topics.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Kafka topics.
const TriggerTopic = "ringflow.triggers" // Inbound trigger events awaiting dispatch
const Topic = "ringflow.events"          // Workflow lifecycle events

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	TriggerReceivedEvent EventType = "trigger.received"

	WorkflowTriggeredEvent EventType = "workflow.triggered"
	WorkflowFinishedEvent  EventType = "workflow.finished"
	WorkflowFailedEvent    EventType = "workflow.failed"
	NodeFailedEvent        EventType = "node.failed"
)

// Event is implemented by every payload published on the bus.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// TriggerReceived is published by ingress (webhook receivers, the REST
// trigger endpoint, the trigger CLI) and consumed by the dispatcher. Its ID
// is the deduplication key: each trigger is attempted exactly once.
type TriggerReceived struct {
	BaseEvent

	UserID      string         `json:"user_id"`
	AssistantID string         `json:"assistant_id,omitempty"`
	Event       string         `json:"event"`
	Payload     map[string]any `json:"payload,omitempty"`
}

func (t TriggerReceived) GetType() EventType {
	return TriggerReceivedEvent
}

type WorkflowTriggered struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	Event       string         `json:"event"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type WorkflowFinished struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	Duration    time.Duration `json:"duration"`
}

func (w WorkflowFinished) GetType() EventType {
	return WorkflowFinishedEvent
}

type WorkflowFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	Error       string `json:"error"`
}

func (w WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

// NodeFailed records a handler failure that terminated one branch. Sibling
// branches of the same execution are unaffected.
type NodeFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	NodeID      string `json:"node_id"`
	NodeType    string `json:"node_type"`
	Error       string `json:"error"`
}

func (n NodeFailed) GetType() EventType {
	return NodeFailedEvent
}
