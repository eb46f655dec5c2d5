package models

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Typed views over Node.Data, one per node type. Node payloads arrive as
// free-form JSON from the graph editor; these are decoded at the load
// boundary so the engine and handlers never poke at raw maps.

// TriggerConfig configures a trigger node. Older editors wrote the event
// name under trigger_type, and the very first ones wrote neither.
type TriggerConfig struct {
	Event       string `json:"event,omitempty"        mapstructure:"event"`
	TriggerType string `json:"trigger_type,omitempty" mapstructure:"trigger_type"`
}

// ConditionConfig configures a condition node.
type ConditionConfig struct {
	Conditions []Condition    `json:"conditions" mapstructure:"conditions"`
	Logic      ConditionLogic `json:"logic"      mapstructure:"logic"`
}

// RouterConfig configures a router node: an ordered list of first-match-wins
// branches, desugared into chained condition nodes before execution.
type RouterConfig struct {
	Branches []RouterBranch `json:"branches" mapstructure:"branches"`
}

// MessagingConfig configures an SMS action node. To and Message are
// interpolation templates; From overrides the resolved sender number.
type MessagingConfig struct {
	Message string `json:"message" mapstructure:"message"`
	To      string `json:"to,omitempty"   mapstructure:"to"`
	From    string `json:"from,omitempty" mapstructure:"from"`
}

// HTTPConfig configures a generic outbound HTTP call node. Every field is an
// interpolation template.
type HTTPConfig struct {
	Method  string            `json:"method"  mapstructure:"method"`
	URL     string            `json:"url"     mapstructure:"url"`
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers"`
	Body    string            `json:"body,omitempty"    mapstructure:"body"`
}

// CRMConfig configures a CRM action node. ActionID selects the operation.
type CRMConfig struct {
	ActionID     string            `json:"actionId"     mapstructure:"actionId"`
	ConnectionID string            `json:"connectionId" mapstructure:"connectionId"`
	ContactID    string            `json:"contactId,omitempty" mapstructure:"contactId"`
	Fields       map[string]string `json:"fields,omitempty"     mapstructure:"fields"`
	Note         string            `json:"note,omitempty"       mapstructure:"note"`
	Tag          string            `json:"tag,omitempty"        mapstructure:"tag"`
}

// VoiceCallConfig configures a voice-call initiation node.
type VoiceCallConfig struct {
	To string `json:"to,omitempty" mapstructure:"to"`
}

// ChatConfig configures a chat-webhook post node. WebhookURL falls back to
// the user's stored chat credential when empty.
type ChatConfig struct {
	WebhookURL string `json:"webhook_url,omitempty" mapstructure:"webhook_url"`
	Text       string `json:"text" mapstructure:"text"`
}

// DecodeConfig decodes a node data map into one of the typed configs above.
// Input is weakly typed since the editor serializes numbers and booleans
// inconsistently.
func DecodeConfig(data map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to build node config decoder: %w", err)
	}

	err = decoder.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode node config: %w", err)
	}

	return nil
}
