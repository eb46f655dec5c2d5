package models

// ExecutionContext is the mutable state of one workflow execution. Data is
// seeded from the trigger payload and mutated in place by effect handlers
// (an HTTP node merges its JSON response back, for example). A context is
// owned by exactly one execution and is never shared or persisted.
type ExecutionContext struct {
	ID          string         `json:"id"`
	WorkflowID  string         `json:"workflow_id"`
	Event       string         `json:"event"`
	UserID      string         `json:"user_id"`
	AssistantID string         `json:"assistant_id,omitempty"`
	Data        map[string]any `json:"data"`
}

// NewExecutionContext seeds a fresh context for one trigger. The payload is
// spread into Data alongside the event, user and assistant identifiers, so
// interpolation sees one nested view.
func NewExecutionContext(executionID, workflowID, userID, assistantID, event string, payload map[string]any) *ExecutionContext {
	data := make(map[string]any, len(payload)+4)
	for k, v := range payload {
		data[k] = v
	}

	data["event"] = event
	data["userId"] = userID
	data["assistantId"] = assistantID

	if _, ok := data["outcome"]; !ok {
		data["outcome"] = ""
	}

	return &ExecutionContext{
		ID:          executionID,
		WorkflowID:  workflowID,
		Event:       event,
		UserID:      userID,
		AssistantID: assistantID,
		Data:        data,
	}
}

// Outcome returns the call outcome as a string, empty when unset.
func (c *ExecutionContext) Outcome() string {
	if s, ok := c.Data["outcome"].(string); ok {
		return s
	}

	return ""
}
