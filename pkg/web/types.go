package web

import "github.com/ringflow/ringflow/pkg/models"

// CreateWorkflowRequest is the payload for creating workflows via the API.
type CreateWorkflowRequest struct {
	Name        string         `json:"name"         validate:"required,min=1,max=255"`
	UserID      string         `json:"user_id"      validate:"required"`
	AssistantID string         `json:"assistant_id"`
	Nodes       []*models.Node `json:"nodes"`
	Edges       []*models.Edge `json:"edges"`
}

// UpdateWorkflowRequest is the payload for partial workflow updates.
type UpdateWorkflowRequest struct {
	Name   *string                `json:"name"   validate:"omitempty,min=1,max=255"`
	Status *models.WorkflowStatus `json:"status" validate:"omitempty,oneof=draft active inactive"`
	Nodes  []*models.Node         `json:"nodes"`
	Edges  []*models.Edge         `json:"edges"`
}

// TriggerRequest fires a trigger event at a user's workflows.
type TriggerRequest struct {
	UserID      string         `json:"user_id"      validate:"required"`
	AssistantID string         `json:"assistant_id"`
	Event       string         `json:"event"        validate:"required"`
	Payload     map[string]any `json:"payload"`
}
