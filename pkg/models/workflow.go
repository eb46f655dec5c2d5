// Package models defines the core domain models for graph-based workflow automation.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusDraft    WorkflowStatus = "draft"    // Editable, not executable
	WorkflowStatusActive   WorkflowStatus = "active"   // Executable
	WorkflowStatusInactive WorkflowStatus = "inactive" // Disabled by the owner
)

// Workflow is a node/edge graph owned by a user, optionally bound to one
// assistant. The engine treats it as read-only; editing happens elsewhere.
type Workflow struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"      validate:"required"`
	AssistantID string         `json:"assistant_id,omitempty"`
	Name        string         `json:"name"         validate:"required,min=1"`
	Status      WorkflowStatus `json:"status"`
	IsActive    bool           `json:"is_active,omitempty"` // Legacy alias for Status == active
	Nodes       []*Node        `json:"nodes"`
	Edges       []*Edge        `json:"edges"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

// Runnable reports whether the workflow may be executed. Workflows created
// before the status field existed carry only the legacy is_active flag.
func (w *Workflow) Runnable() bool {
	return w.Status == WorkflowStatusActive || w.IsActive
}

// NodeByID returns the node with the given id, or nil.
func (w *Workflow) NodeByID(id string) *Node {
	for _, node := range w.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}
