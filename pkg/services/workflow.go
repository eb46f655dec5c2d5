package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/registry"
	"github.com/ringflow/ringflow/pkg/workflow"
	"github.com/xeipuuv/gojsonschema"
)

// Workflow is the service layer over the workflow repository. It owns graph
// validation: structural checks on every save, plus the activation gate that
// keeps trigger-less workflows out of the dispatcher.
type Workflow struct {
	repository *workflow.Repository
	registry   *registry.Registry
}

func NewWorkflow(repository *workflow.Repository, registry *registry.Registry) *Workflow {
	return &Workflow{
		repository: repository,
		registry:   registry,
	}
}

func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	return w.repository.HealthCheck(ctx)
}

func (w *Workflow) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	return w.repository.FetchAll(ctx)
}

func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.repository.FetchByID(ctx, id)
}

func (w *Workflow) Create(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	err := w.validateGraph(wf)
	if err != nil {
		return nil, err
	}

	return w.repository.Create(ctx, wf)
}

func (w *Workflow) Update(ctx context.Context, id string, wf *models.Workflow) (*models.Workflow, error) {
	err := w.validateGraph(wf)
	if err != nil {
		return nil, err
	}

	if wf.Runnable() && !hasEntryNode(wf) {
		return nil, ErrTriggerNodeRequired
	}

	return w.repository.Update(ctx, id, wf)
}

func (w *Workflow) Delete(ctx context.Context, id string) error {
	return w.repository.Delete(ctx, id)
}

// Activate flips a workflow to active after checking it can actually start.
func (w *Workflow) Activate(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := w.repository.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if wf == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	if !hasEntryNode(wf) {
		return nil, ErrTriggerNodeRequired
	}

	wf.Status = models.WorkflowStatusActive

	return w.repository.Update(ctx, id, wf)
}

func (w *Workflow) Deactivate(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := w.repository.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if wf == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	wf.Status = models.WorkflowStatusInactive
	wf.IsActive = false

	return w.repository.Update(ctx, id, wf)
}

func (w *Workflow) validateGraph(wf *models.Workflow) error {
	if wf == nil {
		return ErrWorkflowNil
	}

	if wf.Name == "" {
		return ErrWorkflowNameRequired
	}

	if wf.UserID == "" {
		return ErrUserIDRequired
	}

	seen := make(map[string]bool, len(wf.Nodes))

	for _, node := range wf.Nodes {
		if seen[node.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, node.ID)
		}

		seen[node.ID] = true

		err := w.validateNode(node)
		if err != nil {
			return err
		}
	}

	for _, edge := range wf.Edges {
		if !seen[edge.Source] {
			return fmt.Errorf("%w: edge %s source %s", ErrEdgeEndpointUnknown, edge.ID, edge.Source)
		}

		if !seen[edge.Target] {
			return fmt.Errorf("%w: edge %s target %s", ErrEdgeEndpointUnknown, edge.ID, edge.Target)
		}
	}

	return nil
}

// validateNode checks a node's data against the handler schema when the node
// type has a registered handler. Engine-internal node types get structural
// checks instead.
func (w *Workflow) validateNode(node *models.Node) error {
	if node.Type == models.NodeTypeRouter {
		var cfg models.RouterConfig

		err := models.DecodeConfig(node.Data, &cfg)
		if err != nil {
			return fmt.Errorf("%w: router %s: %v", ErrInvalidRequest, node.ID, err)
		}

		for _, branch := range cfg.Branches {
			if branch.Condition.Variable == "" {
				return fmt.Errorf("%w: router %s branch %s", ErrRouterBranchInvalid, node.ID, branch.ID)
			}
		}

		return nil
	}

	if !w.registry.IsRegistered(string(node.Type)) {
		return nil
	}

	factory, err := w.registry.Factory(string(node.Type))
	if err != nil {
		return nil
	}

	schemaJSON, err := json.Marshal(factory.Schema())
	if err != nil {
		return fmt.Errorf("failed to marshal schema for %s: %w", node.Type, err)
	}

	dataJSON, err := json.Marshal(node.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal node %s data: %w", node.ID, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to validate node %s: %w", node.ID, err)
	}

	if !result.Valid() {
		detail := ""
		for _, desc := range result.Errors() {
			detail += desc.String() + "; "
		}

		return fmt.Errorf("%w: node %s: %s", ErrNodeSchemaInvalid, node.ID, detail)
	}

	return nil
}

func hasEntryNode(wf *models.Workflow) bool {
	for _, node := range wf.Nodes {
		if node.IsTrigger() {
			return true
		}
	}

	return false
}
