package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence"
)

// Repository mediates workflow access on top of the persistence layer,
// owning id assignment, timestamps and status defaults.
type Repository struct {
	persistence persistence.Persistence
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{
		persistence: persistence,
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

func (r *Repository) FetchAll(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := r.persistence.Workflows(ctx)
	if err != nil {
		return make([]*models.Workflow, 0), err
	}

	return workflows, nil
}

func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	return workflow, nil
}

func (r *Repository) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	now := time.Now()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.Status == "" {
		workflow.Status = models.WorkflowStatusDraft
	}

	err := r.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Update(ctx context.Context, id string, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	workflow.ID = id
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now()

	err = r.persistence.SaveWorkflow(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	existing, err := r.persistence.WorkflowByID(ctx, id)
	if err != nil {
		return err
	}

	if existing == nil {
		return persistence.ErrWorkflowNotFound
	}

	return r.persistence.DeleteWorkflow(ctx, id)
}

// FetchRunnableByAssistant returns the workflows the dispatcher should
// consider for a trigger aimed at one assistant. Filtering by assistant is
// done in persistence; the active check is repeated here because legacy rows
// may carry is_active without a status.
func (r *Repository) FetchRunnableByAssistant(ctx context.Context, assistantID string) ([]*models.Workflow, error) {
	workflows, err := r.persistence.WorkflowsByAssistant(ctx, assistantID)
	if err != nil {
		return nil, err
	}

	runnable := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if workflow.Runnable() {
			runnable = append(runnable, workflow)
		}
	}

	return runnable, nil
}

// FetchRunnableByUser is the dispatch path for triggers that carry no
// assistant id.
func (r *Repository) FetchRunnableByUser(ctx context.Context, userID string) ([]*models.Workflow, error) {
	workflows, err := r.persistence.WorkflowsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	runnable := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if workflow.Runnable() {
			runnable = append(runnable, workflow)
		}
	}

	return runnable, nil
}
