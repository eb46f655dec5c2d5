package services

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringflow/ringflow/pkg/cmd"
	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/persistence/file"
	"github.com/ringflow/ringflow/pkg/workflow"
)

func newTestService(t *testing.T) *Workflow {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	p := file.NewPersistence(t.TempDir())

	return NewWorkflow(workflow.NewRepository(p), cmd.NewRegistry(logger, p))
}

func validWorkflow() *models.Workflow {
	return &models.Workflow{
		UserID: "user-1",
		Name:   "post call follow up",
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypePostCall, Data: map[string]any{}},
			{ID: "sms", Type: models.NodeTypeMessaging, Data: map[string]any{"message": "Hi {name}"}},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "start", Target: "sms"},
		},
	}
}

func TestCreateValidWorkflow(t *testing.T) {
	service := newTestService(t)

	created, err := service.Create(t.Context(), validWorkflow())

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.WorkflowStatusDraft, created.Status)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(wf *models.Workflow)
		wantErr error
	}{
		{
			name:    "missing name",
			mutate:  func(wf *models.Workflow) { wf.Name = "" },
			wantErr: ErrWorkflowNameRequired,
		},
		{
			name:    "missing user id",
			mutate:  func(wf *models.Workflow) { wf.UserID = "" },
			wantErr: ErrUserIDRequired,
		},
		{
			name: "duplicate node id",
			mutate: func(wf *models.Workflow) {
				wf.Nodes = append(wf.Nodes, &models.Node{ID: "sms", Type: models.NodeTypeMessaging, Data: map[string]any{"message": "x"}})
			},
			wantErr: ErrDuplicateNodeID,
		},
		{
			name: "edge source unknown",
			mutate: func(wf *models.Workflow) {
				wf.Edges = append(wf.Edges, &models.Edge{ID: "e2", Source: "ghost", Target: "sms"})
			},
			wantErr: ErrEdgeEndpointUnknown,
		},
		{
			name: "edge target unknown",
			mutate: func(wf *models.Workflow) {
				wf.Edges = append(wf.Edges, &models.Edge{ID: "e2", Source: "start", Target: "ghost"})
			},
			wantErr: ErrEdgeEndpointUnknown,
		},
		{
			name: "messaging node without message",
			mutate: func(wf *models.Workflow) {
				wf.Nodes[1].Data = map[string]any{"to": "+15551112222"}
			},
			wantErr: ErrNodeSchemaInvalid,
		},
		{
			name: "router branch without condition variable",
			mutate: func(wf *models.Workflow) {
				wf.Nodes = append(wf.Nodes, &models.Node{
					ID:   "route",
					Type: models.NodeTypeRouter,
					Data: map[string]any{
						"branches": []any{
							map[string]any{"id": "b1", "condition": map[string]any{"operator": "contains", "value": "x"}},
						},
					},
				})
			},
			wantErr: ErrRouterBranchInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(t)

			wf := validWorkflow()
			tt.mutate(wf)

			_, err := service.Create(t.Context(), wf)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestCreateNilWorkflow(t *testing.T) {
	service := newTestService(t)

	_, err := service.Create(t.Context(), nil)

	assert.ErrorIs(t, err, ErrWorkflowNil)
}

func TestActivateRequiresEntryNode(t *testing.T) {
	service := newTestService(t)

	wf := validWorkflow()
	wf.Nodes = wf.Nodes[1:]
	wf.Edges = nil

	created, err := service.Create(t.Context(), wf)
	require.NoError(t, err)

	_, err = service.Activate(t.Context(), created.ID)

	assert.ErrorIs(t, err, ErrTriggerNodeRequired)
	assert.True(t, IsConflictError(err))
}

func TestActivateAndDeactivate(t *testing.T) {
	service := newTestService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)

	activated, err := service.Activate(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusActive, activated.Status)
	assert.True(t, activated.Runnable())

	deactivated, err := service.Deactivate(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusInactive, deactivated.Status)
	assert.False(t, deactivated.Runnable())
}

func TestActivateMissingWorkflow(t *testing.T) {
	service := newTestService(t)

	_, err := service.Activate(t.Context(), "missing")

	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
}

func TestUpdateActiveWorkflowKeepsEntryGate(t *testing.T) {
	service := newTestService(t)

	created, err := service.Create(t.Context(), validWorkflow())
	require.NoError(t, err)

	_, err = service.Activate(t.Context(), created.ID)
	require.NoError(t, err)

	update := validWorkflow()
	update.Status = models.WorkflowStatusActive
	update.Nodes = update.Nodes[1:]
	update.Edges = nil

	_, err = service.Update(t.Context(), created.ID, update)

	assert.ErrorIs(t, err, ErrTriggerNodeRequired)
}

func TestDeleteMissingWorkflow(t *testing.T) {
	service := newTestService(t)

	assert.ErrorIs(t, service.Delete(t.Context(), "missing"), persistence.ErrWorkflowNotFound)
}
