package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence/file"
)

type stubExtractor struct {
	fields map[string]any
	err    error
	calls  int
}

func (s *stubExtractor) ExtractFields(_ context.Context, _ string) (map[string]any, error) {
	s.calls++

	return s.fields, s.err
}

func newTestManager(t *testing.T, extractor *stubExtractor, workflows ...*models.Workflow) (*Manager, *recorder) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	for _, wf := range workflows {
		require.NoError(t, persistence.SaveWorkflow(t.Context(), wf))
	}

	executor, rec := newTestExecutor(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	var manager *Manager
	if extractor != nil {
		manager = NewManager(logger, NewRepository(persistence), executor, extractor)
	} else {
		manager = NewManager(logger, NewRepository(persistence), executor, nil)
	}

	return manager, rec
}

func assistantWorkflow(id, assistantID, label string) *models.Workflow {
	return &models.Workflow{
		ID:          id,
		UserID:      "user-1",
		AssistantID: assistantID,
		Name:        "workflow " + id,
		Status:      models.WorkflowStatusActive,
		IsActive:    true,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypePostCall, Data: map[string]any{}},
			{ID: "sms", Type: models.NodeTypeMessaging, Data: map[string]any{"label": label}},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "start", Target: "sms"},
		},
	}
}

func TestTriggerWorkflowsRunsAllAssistantWorkflows(t *testing.T) {
	manager, rec := newTestManager(t, nil,
		assistantWorkflow("wf-1", "asst-1", "one"),
		assistantWorkflow("wf-2", "asst-1", "two"),
		assistantWorkflow("wf-3", "asst-other", "other"),
	)

	err := manager.TriggerWorkflows(t.Context(), "user-1", "asst-1", EventCallEnded, map[string]any{})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, rec.executed)
	assert.NotContains(t, rec.executed, "other")
}

func TestTriggerWorkflowsFallsBackToUserScope(t *testing.T) {
	manager, rec := newTestManager(t, nil,
		assistantWorkflow("wf-1", "asst-1", "mine"),
	)

	err := manager.TriggerWorkflows(t.Context(), "user-1", "", EventCallEnded, map[string]any{})

	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, rec.executed)
}

func TestTriggerWorkflowsSkipsNonRunnable(t *testing.T) {
	draft := assistantWorkflow("wf-1", "asst-1", "draft")
	draft.Status = models.WorkflowStatusDraft
	draft.IsActive = false

	manager, rec := newTestManager(t, nil, draft)

	err := manager.TriggerWorkflows(t.Context(), "user-1", "asst-1", EventCallEnded, map[string]any{})

	require.NoError(t, err)
	assert.Empty(t, rec.executed)
}

func TestTriggerWorkflowsNoWorkflows(t *testing.T) {
	manager, rec := newTestManager(t, nil)

	err := manager.TriggerWorkflows(t.Context(), "user-1", "asst-1", EventCallEnded, map[string]any{})

	require.NoError(t, err)
	assert.Empty(t, rec.executed)
}

func TestEnrichPayloadExtractsStructuredData(t *testing.T) {
	extractor := &stubExtractor{fields: map[string]any{"name": "Jane"}}
	manager, _ := newTestManager(t, extractor)

	payload := map[string]any{"transcript": "hi, this is Jane"}
	enriched := manager.enrichPayload(t.Context(), EventCallEnded, payload, manager.logger)

	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, map[string]any{"name": "Jane"}, enriched["structured_data"])
	assert.NotContains(t, payload, "structured_data")
}

func TestEnrichPayloadSkipsWhenStructuredDataPresent(t *testing.T) {
	extractor := &stubExtractor{fields: map[string]any{"name": "Jane"}}
	manager, _ := newTestManager(t, extractor)

	payload := map[string]any{
		"transcript":      "hi",
		"structured_data": map[string]any{"name": "Bob"},
	}
	enriched := manager.enrichPayload(t.Context(), EventCallEnded, payload, manager.logger)

	assert.Zero(t, extractor.calls)
	assert.Equal(t, payload, enriched)
}

func TestEnrichPayloadSkipsOtherEvents(t *testing.T) {
	extractor := &stubExtractor{fields: map[string]any{"name": "Jane"}}
	manager, _ := newTestManager(t, extractor)

	payload := map[string]any{"transcript": "hi"}
	enriched := manager.enrichPayload(t.Context(), "contact_created", payload, manager.logger)

	assert.Zero(t, extractor.calls)
	assert.Equal(t, payload, enriched)
}

func TestEnrichPayloadExtractionFailureDegrades(t *testing.T) {
	extractor := &stubExtractor{err: fmt.Errorf("model unavailable")}
	manager, _ := newTestManager(t, extractor)

	payload := map[string]any{"transcript": "hi"}
	enriched := manager.enrichPayload(t.Context(), EventCallEnded, payload, manager.logger)

	assert.Equal(t, payload, enriched)
	assert.NotContains(t, enriched, "structured_data")
}

func TestEnrichPayloadNoTranscript(t *testing.T) {
	extractor := &stubExtractor{fields: map[string]any{"name": "Jane"}}
	manager, _ := newTestManager(t, extractor)

	payload := map[string]any{"outcome": "booked"}
	enriched := manager.enrichPayload(t.Context(), EventCallEnded, payload, manager.logger)

	assert.Zero(t, extractor.calls)
	assert.Equal(t, payload, enriched)
}
