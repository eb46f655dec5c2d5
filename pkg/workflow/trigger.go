package workflow

import (
	"context"
	"log/slog"

	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/protocol"
)

// Manager resolves a trigger event to the set of runnable workflows and runs
// each one under its own execution context. Per-workflow failures are logged
// and do not interrupt the remaining workflows.
type Manager struct {
	repository *Repository
	executor   *Executor
	extractor  protocol.Extractor
	logger     *slog.Logger
}

func NewManager(logger *slog.Logger, repository *Repository, executor *Executor, extractor protocol.Extractor) *Manager {
	if extractor == nil {
		extractor = protocol.NoopExtractor{}
	}

	return &Manager{
		repository: repository,
		executor:   executor,
		extractor:  extractor,
		logger:     logger.With("module", "workflow_manager"),
	}
}

// TriggerWorkflows runs every runnable workflow of the target assistant (or
// user, when no assistant is given) against the trigger payload.
func (m *Manager) TriggerWorkflows(ctx context.Context, userID, assistantID, event string, payload map[string]any) error {
	logger := m.logger.With("user_id", userID, "assistant_id", assistantID, "event", event)

	workflows, err := m.matchWorkflows(ctx, userID, assistantID)
	if err != nil {
		return err
	}

	if len(workflows) == 0 {
		logger.Info("No runnable workflows for trigger")

		return nil
	}

	payload = m.enrichPayload(ctx, event, payload, logger)

	logger.Info("Dispatching trigger to workflows", "count", len(workflows))

	for _, wf := range workflows {
		execCtx := models.NewExecutionContext(
			GenerateExecutionID(),
			wf.ID,
			userID,
			assistantID,
			event,
			payload,
		)

		execErr := m.executor.Execute(ctx, wf, execCtx, "")
		if execErr != nil {
			logger.Error("Workflow execution failed",
				"workflow_id", wf.ID,
				"execution_id", execCtx.ID,
				"error", execErr,
			)
		}
	}

	return nil
}

func (m *Manager) matchWorkflows(ctx context.Context, userID, assistantID string) ([]*models.Workflow, error) {
	if assistantID != "" {
		return m.repository.FetchRunnableByAssistant(ctx, assistantID)
	}

	return m.repository.FetchRunnableByUser(ctx, userID)
}

// enrichPayload runs field extraction on call_ended payloads that carry a
// transcript but no structured data. Extraction failures degrade to the raw
// payload.
func (m *Manager) enrichPayload(ctx context.Context, event string, payload map[string]any, logger *slog.Logger) map[string]any {
	if event != EventCallEnded || payload == nil {
		return payload
	}

	if _, ok := payload["structured_data"]; ok {
		return payload
	}

	transcript, ok := payload["transcript"].(string)
	if !ok || transcript == "" {
		return payload
	}

	fields, err := m.extractor.ExtractFields(ctx, transcript)
	if err != nil {
		logger.Warn("Field extraction from transcript failed", "error", err)

		return payload
	}

	if len(fields) == 0 {
		return payload
	}

	enriched := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		enriched[k] = v
	}

	enriched["structured_data"] = fields

	return enriched
}
