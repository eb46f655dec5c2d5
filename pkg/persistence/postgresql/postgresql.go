// Package postgresql provides PostgreSQL persistence for workflows,
// credentials, connections and phone numbers.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/lib/pq" // postgres driver
	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL. Workflow
// graphs are stored as jsonb; deletes are soft so executions referencing a
// removed workflow stay explicable.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	p := &Persistence{
		db:     db,
		logger: logger.With("module", "postgresql"),
	}

	err = sqlbase.NewMigrationManager(p.logger, db, migrations).RunMigrations(ctx)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

const workflowColumns = `id, user_id, assistant_id, name, status, is_active, nodes, edges, created_at, updated_at, deleted_at`

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE deleted_at IS NULL ORDER BY created_at`

	return p.queryWorkflows(ctx, query)
}

func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1 AND deleted_at IS NULL`

	row := p.db.QueryRowContext(ctx, query, id)

	workflow, err := scanWorkflow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow %s: %w", id, err)
	}

	return workflow, nil
}

func (p *Persistence) WorkflowsByAssistant(ctx context.Context, assistantID string) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE assistant_id = $1 AND deleted_at IS NULL ORDER BY created_at`

	return p.queryWorkflows(ctx, query, assistantID)
}

func (p *Persistence) WorkflowsByUser(ctx context.Context, userID string) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at`

	return p.queryWorkflows(ctx, query, userID)
}

func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	nodes, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes for workflow %s: %w", workflow.ID, err)
	}

	edges, err := json.Marshal(workflow.Edges)
	if err != nil {
		return fmt.Errorf("failed to marshal edges for workflow %s: %w", workflow.ID, err)
	}

	query := `
		INSERT INTO workflows (id, user_id, assistant_id, name, status, is_active, nodes, edges, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			assistant_id = EXCLUDED.assistant_id,
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			is_active = EXCLUDED.is_active,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			updated_at = EXCLUDED.updated_at
	`

	_, err = p.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.UserID,
		nullableString(workflow.AssistantID),
		workflow.Name,
		string(workflow.Status),
		workflow.IsActive,
		nodes,
		edges,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := p.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrWorkflowNotFound
	}

	return nil
}

func (p *Persistence) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			p.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func scanWorkflow(scanner interface{ Scan(dest ...any) error }) (*models.Workflow, error) {
	var (
		workflow     models.Workflow
		assistantID  sql.NullString
		status       string
		nodes, edges []byte
		deletedAt    sql.NullTime
	)

	err := scanner.Scan(
		&workflow.ID,
		&workflow.UserID,
		&assistantID,
		&workflow.Name,
		&status,
		&workflow.IsActive,
		&nodes,
		&edges,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&deletedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.AssistantID = assistantID.String
	workflow.Status = models.WorkflowStatus(status)

	if deletedAt.Valid {
		t := deletedAt.Time
		workflow.DeletedAt = &t
	}

	err = json.Unmarshal(nodes, &workflow.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}

	err = json.Unmarshal(edges, &workflow.Edges)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
	}

	return &workflow, nil
}

func nullableString(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	return s
}
