// Package persistence abstracts storage of workflows, credentials,
// connections and phone numbers.
package persistence

import (
	"context"

	"github.com/ringflow/ringflow/pkg/models"
)

type Persistence interface {
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)
	WorkflowsByAssistant(ctx context.Context, assistantID string) ([]*models.Workflow, error)
	WorkflowsByUser(ctx context.Context, userID string) ([]*models.Workflow, error)
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	DeleteWorkflow(ctx context.Context, id string) error

	CredentialByUserAndProvider(ctx context.Context, userID, provider string) (*models.Credential, error)
	SaveCredential(ctx context.Context, credential *models.Credential) error

	ConnectionByID(ctx context.Context, id string) (*models.Connection, error)
	SaveConnection(ctx context.Context, connection *models.Connection) error

	PhoneNumberByAssistant(ctx context.Context, assistantID string) (*models.PhoneNumber, error)
	SavePhoneNumber(ctx context.Context, number *models.PhoneNumber) error

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
