// Package file provides file-based persistence for workflows, credentials,
// connections and phone numbers. Intended for development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence"
)

const (
	workflowsDir    = "workflows"
	credentialsDir  = "credentials"
	connectionsDir  = "connections"
	phoneNumbersDir = "phone_numbers"

	dirPerm  = 0750
	filePerm = 0600
)

// Persistence stores each record as one JSON file under a per-kind
// subdirectory of root. Writes are serialized with a single mutex; the
// implementation trades throughput for simplicity.
type Persistence struct {
	root string
	mu   sync.Mutex
}

func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := p.listIDs(workflowsDir)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := p.WorkflowByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if workflow != nil {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

func (p *Persistence) WorkflowByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	found, err := p.read(workflowsDir, id, &workflow)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	return &workflow, nil
}

func (p *Persistence) WorkflowsByAssistant(ctx context.Context, assistantID string) ([]*models.Workflow, error) {
	all, err := p.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.AssistantID == assistantID {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

func (p *Persistence) WorkflowsByUser(ctx context.Context, userID string) ([]*models.Workflow, error) {
	all, err := p.Workflows(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0)

	for _, workflow := range all {
		if workflow.UserID == userID {
			matched = append(matched, workflow)
		}
	}

	return matched, nil
}

func (p *Persistence) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	return p.write(workflowsDir, workflow.ID, workflow)
}

func (p *Persistence) DeleteWorkflow(_ context.Context, id string) error {
	return p.remove(workflowsDir, id)
}

func (p *Persistence) CredentialByUserAndProvider(_ context.Context, userID, provider string) (*models.Credential, error) {
	var credential models.Credential

	found, err := p.read(credentialsDir, credentialKey(userID, provider), &credential)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrCredentialNotFound
	}

	return &credential, nil
}

func (p *Persistence) SaveCredential(_ context.Context, credential *models.Credential) error {
	return p.write(credentialsDir, credentialKey(credential.UserID, credential.Provider), credential)
}

func (p *Persistence) ConnectionByID(_ context.Context, id string) (*models.Connection, error) {
	var connection models.Connection

	found, err := p.read(connectionsDir, id, &connection)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrConnectionNotFound
	}

	return &connection, nil
}

func (p *Persistence) SaveConnection(_ context.Context, connection *models.Connection) error {
	return p.write(connectionsDir, connection.ID, connection)
}

func (p *Persistence) PhoneNumberByAssistant(_ context.Context, assistantID string) (*models.PhoneNumber, error) {
	var number models.PhoneNumber

	found, err := p.read(phoneNumbersDir, assistantID, &number)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, persistence.ErrPhoneNumberNotFound
	}

	return &number, nil
}

func (p *Persistence) SavePhoneNumber(_ context.Context, number *models.PhoneNumber) error {
	return p.write(phoneNumbersDir, number.AssistantID, number)
}

func credentialKey(userID, provider string) string {
	return userID + "_" + provider
}

func (p *Persistence) listIDs(dir string) ([]string, error) {
	root := os.DirFS(path.Join(p.root, dir))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", dir, err)
	}

	ids := make([]string, 0, len(jsonFiles))
	for _, file := range jsonFiles {
		ids = append(ids, strings.TrimSuffix(file, ".json"))
	}

	return ids, nil
}

func (p *Persistence) read(dir, key string, out any) (bool, error) {
	filePath := filepath.Clean(path.Join(p.root, dir, key+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read %s %s: %w", dir, key, err)
	}

	err = json.Unmarshal(body, out)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal %s %s: %w", dir, key, err)
	}

	return true, nil
}

func (p *Persistence) write(dir, key string, record any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.MkdirAll(path.Join(p.root, dir), dirPerm)
	if err != nil {
		return fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", dir, key, err)
	}

	return os.WriteFile(path.Join(p.root, dir, key+".json"), data, filePerm)
}

func (p *Persistence) remove(dir, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(path.Join(p.root, dir, key+".json"))
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", dir, key, err)
	}

	return nil
}
