package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringflow/ringflow/pkg/channels/gochannel"
	"github.com/ringflow/ringflow/pkg/cmd"
	"github.com/ringflow/ringflow/pkg/eventbus"
	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence/file"
	"github.com/ringflow/ringflow/pkg/services"
	"github.com/ringflow/ringflow/pkg/web"
	"github.com/ringflow/ringflow/pkg/workflow"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.Workflow) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	persistence := file.NewPersistence(t.TempDir())
	registry := cmd.NewRegistry(logger, persistence)
	workflowService := services.NewWorkflow(workflow.NewRepository(persistence), registry)

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	handlers := web.NewAPIHandlers(
		logger,
		workflowService,
		validator.New(validator.WithRequiredStructEnabled()),
		registry,
		bus,
	)

	app := fiber.New()
	handlers.Register(app)

	return app, workflowService
}

func postJSON(t *testing.T, app *fiber.App, url string, payload any) *http.Response {
	t.Helper()

	var body []byte

	if str, ok := payload.(string); ok {
		body = []byte(str)
	} else if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func graphRequest(name string) web.CreateWorkflowRequest {
	return web.CreateWorkflowRequest{
		Name:        name,
		UserID:      "user-1",
		AssistantID: "asst-1",
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypePostCall, Data: map[string]any{}},
			{ID: "sms", Type: models.NodeTypeMessaging, Data: map[string]any{"message": "Hi {name}"}},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "start", Target: "sms"},
		},
	}
}

func TestCreateWorkflowEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "successful creation",
			requestBody:    graphRequest("post call follow up"),
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing name",
			requestBody: web.CreateWorkflowRequest{
				UserID: "user-1",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing user id",
			requestBody: web.CreateWorkflowRequest{
				Name: "no user",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "not-json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "schema violation in node config",
			requestBody: web.CreateWorkflowRequest{
				Name:   "bad node",
				UserID: "user-1",
				Nodes: []*models.Node{
					{ID: "sms", Type: models.NodeTypeMessaging, Data: map[string]any{"to": "+15551112222"}},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := setupTestApp(t)

			resp := postJSON(t, app, "/workflows", tt.requestBody)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var created models.Workflow
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
				assert.NotEmpty(t, created.ID)
				assert.Equal(t, models.WorkflowStatusDraft, created.Status)
			}
		})
	}
}

func TestGetWorkflowEndpoint(t *testing.T) {
	app, workflowService := setupTestApp(t)

	created, err := workflowService.Create(t.Context(), &models.Workflow{
		UserID: "user-1",
		Name:   "fetch me",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/workflows/"+created.ID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Workflow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fetched))
	assert.Equal(t, "fetch me", fetched.Name)
}

func TestGetWorkflowNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/workflows/missing", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetWorkflowsUserFilter(t *testing.T) {
	app, workflowService := setupTestApp(t)

	for _, owner := range []string{"user-1", "user-1", "user-2"} {
		_, err := workflowService.Create(t.Context(), &models.Workflow{
			UserID: owner,
			Name:   "workflow of " + owner,
		})
		require.NoError(t, err)
	}

	tests := []struct {
		name          string
		url           string
		expectedCount int
	}{
		{name: "filter by user-1", url: "/workflows?user_id=user-1", expectedCount: 2},
		{name: "filter by user-2", url: "/workflows?user_id=user-2", expectedCount: 1},
		{name: "unknown user", url: "/workflows?user_id=user-3", expectedCount: 0},
		{name: "no filter", url: "/workflows", expectedCount: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var response struct {
				Workflows []models.Workflow `json:"workflows"`
			}

			require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
			assert.Len(t, response.Workflows, tt.expectedCount)
		})
	}
}

func TestUpdateWorkflowEndpoint(t *testing.T) {
	app, workflowService := setupTestApp(t)

	created, err := workflowService.Create(t.Context(), &models.Workflow{
		UserID: "user-1",
		Name:   "before",
	})
	require.NoError(t, err)

	newName := "after"
	body, err := json.Marshal(web.UpdateWorkflowRequest{Name: &newName})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/workflows/"+created.ID, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Workflow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, "after", updated.Name)
}

func TestDeleteWorkflowEndpoint(t *testing.T) {
	app, workflowService := setupTestApp(t)

	created, err := workflowService.Create(t.Context(), &models.Workflow{
		UserID: "user-1",
		Name:   "doomed",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/workflows/"+created.ID, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodDelete, "/workflows/"+created.ID, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestActivateWorkflowEndpoint(t *testing.T) {
	app, workflowService := setupTestApp(t)

	request := graphRequest("activate me")
	created, err := workflowService.Create(t.Context(), &models.Workflow{
		UserID: request.UserID,
		Name:   request.Name,
		Nodes:  request.Nodes,
		Edges:  request.Edges,
	})
	require.NoError(t, err)

	resp := postJSON(t, app, "/workflows/"+created.ID+"/activate", nil)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var activated models.Workflow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&activated))
	assert.Equal(t, models.WorkflowStatusActive, activated.Status)
}

func TestActivateWorkflowWithoutTrigger(t *testing.T) {
	app, workflowService := setupTestApp(t)

	created, err := workflowService.Create(t.Context(), &models.Workflow{
		UserID: "user-1",
		Name:   "no trigger",
		Nodes: []*models.Node{
			{ID: "sms", Type: models.NodeTypeMessaging, Data: map[string]any{"message": "x"}},
		},
	})
	require.NoError(t, err)

	resp := postJSON(t, app, "/workflows/"+created.ID+"/activate", nil)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPostTriggerEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := postJSON(t, app, "/triggers", web.TriggerRequest{
		UserID:      "user-1",
		AssistantID: "asst-1",
		Event:       "call_ended",
		Payload:     map[string]any{"outcome": "booked"},
	})

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var response map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.NotEmpty(t, response["trigger_id"])
	assert.Equal(t, "call_ended", response["event"])
}

func TestPostTriggerValidation(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := postJSON(t, app, "/triggers", web.TriggerRequest{
		AssistantID: "asst-1",
		Payload:     map[string]any{},
	})

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPostWebhookEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := postJSON(t, app, "/hooks/call_ended?user_id=user-1&assistant_id=asst-1", map[string]any{
		"outcome":    "booked",
		"transcript": "hi",
	})

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var response map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.Equal(t, "call_ended", response["event"])
}

func TestPostWebhookRequiresUserID(t *testing.T) {
	app, _ := setupTestApp(t)

	resp := postJSON(t, app, "/hooks/call_ended", map[string]any{"outcome": "booked"})

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetNodeTypesEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/node-types", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var response struct {
		NodeTypes []struct {
			ID     string         `json:"id"`
			Name   string         `json:"name"`
			Schema map[string]any `json:"schema"`
		} `json:"node_types"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	require.Len(t, response.NodeTypes, 5)

	ids := make([]string, 0, len(response.NodeTypes))
	for _, nodeType := range response.NodeTypes {
		ids = append(ids, nodeType.ID)
		assert.NotEmpty(t, nodeType.Schema)
	}

	assert.ElementsMatch(t, []string{"messaging", "http", "crm", "voice_call", "chat"}, ids)
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "healthy")
}
