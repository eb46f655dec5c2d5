package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence/file"
)

func newWebhookStub(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()

	var texts []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		texts = append(texts, payload["text"])
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server, &texts
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func callContext(data map[string]any) *models.ExecutionContext {
	return models.NewExecutionContext("exec-1", "wf-1", "user-1", "asst-1", "call_ended", data)
}

func TestExecutePostsInterpolatedText(t *testing.T) {
	server, texts := newWebhookStub(t, http.StatusOK)
	p := file.NewPersistence(t.TempDir())

	handler, err := NewHandler(map[string]any{
		"webhook_url": server.URL,
		"text":        "New call from {name}: {outcome}",
	}, p, testLogger())
	require.NoError(t, err)

	execCtx := callContext(map[string]any{
		"name":    "Jane",
		"outcome": "booked",
	})

	require.NoError(t, handler.Execute(t.Context(), execCtx))

	require.Len(t, *texts, 1)
	assert.Equal(t, "New call from Jane: booked", (*texts)[0])
}

func TestExecuteFallsBackToCredentialWebhook(t *testing.T) {
	server, texts := newWebhookStub(t, http.StatusOK)
	p := file.NewPersistence(t.TempDir())

	require.NoError(t, p.SaveCredential(t.Context(), &models.Credential{
		ID:       "cred-1",
		UserID:   "user-1",
		Provider: ProviderName,
		Secret:   map[string]any{"webhook_url": server.URL},
	}))

	handler, err := NewHandler(map[string]any{"text": "hello team"}, p, testLogger())
	require.NoError(t, err)

	require.NoError(t, handler.Execute(t.Context(), callContext(map[string]any{})))

	require.Len(t, *texts, 1)
	assert.Equal(t, "hello team", (*texts)[0])
}

func TestExecuteNoWebhookAnywhere(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	handler, err := NewHandler(map[string]any{"text": "hello"}, p, testLogger())
	require.NoError(t, err)

	assert.ErrorIs(t, handler.Execute(t.Context(), callContext(map[string]any{})), ErrNoWebhookURL)
}

func TestExecuteWebhookRejection(t *testing.T) {
	server, _ := newWebhookStub(t, http.StatusForbidden)
	p := file.NewPersistence(t.TempDir())

	handler, err := NewHandler(map[string]any{
		"webhook_url": server.URL,
		"text":        "hello",
	}, p, testLogger())
	require.NoError(t, err)

	assert.ErrorIs(t, handler.Execute(t.Context(), callContext(map[string]any{})), ErrWebhookFailed)
}

func TestNewHandlerRequiresText(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	_, err := NewHandler(map[string]any{"webhook_url": "https://chat.example.com"}, p, testLogger())

	assert.ErrorIs(t, err, ErrTextRequired)
}
