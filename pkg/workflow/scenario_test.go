package workflow_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringflow/ringflow/pkg/handlers/messaging"
	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence/file"
	"github.com/ringflow/ringflow/pkg/registry"
	"github.com/ringflow/ringflow/pkg/workflow"
)

// Exercises the common production graph end to end with the real messaging
// handler: a call ends, the booking gate passes, and the contact gets an
// interpolated confirmation SMS.
func TestCallEndedBookingConfirmationScenario(t *testing.T) {
	var sent []map[string]string

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sent = append(sent, body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer gateway.Close()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	store := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.RegisterHandler(messaging.NewHandlerFactory(logger, store).WithGatewayURL(gateway.URL))

	executor := workflow.NewExecutor(logger, reg)

	wf := &models.Workflow{
		ID:     "wf-booking",
		UserID: "user-1",
		Status: models.WorkflowStatusActive,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypePostCall, Data: map[string]any{}},
			{
				ID:   "booked-gate",
				Type: models.NodeTypeCondition,
				Data: map[string]any{
					"conditions": []any{map[string]any{
						"variable": "{booking_status}",
						"operator": "contains",
						"value":    "booked",
					}},
				},
			},
			{
				ID:   "confirm-sms",
				Type: models.NodeTypeMessaging,
				Data: map[string]any{
					"message": "Hi {name}, your appointment on {appointment_start_time} is confirmed.",
					"from":    "+15550000001",
				},
			},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "start", Target: "booked-gate"},
			{ID: "e2", Source: "booked-gate", Target: "confirm-sms"},
		},
	}

	payload := map[string]any{
		"phone": "+15557778888",
		"structured_data": map[string]any{
			"name":           map[string]any{"value": "Jane"},
			"booking_status": map[string]any{"value": "booked"},
		},
		"appointment": map[string]any{
			"start_time": "Friday 2pm",
		},
	}

	execCtx := models.NewExecutionContext("exec-sc-1", wf.ID, "user-1", "", workflow.EventCallEnded, payload)
	err := executor.Execute(t.Context(), wf, execCtx, "")

	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "+15557778888", sent[0]["to"])
	assert.Equal(t, "+15550000001", sent[0]["from"])
	assert.Equal(t, "Hi Jane, your appointment on Friday 2pm is confirmed.", sent[0]["body"])

	t.Run("not booked sends nothing", func(t *testing.T) {
		sent = nil

		lost := map[string]any{
			"phone": "+15557778888",
			"structured_data": map[string]any{
				"name":           map[string]any{"value": "Jane"},
				"booking_status": map[string]any{"value": "not_booked"},
			},
		}

		execCtx := models.NewExecutionContext("exec-sc-2", wf.ID, "user-1", "", workflow.EventCallEnded, lost)
		err := executor.Execute(t.Context(), wf, execCtx, "")

		require.NoError(t, err)
		assert.Empty(t, sent)
	})
}
