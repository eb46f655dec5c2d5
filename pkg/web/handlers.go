// Package web provides HTTP handlers and REST API endpoints for workflow
// management and trigger ingress.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/ringflow/ringflow/pkg/eventbus"
	"github.com/ringflow/ringflow/pkg/events"
	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/registry"
	"github.com/ringflow/ringflow/pkg/services"
)

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
	registry        *registry.Registry
	eventBus        eventbus.EventBus
	logger          *slog.Logger
}

func NewAPIHandlers(
	logger *slog.Logger,
	workflowService *services.Workflow,
	validator *validator.Validate,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
		registry:        registry,
		eventBus:        eventBus,
		logger:          logger.With("module", "api"),
	}
}

// Register wires every endpoint onto the app.
func (h *APIHandlers) Register(app *fiber.App) {
	app.Get("/health", h.HealthCheck)
	app.Get("/node-types", h.GetNodeTypes)

	app.Get("/workflows", h.GetWorkflows)
	app.Post("/workflows", h.CreateWorkflow)
	app.Get("/workflows/:id", h.GetWorkflow)
	app.Patch("/workflows/:id", h.UpdateWorkflow)
	app.Delete("/workflows/:id", h.DeleteWorkflow)
	app.Post("/workflows/:id/activate", h.ActivateWorkflow)
	app.Post("/workflows/:id/deactivate", h.DeactivateWorkflow)

	app.Post("/triggers", h.PostTrigger)
	app.Post("/hooks/:event", h.PostWebhook)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

// GetNodeTypes exposes the registered handler schemas for the graph editor.
func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	types := make([]fiber.Map, 0)

	for _, nodeType := range h.registry.HandlerTypes() {
		factory, err := h.registry.Factory(nodeType)
		if err != nil {
			continue
		}

		types = append(types, fiber.Map{
			"id":          factory.ID(),
			"name":        factory.Name(),
			"description": factory.Description(),
			"schema":      factory.Schema(),
		})
	}

	return c.JSON(fiber.Map{"node_types": types})
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.FetchAll(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	if userID := c.Query("user_id"); userID != "" {
		filtered := make([]*models.Workflow, 0)

		for _, wf := range workflows {
			if wf.UserID == userID {
				filtered = append(filtered, wf)
			}
		}

		workflows = filtered
	}

	return c.JSON(fiber.Map{"workflows": workflows})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	if workflow == nil {
		return notFound(c, "Workflow not found")
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.Workflow{
		Name:        req.Name,
		UserID:      req.UserID,
		AssistantID: req.AssistantID,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	if existing == nil {
		return notFound(c, "Workflow not found")
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Status != nil {
		existing.Status = *req.Status
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if req.Edges != nil {
		existing.Edges = req.Edges
	}

	updated, err := h.workflowService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	activated, err := h.workflowService.Activate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(activated)
}

func (h *APIHandlers) DeactivateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	deactivated, err := h.workflowService.Deactivate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(deactivated)
}

// PostTrigger accepts a trigger event and hands it to the dispatcher through
// the bus. The API never runs workflows inline.
func (h *APIHandlers) PostTrigger(c fiber.Ctx) error {
	var req TriggerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return h.publishTrigger(c, req.UserID, req.AssistantID, req.Event, req.Payload)
}

// PostWebhook is the ingress for voice platform callbacks. The event name
// comes from the path, identity from query parameters, payload from the body.
func (h *APIHandlers) PostWebhook(c fiber.Ctx) error {
	event := c.Params("event")
	if event == "" {
		return badRequest(c, "Event name is required")
	}

	userID := c.Query("user_id")
	if userID == "" {
		return badRequest(c, "user_id query parameter is required")
	}

	var payload map[string]any
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&payload); err != nil {
			return badRequest(c, "Invalid JSON payload")
		}
	}

	return h.publishTrigger(c, userID, c.Query("assistant_id"), event, payload)
}

func (h *APIHandlers) publishTrigger(c fiber.Ctx, userID, assistantID, event string, payload map[string]any) error {
	trigger := events.TriggerReceived{
		BaseEvent:   events.NewBaseEvent(events.TriggerReceivedEvent, ""),
		UserID:      userID,
		AssistantID: assistantID,
		Event:       event,
		Payload:     payload,
	}

	err := h.eventBus.PublishTrigger(c.Context(), &trigger)
	if err != nil {
		h.logger.Error("Failed to publish trigger", "event", event, "error", err)

		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"trigger_id": trigger.ID,
		"event":      event,
	})
}
