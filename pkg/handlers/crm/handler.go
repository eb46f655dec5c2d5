// Package crm implements the crm workflow node, which pushes call results
// into the user's connected CRM: contacts, notes and tags.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/template"
)

const (
	ActionCreateContact = "create_contact"
	ActionUpdateContact = "update_contact"
	ActionAddNote       = "add_note"
	ActionAddTag        = "add_tag"

	defaultTimeoutSeconds = 20
	refreshWindow         = 5 * time.Minute
)

var (
	ErrActionRequired     = errors.New("crm node requires an actionId")
	ErrUnknownAction      = errors.New("unknown crm action")
	ErrConnectionRequired = errors.New("crm node requires a connectionId")
	ErrContactIDRequired  = errors.New("crm action requires a contact id")
)

// Handler executes one CRM action per node invocation. Connections carry the
// OAuth tokens; an access token within its refresh window is renewed and the
// connection saved back before the action runs.
type Handler struct {
	config      models.CRMConfig
	persistence persistence.Persistence
	client      *http.Client
	logger      *slog.Logger
}

func NewHandler(config map[string]any, p persistence.Persistence, logger *slog.Logger) (*Handler, error) {
	var cfg models.CRMConfig

	err := models.DecodeConfig(config, &cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid crm node config: %w", err)
	}

	if cfg.ActionID == "" {
		return nil, ErrActionRequired
	}

	if cfg.ConnectionID == "" {
		return nil, ErrConnectionRequired
	}

	return &Handler{
		config:      cfg,
		persistence: p,
		client:      &http.Client{Timeout: defaultTimeoutSeconds * time.Second},
		logger:      logger.With("module", "crm_handler"),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, execCtx *models.ExecutionContext) error {
	logger := h.logger.With("execution_id", execCtx.ID, "action", h.config.ActionID)

	connection, err := h.persistence.ConnectionByID(ctx, h.config.ConnectionID)
	if err != nil {
		return fmt.Errorf("failed to load crm connection %s: %w", h.config.ConnectionID, err)
	}

	connection, err = h.ensureFreshToken(ctx, connection, logger)
	if err != nil {
		return err
	}

	flat := template.Flatten(execCtx.Data)

	switch h.config.ActionID {
	case ActionCreateContact:
		return h.createContact(ctx, connection, flat, execCtx.Data, logger)
	case ActionUpdateContact:
		return h.updateContact(ctx, connection, flat, execCtx.Data, logger)
	case ActionAddNote:
		return h.addNote(ctx, connection, flat, execCtx.Data, logger)
	case ActionAddTag:
		return h.addTag(ctx, connection, flat, execCtx.Data, logger)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, h.config.ActionID)
	}
}

// ensureFreshToken refreshes the access token when it expires within the
// refresh window, persisting the renewed connection.
func (h *Handler) ensureFreshToken(ctx context.Context, connection *models.Connection, logger *slog.Logger) (*models.Connection, error) {
	if connection.RefreshToken == "" || !connection.ExpiresWithin(refreshWindow) {
		return connection, nil
	}

	logger.Info("Access token expiring, refreshing", "connection_id", connection.ID)

	payload, err := json.Marshal(map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": connection.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, connection.BaseURL+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, fmt.Errorf("token refresh returned status %d: %s", resp.StatusCode, string(body))
	}

	var refreshed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}

	err = json.NewDecoder(resp.Body).Decode(&refreshed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	connection.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		connection.RefreshToken = refreshed.RefreshToken
	}

	connection.ExpiresAt = time.Now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)
	connection.UpdatedAt = time.Now()

	err = h.persistence.SaveConnection(ctx, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to save refreshed connection: %w", err)
	}

	return connection, nil
}

func (h *Handler) createContact(ctx context.Context, connection *models.Connection, flat, original map[string]any, logger *slog.Logger) error {
	fields := h.interpolatedFields(flat, original)

	if _, ok := fields["name"]; !ok {
		fields["name"] = template.Stringify(flat["name"])
	}

	if _, ok := fields["phone"]; !ok {
		fields["phone"] = template.Stringify(flat["phone"])
	}

	if _, ok := fields["email"]; !ok {
		fields["email"] = template.Stringify(flat["email"])
	}

	err := h.post(ctx, connection, "/contacts", fields)
	if err != nil {
		return err
	}

	logger.Info("Created crm contact", "connection_id", connection.ID)

	return nil
}

func (h *Handler) updateContact(ctx context.Context, connection *models.Connection, flat, original map[string]any, logger *slog.Logger) error {
	contactID, err := h.resolveContactID(flat, original)
	if err != nil {
		return err
	}

	fields := h.interpolatedFields(flat, original)

	err = h.post(ctx, connection, "/contacts/"+contactID, fields)
	if err != nil {
		return err
	}

	logger.Info("Updated crm contact", "contact_id", contactID)

	return nil
}

func (h *Handler) addNote(ctx context.Context, connection *models.Connection, flat, original map[string]any, logger *slog.Logger) error {
	contactID, err := h.resolveContactID(flat, original)
	if err != nil {
		return err
	}

	note := template.Interpolate(h.config.Note, flat, original)

	err = h.post(ctx, connection, "/contacts/"+contactID+"/notes", map[string]string{"body": note})
	if err != nil {
		return err
	}

	logger.Info("Added crm note", "contact_id", contactID, "length", len(note))

	return nil
}

func (h *Handler) addTag(ctx context.Context, connection *models.Connection, flat, original map[string]any, logger *slog.Logger) error {
	contactID, err := h.resolveContactID(flat, original)
	if err != nil {
		return err
	}

	tag := template.Interpolate(h.config.Tag, flat, original)

	err = h.post(ctx, connection, "/contacts/"+contactID+"/tags", map[string]string{"tag": tag})
	if err != nil {
		return err
	}

	logger.Info("Added crm tag", "contact_id", contactID, "tag", tag)

	return nil
}

// resolveContactID prefers the node's own contactId, then the ids calls
// commonly attach to the context.
func (h *Handler) resolveContactID(flat, original map[string]any) (string, error) {
	contactID := template.Interpolate(h.config.ContactID, flat, original)
	if contactID == "" {
		contactID = template.Stringify(flat["contact_id"])
	}

	if contactID == "" {
		contactID = template.Stringify(flat["contactId"])
	}

	if contactID == "" {
		return "", ErrContactIDRequired
	}

	return contactID, nil
}

func (h *Handler) interpolatedFields(flat, original map[string]any) map[string]string {
	fields := make(map[string]string, len(h.config.Fields))
	for key, value := range h.config.Fields {
		fields[key] = template.Interpolate(value, flat, original)
	}

	return fields
}

func (h *Handler) post(ctx context.Context, connection *models.Connection, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal crm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, connection.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create crm request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+connection.AccessToken)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("crm returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
