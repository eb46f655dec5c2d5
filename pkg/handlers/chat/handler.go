// Package chat implements the chat workflow node, which posts an
// interpolated message to a team chat webhook (Slack compatible payload).
package chat

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
	ProviderName          = "chat"
	defaultTimeoutSeconds = 15
)

var (
	ErrTextRequired  = errors.New("chat node requires text")
	ErrNoWebhookURL  = errors.New("no chat webhook url configured")
	ErrWebhookFailed = errors.New("chat webhook rejected message")
)

// Handler posts one chat notification per execution. The webhook url comes
// from the node config, falling back to the user's chat credential.
type Handler struct {
	config      models.ChatConfig
	persistence persistence.Persistence
	client      *http.Client
	logger      *slog.Logger
}

func NewHandler(config map[string]any, p persistence.Persistence, logger *slog.Logger) (*Handler, error) {
	var cfg models.ChatConfig

	err := models.DecodeConfig(config, &cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid chat node config: %w", err)
	}

	if cfg.Text == "" {
		return nil, ErrTextRequired
	}

	return &Handler{
		config:      cfg,
		persistence: p,
		client:      &http.Client{Timeout: defaultTimeoutSeconds * time.Second},
		logger:      logger.With("module", "chat_handler"),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, execCtx *models.ExecutionContext) error {
	logger := h.logger.With("execution_id", execCtx.ID)

	webhookURL, err := h.resolveWebhookURL(ctx, execCtx)
	if err != nil {
		return err
	}

	flat := template.Flatten(execCtx.Data)
	text := template.Interpolate(h.config.Text, flat, execCtx.Data)

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat webhook request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("%w: status %d: %s", ErrWebhookFailed, resp.StatusCode, string(body))
	}

	logger.Info("Chat notification sent", "length", len(text))

	return nil
}

func (h *Handler) resolveWebhookURL(ctx context.Context, execCtx *models.ExecutionContext) (string, error) {
	if h.config.WebhookURL != "" {
		return h.config.WebhookURL, nil
	}

	credential, err := h.persistence.CredentialByUserAndProvider(ctx, execCtx.UserID, ProviderName)
	if err != nil {
		if persistence.IsCredentialNotFound(err) {
			return "", ErrNoWebhookURL
		}

		return "", fmt.Errorf("failed to look up chat credential: %w", err)
	}

	webhookURL := credential.SecretString("webhook_url")
	if webhookURL == "" {
		return "", ErrNoWebhookURL
	}

	return webhookURL, nil
}
