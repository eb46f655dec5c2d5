// Package messaging implements the messaging workflow node, which sends an
// interpolated SMS to the call's contact through the configured gateway.
package messaging

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
	ProviderName          = "sms"
	defaultTimeoutSeconds = 15
)

var (
	ErrMessageRequired = errors.New("messaging node requires a message")
	ErrNoSenderNumber  = errors.New("no sender number available for assistant")
)

// Handler sends one SMS per execution. The sender number is resolved in
// order: the assistant's provisioned phone number, the user's sms credential
// from_number, then the node's own from field.
type Handler struct {
	config      models.MessagingConfig
	persistence persistence.Persistence
	client      *http.Client
	baseURL     string
	logger      *slog.Logger
}

func NewHandler(config map[string]any, p persistence.Persistence, baseURL string, logger *slog.Logger) (*Handler, error) {
	var cfg models.MessagingConfig

	err := models.DecodeConfig(config, &cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid messaging node config: %w", err)
	}

	if cfg.Message == "" {
		return nil, ErrMessageRequired
	}

	return &Handler{
		config:      cfg,
		persistence: p,
		client:      &http.Client{Timeout: defaultTimeoutSeconds * time.Second},
		baseURL:     baseURL,
		logger:      logger.With("module", "messaging_handler"),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, execCtx *models.ExecutionContext) error {
	logger := h.logger.With("execution_id", execCtx.ID)

	flat := template.Flatten(execCtx.Data)

	to := template.Interpolate(h.config.To, flat, execCtx.Data)
	if to == "" || template.HasUnresolved(to) {
		to = template.Stringify(flat["phone"])
	}

	// A call without a known contact number is a normal outcome, not a
	// failure. The branch continues.
	if to == "" {
		logger.Info("No recipient phone number in context, skipping message")

		return nil
	}

	from, apiKey, err := h.resolveSender(ctx, execCtx)
	if err != nil {
		return err
	}

	message := template.Interpolate(h.config.Message, flat, execCtx.Data)

	err = h.send(ctx, apiKey, from, to, message)
	if err != nil {
		return err
	}

	logger.Info("Message sent", "to", to, "from", from, "length", len(message))

	return nil
}

func (h *Handler) resolveSender(ctx context.Context, execCtx *models.ExecutionContext) (string, string, error) {
	var from, apiKey string

	if execCtx.AssistantID != "" {
		number, err := h.persistence.PhoneNumberByAssistant(ctx, execCtx.AssistantID)
		if err != nil && !persistence.IsPhoneNumberNotFound(err) {
			return "", "", fmt.Errorf("failed to look up assistant phone number: %w", err)
		}

		if number != nil {
			from = number.Number
		}
	}

	credential, err := h.persistence.CredentialByUserAndProvider(ctx, execCtx.UserID, ProviderName)
	if err != nil && !persistence.IsCredentialNotFound(err) {
		return "", "", fmt.Errorf("failed to look up sms credential: %w", err)
	}

	if credential != nil {
		apiKey = credential.SecretString("api_key")

		if from == "" {
			from = credential.SecretString("from_number")
		}
	}

	if from == "" {
		from = h.config.From
	}

	if from == "" {
		return "", "", ErrNoSenderNumber
	}

	return from, apiKey, nil
}

func (h *Handler) send(ctx context.Context, apiKey, from, to, message string) error {
	payload, err := json.Marshal(map[string]string{
		"from": from,
		"to":   to,
		"body": message,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create sms request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
