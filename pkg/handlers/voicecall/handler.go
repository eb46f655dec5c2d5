// Package voicecall implements the voice_call workflow node, which originates
// an outbound call from the assistant to a target number.
package voicecall

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

const defaultTimeoutSeconds = 20

var (
	ErrNoAssistant      = errors.New("voice call node requires an assistant on the execution")
	ErrNoTargetNumber   = errors.New("no target number for voice call")
	ErrOriginateFailure = errors.New("voice platform rejected call origination")
)

// Handler asks the voice platform to place one outbound call. The target
// number comes from the node config, falling back to the contact phone in
// the call context.
type Handler struct {
	config      models.VoiceCallConfig
	persistence persistence.Persistence
	client      *http.Client
	baseURL     string
	logger      *slog.Logger
}

func NewHandler(config map[string]any, p persistence.Persistence, baseURL string, logger *slog.Logger) (*Handler, error) {
	var cfg models.VoiceCallConfig

	err := models.DecodeConfig(config, &cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid voice call node config: %w", err)
	}

	return &Handler{
		config:      cfg,
		persistence: p,
		client:      &http.Client{Timeout: defaultTimeoutSeconds * time.Second},
		baseURL:     baseURL,
		logger:      logger.With("module", "voice_call_handler"),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, execCtx *models.ExecutionContext) error {
	logger := h.logger.With("execution_id", execCtx.ID)

	if execCtx.AssistantID == "" {
		return ErrNoAssistant
	}

	flat := template.Flatten(execCtx.Data)

	to := template.Interpolate(h.config.To, flat, execCtx.Data)
	if to == "" {
		to = template.Stringify(flat["phone"])
	}

	if to == "" {
		return ErrNoTargetNumber
	}

	payload := map[string]string{
		"assistant_id": execCtx.AssistantID,
		"to":           to,
	}

	number, err := h.persistence.PhoneNumberByAssistant(ctx, execCtx.AssistantID)
	if err != nil && !persistence.IsPhoneNumberNotFound(err) {
		return fmt.Errorf("failed to look up assistant phone number: %w", err)
	}

	if number != nil {
		payload["from"] = number.Number
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal call payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/calls", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create call request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("call origination request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return fmt.Errorf("%w: status %d: %s", ErrOriginateFailure, resp.StatusCode, string(respBody))
	}

	logger.Info("Outbound call originated", "to", to)

	return nil
}
