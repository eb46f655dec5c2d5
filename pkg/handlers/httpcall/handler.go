// Package httpcall implements the http workflow node, which calls an
// arbitrary endpoint with interpolated method, url, headers and body.
package httpcall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/template"
)

const defaultTimeoutSeconds = 30

var ErrURLRequired = errors.New("http node requires a url")

// Handler performs one HTTP request per execution. A JSON object response is
// merged into the execution context so downstream nodes can reference its
// fields in templates.
type Handler struct {
	config models.HTTPConfig
	client *http.Client
	logger *slog.Logger
}

func NewHandler(config map[string]any, logger *slog.Logger) (*Handler, error) {
	var cfg models.HTTPConfig

	err := models.DecodeConfig(config, &cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid http node config: %w", err)
	}

	if cfg.URL == "" {
		return nil, ErrURLRequired
	}

	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}

	cfg.Method = strings.ToUpper(cfg.Method)

	return &Handler{
		config: cfg,
		client: &http.Client{Timeout: defaultTimeoutSeconds * time.Second},
		logger: logger.With("module", "http_handler"),
	}, nil
}

func (h *Handler) Execute(ctx context.Context, execCtx *models.ExecutionContext) error {
	logger := h.logger.With("execution_id", execCtx.ID)

	flat := template.Flatten(execCtx.Data)

	url := template.Interpolate(h.config.URL, flat, execCtx.Data)
	method := template.Interpolate(h.config.Method, flat, execCtx.Data)
	body := template.Interpolate(h.config.Body, flat, execCtx.Data)
	headers := template.InterpolateMap(h.config.Headers, flat, execCtx.Data)

	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	logger.Info("Calling endpoint", "method", method, "url", url)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, truncate(string(bodyBytes), 512))
	}

	h.mergeResponse(execCtx, bodyBytes, logger)

	logger.Info("Endpoint call completed", "status", resp.StatusCode, "body_length", len(bodyBytes))

	return nil
}

// mergeResponse spreads a JSON object response into the execution data so
// later templates can reference its keys. Existing keys are overwritten on
// purpose: the freshest data wins. Non-object responses are kept raw.
func (h *Handler) mergeResponse(execCtx *models.ExecutionContext, bodyBytes []byte, logger *slog.Logger) {
	var parsed any

	err := json.Unmarshal(bodyBytes, &parsed)
	if err != nil {
		execCtx.Data["last_response"] = string(bodyBytes)

		logger.Debug("Response is not JSON, stored raw")

		return
	}

	if object, ok := parsed.(map[string]any); ok {
		for key, value := range object {
			execCtx.Data[key] = value
		}
	}

	execCtx.Data["last_response"] = parsed
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max]
}
