package httpcall

import (
	"context"
	"log/slog"

	"github.com/ringflow/ringflow/pkg/protocol"
)

type HandlerFactory struct {
	logger *slog.Logger
}

func NewHandlerFactory(logger *slog.Logger) *HandlerFactory {
	return &HandlerFactory{logger: logger}
}

func (f *HandlerFactory) Create(_ context.Context, config map[string]any) (protocol.Handler, error) {
	return NewHandler(config, f.logger)
}

func (f *HandlerFactory) ID() string {
	return "http"
}

func (f *HandlerFactory) Name() string {
	return "HTTP Request"
}

func (f *HandlerFactory) Description() string {
	return "Calls an HTTP endpoint and merges a JSON object response into the workflow context."
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Endpoint URL. Supports {key} placeholders from the call context.",
				"examples": []string{
					"https://api.example.com/leads",
					"https://api.example.com/contacts/{phone}",
				},
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method to use.",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers. Values support {key} placeholders.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
			"body": map[string]any{
				"type":        "string",
				"format":      "code",
				"description": "Request body. Supports {key} placeholders.",
				"examples": []string{
					`{"name": "{name}", "outcome": "{outcome}"}`,
				},
			},
		},
		"required":             []string{"url"},
		"additionalProperties": false,
	}
}
