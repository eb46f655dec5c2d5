package voicecall

import (
	"context"
	"log/slog"

	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/protocol"
)

const defaultPlatformURL = "https://voice.ringflow.dev/v1"

type HandlerFactory struct {
	persistence persistence.Persistence
	baseURL     string
	logger      *slog.Logger
}

func NewHandlerFactory(logger *slog.Logger, p persistence.Persistence) *HandlerFactory {
	return &HandlerFactory{
		persistence: p,
		baseURL:     defaultPlatformURL,
		logger:      logger,
	}
}

// WithPlatformURL overrides the voice platform endpoint, mainly for tests.
func (f *HandlerFactory) WithPlatformURL(baseURL string) *HandlerFactory {
	f.baseURL = baseURL

	return f
}

func (f *HandlerFactory) Create(_ context.Context, config map[string]any) (protocol.Handler, error) {
	return NewHandler(config, f.persistence, f.baseURL, f.logger)
}

func (f *HandlerFactory) ID() string {
	return "voice_call"
}

func (f *HandlerFactory) Name() string {
	return "Outbound Call"
}

func (f *HandlerFactory) Description() string {
	return "Originates an outbound call from the assistant to a target number."
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"type":        "string",
				"description": "Number to call. Supports {key} placeholders; defaults to the contact phone from the call.",
			},
		},
		"additionalProperties": false,
	}
}
