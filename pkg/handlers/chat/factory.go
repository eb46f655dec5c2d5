package chat

import (
	"context"
	"log/slog"

	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/protocol"
)

type HandlerFactory struct {
	persistence persistence.Persistence
	logger      *slog.Logger
}

func NewHandlerFactory(logger *slog.Logger, p persistence.Persistence) *HandlerFactory {
	return &HandlerFactory{
		persistence: p,
		logger:      logger,
	}
}

func (f *HandlerFactory) Create(_ context.Context, config map[string]any) (protocol.Handler, error) {
	return NewHandler(config, f.persistence, f.logger)
}

func (f *HandlerFactory) ID() string {
	return "chat"
}

func (f *HandlerFactory) Name() string {
	return "Chat Notification"
}

func (f *HandlerFactory) Description() string {
	return "Posts a message to a team chat webhook with placeholders filled from the call context."
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Message text. Supports {key} placeholders.",
				"examples": []string{
					"New call from {name} ({phone}): {outcome}",
				},
			},
			"webhookUrl": map[string]any{
				"type":        "string",
				"description": "Webhook url. Defaults to the user's chat credential.",
			},
		},
		"required":             []string{"text"},
		"additionalProperties": false,
	}
}
