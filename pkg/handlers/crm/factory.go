package crm

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
	return "crm"
}

func (f *HandlerFactory) Name() string {
	return "CRM Action"
}

func (f *HandlerFactory) Description() string {
	return "Creates or updates contacts, notes and tags in the user's connected CRM."
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"actionId": map[string]any{
				"type":        "string",
				"description": "CRM operation to perform.",
				"enum":        []string{ActionCreateContact, ActionUpdateContact, ActionAddNote, ActionAddTag},
			},
			"connectionId": map[string]any{
				"type":        "string",
				"description": "Id of the CRM connection holding the OAuth tokens.",
			},
			"contactId": map[string]any{
				"type":        "string",
				"description": "Target contact. Supports {key} placeholders; defaults to the contact id from the call context.",
			},
			"fields": map[string]any{
				"type":        "object",
				"description": "Contact fields for create/update. Values support {key} placeholders.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
			"note": map[string]any{
				"type":        "string",
				"description": "Note body for add_note. Supports {key} placeholders.",
			},
			"tag": map[string]any{
				"type":        "string",
				"description": "Tag value for add_tag. Supports {key} placeholders.",
			},
		},
		"required":             []string{"actionId", "connectionId"},
		"additionalProperties": false,
	}
}
