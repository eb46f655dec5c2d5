package messaging

import (
	"context"
	"log/slog"

	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/protocol"
)

const defaultGatewayURL = "https://sms.ringflow.dev/v1"

type HandlerFactory struct {
	persistence persistence.Persistence
	baseURL     string
	logger      *slog.Logger
}

func NewHandlerFactory(logger *slog.Logger, p persistence.Persistence) *HandlerFactory {
	return &HandlerFactory{
		persistence: p,
		baseURL:     defaultGatewayURL,
		logger:      logger,
	}
}

// WithGatewayURL overrides the SMS gateway endpoint, mainly for tests.
func (f *HandlerFactory) WithGatewayURL(baseURL string) *HandlerFactory {
	f.baseURL = baseURL

	return f
}

func (f *HandlerFactory) Create(_ context.Context, config map[string]any) (protocol.Handler, error) {
	return NewHandler(config, f.persistence, f.baseURL, f.logger)
}

func (f *HandlerFactory) ID() string {
	return "messaging"
}

func (f *HandlerFactory) Name() string {
	return "Send Message"
}

func (f *HandlerFactory) Description() string {
	return "Sends an SMS to the call's contact with placeholders filled from the call context."
}

func (f *HandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message text. Supports {key} placeholders.",
				"examples": []string{
					"Hi {name}, thanks for calling. Your appointment is {appointment_start_time}.",
				},
			},
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient number. Defaults to the contact phone from the call.",
			},
			"from": map[string]any{
				"type":        "string",
				"description": "Sender number fallback when neither the assistant nor the credential provides one.",
			},
		},
		"required":             []string{"message"},
		"additionalProperties": false,
	}
}
