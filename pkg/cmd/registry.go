// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"log/slog"

	"github.com/ringflow/ringflow/pkg/handlers/chat"
	"github.com/ringflow/ringflow/pkg/handlers/crm"
	"github.com/ringflow/ringflow/pkg/handlers/httpcall"
	"github.com/ringflow/ringflow/pkg/handlers/messaging"
	"github.com/ringflow/ringflow/pkg/handlers/voicecall"
	"github.com/ringflow/ringflow/pkg/persistence"
	"github.com/ringflow/ringflow/pkg/registry"
)

// NewRegistry builds the handler registry with every built-in node handler.
func NewRegistry(logger *slog.Logger, p persistence.Persistence) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterHandler(messaging.NewHandlerFactory(logger, p))
	reg.RegisterHandler(httpcall.NewHandlerFactory(logger))
	reg.RegisterHandler(crm.NewHandlerFactory(logger, p))
	reg.RegisterHandler(voicecall.NewHandlerFactory(logger, p))
	reg.RegisterHandler(chat.NewHandlerFactory(logger, p))

	return reg
}
