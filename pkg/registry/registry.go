// Package registry holds the effect-handler factories the engine dispatches to.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ringflow/ringflow/pkg/protocol"
)

// Registry maps node types to handler factories. New node types are added
// at startup; lookups during execution are read-only.
type Registry struct {
	logger           *slog.Logger
	handlerFactories map[string]protocol.HandlerFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:           logger.With("module", "registry"),
		handlerFactories: make(map[string]protocol.HandlerFactory),
	}
}

// RegisterHandler adds a factory, replacing any previous one for the same type.
func (r *Registry) RegisterHandler(factory protocol.HandlerFactory) {
	r.handlerFactories[factory.ID()] = factory
	r.logger.Debug("Registered handler factory", "node_type", factory.ID())
}

// CreateHandler builds a handler for the given node type and data payload.
func (r *Registry) CreateHandler(ctx context.Context, nodeType string, config map[string]any) (protocol.Handler, error) {
	factory, ok := r.handlerFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type %q not registered", nodeType)
	}

	return factory.Create(ctx, config)
}

// Factory returns the registered factory for a node type.
func (r *Registry) Factory(nodeType string) (protocol.HandlerFactory, error) {
	factory, ok := r.handlerFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type %q not registered", nodeType)
	}

	return factory, nil
}

// IsRegistered reports whether a handler factory exists for the node type.
func (r *Registry) IsRegistered(nodeType string) bool {
	_, ok := r.handlerFactories[nodeType]

	return ok
}

// HandlerTypes returns the registered node types, sorted.
func (r *Registry) HandlerTypes() []string {
	types := make([]string, 0, len(r.handlerFactories))
	for nodeType := range r.handlerFactories {
		types = append(types, nodeType)
	}

	sort.Strings(types)

	return types
}

// HealthCheck reports registry readiness for the API health endpoint.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.handlerFactories) == 0 {
		return "No handler factories registered", false
	}

	return fmt.Sprintf("%d handler factories registered", len(r.handlerFactories)), true
}
