// Package protocol defines the contracts between the traversal engine and
// its pluggable collaborators.
package protocol

import (
	"context"

	"github.com/ringflow/ringflow/pkg/models"
)

// Handler performs the real-world effect of one node. It may read and
// mutate the execution context's data for downstream nodes. Returning an
// error halts the current branch only; sibling branches keep running. A
// recoverable skip (for example no resolvable target phone number) is
// logged inside the handler and returns nil.
type Handler interface {
	Execute(ctx context.Context, execCtx *models.ExecutionContext) error
}

// HandlerFactory builds handler instances for one node type from the node's
// data payload.
type HandlerFactory interface {
	Create(ctx context.Context, config map[string]any) (Handler, error)

	// ID returns the node type this factory serves.
	ID() string

	// Name returns the human-readable name for this node type.
	Name() string

	// Description returns what the handler does.
	Description() string

	// Schema returns the JSON schema for the node's data payload.
	Schema() map[string]any
}
