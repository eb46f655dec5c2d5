package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ringflow/ringflow/pkg/eventbus"
	"github.com/ringflow/ringflow/pkg/events"
	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/otelhelper"
	"github.com/ringflow/ringflow/pkg/registry"
	"github.com/ringflow/ringflow/pkg/template"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const EventCallEnded = "call_ended"

// Executor walks a workflow graph depth-first, dispatching each node to its
// effect handler. Invocations are fire-and-forget from the caller's point of
// view: configuration absences (inactive workflow, no matching trigger node)
// end quietly, and a handler failure terminates only its own branch.
type Executor struct {
	registry *registry.Registry
	logger   *slog.Logger
	eventBus eventbus.EventBus
	tracer   trace.Tracer
}

type ExecutorOption func(*Executor)

// WithEventBus makes the executor publish lifecycle events.
func WithEventBus(bus eventbus.EventBus) ExecutorOption {
	return func(e *Executor) {
		e.eventBus = bus
	}
}

// WithTracer enables spans around executions and node dispatch.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

func NewExecutor(logger *slog.Logger, reg *registry.Registry, opts ...ExecutorOption) *Executor {
	executor := &Executor{
		registry: reg,
		logger:   logger.With("module", "workflow_executor"),
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// execGraph is the execution-local, desugared view of one workflow.
type execGraph struct {
	nodes    map[string]*models.Node
	outgoing map[string][]*models.Edge
}

func newExecGraph(nodes []*models.Node, edges []*models.Edge) *execGraph {
	graph := &execGraph{
		nodes:    make(map[string]*models.Node, len(nodes)),
		outgoing: make(map[string][]*models.Edge, len(nodes)),
	}

	for _, node := range nodes {
		graph.nodes[node.ID] = node
	}

	for _, edge := range edges {
		graph.outgoing[edge.Source] = append(graph.outgoing[edge.Source], edge)
	}

	return graph
}

// Execute runs one workflow to completion for the given context. When
// startNodeID is empty the entry node is resolved from the context's event.
func (e *Executor) Execute(ctx context.Context, wf *models.Workflow, execCtx *models.ExecutionContext, startNodeID string) error {
	if wf == nil {
		return fmt.Errorf("workflow is nil")
	}

	logger := e.logger.With(
		"workflow_id", wf.ID,
		"execution_id", execCtx.ID,
		"event", execCtx.Event,
	)

	if !wf.Runnable() {
		logger.Info("Workflow is not active, skipping execution", "status", wf.Status)

		return nil
	}

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
			attribute.String(otelhelper.WorkflowIDKey, wf.ID),
			attribute.String(otelhelper.ExecutionIDKey, execCtx.ID),
			attribute.String(otelhelper.EventKey, execCtx.Event),
		)
		defer span.End()
	}

	nodes, edges := Desugar(wf)
	graph := newExecGraph(nodes, edges)

	if startNodeID == "" {
		entry := findEntryNode(nodes, execCtx.Event)
		if entry == nil {
			logger.Info("No trigger node matches event, skipping execution")

			return nil
		}

		startNodeID = entry.ID
	}

	startedAt := time.Now()

	e.publish(ctx, logger, wf.ID, events.WorkflowTriggered{
		BaseEvent:   events.NewBaseEvent(events.WorkflowTriggeredEvent, wf.ID),
		ExecutionID: execCtx.ID,
		Event:       execCtx.Event,
		TriggerData: execCtx.Data,
	})

	logger.Info("Starting workflow execution", "start_node", startNodeID)

	visited := make(map[string]bool)
	e.processNode(ctx, graph, startNodeID, execCtx, wf, visited, logger)

	e.publish(ctx, logger, wf.ID, events.WorkflowFinished{
		BaseEvent:   events.NewBaseEvent(events.WorkflowFinishedEvent, wf.ID),
		ExecutionID: execCtx.ID,
		Duration:    time.Since(startedAt),
	})

	logger.Info("Completed workflow execution", "duration", time.Since(startedAt))

	return nil
}

// findEntryNode selects the first node, in array order, that matches the
// incoming event. Several generations of the graph editor stored the event
// name differently, hence the compatibility chain.
func findEntryNode(nodes []*models.Node, event string) *models.Node {
	for _, node := range nodes {
		switch node.Type {
		case models.NodeTypePostCall:
			if event == EventCallEnded {
				return node
			}
		case models.NodeTypeTrigger:
			var cfg models.TriggerConfig
			if err := models.DecodeConfig(node.Data, &cfg); err != nil {
				continue
			}

			if triggerMatches(cfg, event) {
				return node
			}
		}
	}

	return nil
}

func triggerMatches(cfg models.TriggerConfig, event string) bool {
	switch {
	case cfg.Event == event:
		return true
	case cfg.TriggerType == event:
		return true
	case cfg.TriggerType == "webhook" && event == EventCallEnded:
		return true
	case cfg.Event == "" && cfg.TriggerType == "" && event == EventCallEnded:
		return true
	default:
		return false
	}
}

// processNode executes one node and recurses into every outgoing edge whose
// guard passes. visited holds the ids on the current path only, so a cyclic
// edge stops its own branch without affecting siblings.
func (e *Executor) processNode(
	ctx context.Context,
	graph *execGraph,
	nodeID string,
	execCtx *models.ExecutionContext,
	wf *models.Workflow,
	visited map[string]bool,
	logger *slog.Logger,
) {
	if visited[nodeID] {
		logger.Warn("Cycle detected, stopping branch", "node_id", nodeID)

		return
	}

	node, ok := graph.nodes[nodeID]
	if !ok {
		logger.Warn("Edge targets unknown node, stopping branch", "node_id", nodeID)

		return
	}

	visited[nodeID] = true
	defer delete(visited, nodeID)

	outgoing := graph.outgoing[nodeID]

	switch node.Type {
	case models.NodeTypeCondition:
		e.processConditionNode(ctx, graph, node, outgoing, execCtx, wf, visited, logger)

		return

	case models.NodeTypeTrigger, models.NodeTypePostCall:
		// Entry markers have no effect of their own.

	case models.NodeTypeRouter:
		// Only a zero-branch router survives desugaring. Treated as a
		// pass-through no-op; validation flags it at save time.
		logger.Warn("Router node has no branches, passing through", "node_id", node.ID)

	case models.NodeTypeMessaging, models.NodeTypeHTTP, models.NodeTypeCRM,
		models.NodeTypeVoiceCall, models.NodeTypeChat:
		err := e.dispatch(ctx, node, execCtx)
		if err != nil {
			logger.Error("Node handler failed, stopping branch",
				"node_id", node.ID,
				"node_type", node.Type,
				"error", err,
			)
			e.publish(ctx, logger, wf.ID, events.NodeFailed{
				BaseEvent:   events.NewBaseEvent(events.NodeFailedEvent, wf.ID),
				ExecutionID: execCtx.ID,
				NodeID:      node.ID,
				NodeType:    string(node.Type),
				Error:       err.Error(),
			})

			return
		}

	default:
		logger.Warn("Unknown node type, passing through", "node_id", node.ID, "node_type", node.Type)
	}

	for _, edge := range outgoing {
		if !edgeAllows(edge, execCtx) {
			continue
		}

		e.processNode(ctx, graph, edge.Target, execCtx, wf, visited, logger)
	}
}

// processConditionNode evaluates the node's predicate set and picks the
// edge subset to follow. Desugared routers tag their edges router_true /
// router_false; plain condition nodes fall back to all outgoing edges on
// true and terminate on false.
func (e *Executor) processConditionNode(
	ctx context.Context,
	graph *execGraph,
	node *models.Node,
	outgoing []*models.Edge,
	execCtx *models.ExecutionContext,
	wf *models.Workflow,
	visited map[string]bool,
	logger *slog.Logger,
) {
	var cfg models.ConditionConfig
	if err := models.DecodeConfig(node.Data, &cfg); err != nil {
		logger.Warn("Malformed condition node data, treating as vacuously true",
			"node_id", node.ID, "error", err)
	}

	// The flat view must be recomputed per node: an upstream HTTP node may
	// have mutated the context since the last projection.
	flat := template.Flatten(execCtx.Data)
	shouldContinue := EvaluateConditions(cfg, flat, execCtx.Data)

	logger.Debug("Evaluated condition node", "node_id", node.ID, "result", shouldContinue)

	var candidates []*models.Edge

	if shouldContinue {
		candidates = filterEdgesByTag(outgoing, models.EdgeConditionRouterTrue)
		if len(candidates) == 0 {
			candidates = outgoing
		}
	} else {
		candidates = filterEdgesByTag(outgoing, models.EdgeConditionRouterFalse)
		if len(candidates) == 0 {
			// Last branch of a desugared router, or a plain condition
			// gate: nothing to do.
			return
		}
	}

	for _, edge := range candidates {
		if !edgeAllows(edge, execCtx) {
			continue
		}

		e.processNode(ctx, graph, edge.Target, execCtx, wf, visited, logger)
	}
}

func (e *Executor) dispatch(ctx context.Context, node *models.Node, execCtx *models.ExecutionContext) error {
	var span trace.Span

	if e.tracer != nil {
		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "workflow.node",
			attribute.String(otelhelper.NodeIDKey, node.ID),
			attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
		)
		defer span.End()
	}

	handler, err := e.registry.CreateHandler(ctx, string(node.Type), node.Data)
	if err != nil {
		err = fmt.Errorf("failed to create handler for node %s: %w", node.ID, err)
		otelhelper.MarkFailed(span, err)

		return err
	}

	err = handler.Execute(ctx, execCtx)
	if err != nil {
		otelhelper.MarkFailed(span, err)
	}

	return err
}

// edgeAllows applies the edge guard. Unknown or missing tags pass.
func edgeAllows(edge *models.Edge, execCtx *models.ExecutionContext) bool {
	switch edge.GuardTag() {
	case models.EdgeConditionBooked:
		return strings.Contains(strings.ToLower(execCtx.Outcome()), "booked")
	case models.EdgeConditionNotBooked:
		return !strings.Contains(strings.ToLower(execCtx.Outcome()), "booked")
	case models.EdgeConditionAlways, models.EdgeConditionRouterTrue, models.EdgeConditionRouterFalse:
		return true
	default:
		return true
	}
}

func filterEdgesByTag(edges []*models.Edge, tag models.EdgeCondition) []*models.Edge {
	var matched []*models.Edge

	for _, edge := range edges {
		if edge.GuardTag() == tag {
			matched = append(matched, edge)
		}
	}

	return matched
}

func (e *Executor) publish(ctx context.Context, logger *slog.Logger, key string, event events.Event) {
	if e.eventBus == nil {
		return
	}

	err := e.eventBus.Publish(ctx, key, event)
	if err != nil {
		logger.Error("Failed to publish lifecycle event", "event_type", event.GetType(), "error", err)
	}
}

// GenerateExecutionID returns a short unique id for one execution.
func GenerateExecutionID() string {
	return "exec-" + uuid.New().String()[:8]
}
