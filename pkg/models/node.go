package models

// NodeType is the closed set of node kinds the engine dispatches on.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypePostCall  NodeType = "post_call" // Legacy trigger type, always matches call_ended
	NodeTypeCondition NodeType = "condition"
	NodeTypeRouter    NodeType = "router"
	NodeTypeMessaging NodeType = "messaging"
	NodeTypeHTTP      NodeType = "http"
	NodeTypeCRM       NodeType = "crm"
	NodeTypeVoiceCall NodeType = "voice_call"
	NodeTypeChat      NodeType = "chat"
)

// Position is graph-editor layout data, opaque to the engine.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single vertex of a workflow graph. Data is type-dependent and
// decoded into a typed config at the workflow-load boundary (see payloads.go).
type Node struct {
	ID       string         `json:"id"   validate:"required"`
	Type     NodeType       `json:"type" validate:"required"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data"`
}

// IsTrigger reports whether the node can serve as a workflow entry point.
func (n *Node) IsTrigger() bool {
	return n.Type == NodeTypeTrigger || n.Type == NodeTypePostCall
}

// EdgeCondition guards traversal across an edge.
type EdgeCondition string

const (
	EdgeConditionAlways      EdgeCondition = "always"
	EdgeConditionBooked      EdgeCondition = "booked"
	EdgeConditionNotBooked   EdgeCondition = "not_booked"
	EdgeConditionRouterTrue  EdgeCondition = "router_true"
	EdgeConditionRouterFalse EdgeCondition = "router_false"
)

// EdgeData carries the optional guard tag of an edge.
type EdgeData struct {
	Condition EdgeCondition `json:"condition,omitempty"`
}

// Edge is a directed, optionally guarded transition between two nodes.
type Edge struct {
	ID           string    `json:"id"`
	Source       string    `json:"source" validate:"required"`
	Target       string    `json:"target" validate:"required"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	Data         *EdgeData `json:"data,omitempty"`
}

// GuardTag returns the edge's condition tag, or empty when untagged.
func (e *Edge) GuardTag() EdgeCondition {
	if e.Data == nil {
		return ""
	}

	return e.Data.Condition
}
