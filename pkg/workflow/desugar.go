package workflow

import (
	"fmt"

	"github.com/ringflow/ringflow/pkg/models"
)

// Desugar rewrites every router node into a chain of synthetic condition
// nodes with first-match-wins semantics. The rewrite is pure: the stored
// workflow is never mutated, and the synthetic nodes exist only for the
// lifetime of one execution.
//
// For a router with N branches:
//   - one condition node per branch, id {routerID}_condition_{i}
//   - edges that targeted the router now target condition 0, tagged always
//   - each branch's outgoing edges (sourceHandle branch-{i} or
//     branch-{branchID}) are re-sourced from condition i, tagged router_true
//   - condition i chains to i+1 via a router_false edge; the last branch has
//     none, so an all-miss falls through to nothing
//
// A router with zero branches is left untouched.
func Desugar(wf *models.Workflow) ([]*models.Node, []*models.Edge) {
	routers := make(map[string]models.RouterConfig)

	for _, node := range wf.Nodes {
		if node.Type != models.NodeTypeRouter {
			continue
		}

		var cfg models.RouterConfig
		if err := models.DecodeConfig(node.Data, &cfg); err != nil {
			continue
		}

		if len(cfg.Branches) > 0 {
			routers[node.ID] = cfg
		}
	}

	if len(routers) == 0 {
		return wf.Nodes, wf.Edges
	}

	nodes := make([]*models.Node, 0, len(wf.Nodes))
	edges := make([]*models.Edge, 0, len(wf.Edges))

	for _, node := range wf.Nodes {
		cfg, isRouter := routers[node.ID]
		if !isRouter {
			nodes = append(nodes, node)

			continue
		}

		for i, branch := range cfg.Branches {
			nodes = append(nodes, syntheticConditionNode(node, i, branch))

			if i < len(cfg.Branches)-1 {
				edges = append(edges, &models.Edge{
					ID:     fmt.Sprintf("%s_chain_%d", node.ID, i),
					Source: conditionNodeID(node.ID, i),
					Target: conditionNodeID(node.ID, i+1),
					Data:   &models.EdgeData{Condition: models.EdgeConditionRouterFalse},
				})
			}
		}
	}

	// The source and target rewrites are independent and must compose: an
	// edge leaving one router's branch into another router is re-sourced
	// from the upstream synthetic condition and redirected to the
	// downstream condition 0, keeping the router_true tag.
	for _, edge := range wf.Edges {
		_, targetsRouter := routers[edge.Target]
		sourceCfg, sourcesRouter := routers[edge.Source]

		if !targetsRouter && !sourcesRouter {
			edges = append(edges, edge)

			continue
		}

		rewritten := *edge

		if sourcesRouter {
			branchIndex, ok := matchBranchHandle(edge.SourceHandle, sourceCfg.Branches)
			if !ok {
				// Stale handle from a deleted branch; the edge dies with
				// the router.
				continue
			}

			rewritten.Source = conditionNodeID(edge.Source, branchIndex)
			rewritten.SourceHandle = ""
			rewritten.Data = &models.EdgeData{Condition: models.EdgeConditionRouterTrue}
		}

		if targetsRouter {
			rewritten.Target = conditionNodeID(edge.Target, 0)

			if !sourcesRouter {
				rewritten.Data = &models.EdgeData{Condition: models.EdgeConditionAlways}
			}
		}

		edges = append(edges, &rewritten)
	}

	return nodes, edges
}

func conditionNodeID(routerID string, index int) string {
	return fmt.Sprintf("%s_condition_%d", routerID, index)
}

func syntheticConditionNode(router *models.Node, index int, branch models.RouterBranch) *models.Node {
	condition := branch.Condition
	if condition.Variable == "" {
		condition.Variable = "{outcome}"
	}

	if condition.Operator == "" {
		condition.Operator = models.OperatorContains
	}

	return &models.Node{
		ID:   conditionNodeID(router.ID, index),
		Type: models.NodeTypeCondition,
		Position: models.Position{
			X: router.Position.X + float64(200*(index+1)),
			Y: router.Position.Y,
		},
		Data: map[string]any{
			"conditions": []any{map[string]any{
				"variable": condition.Variable,
				"operator": string(condition.Operator),
				"value":    condition.Value,
			}},
			"logic": string(models.LogicAnd),
		},
	}
}

func matchBranchHandle(handle string, branches []models.RouterBranch) (int, bool) {
	for i, branch := range branches {
		if handle == fmt.Sprintf("branch-%d", i) {
			return i, true
		}

		if branch.ID != "" && handle == "branch-"+branch.ID {
			return i, true
		}
	}

	return 0, false
}
