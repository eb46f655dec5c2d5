// Package workflow implements the graph execution engine: router
// desugaring, condition evaluation, trigger matching and the recursive
// traversal that dispatches effect handlers.
package workflow

import (
	"strings"

	"github.com/ringflow/ringflow/pkg/models"
	"github.com/ringflow/ringflow/pkg/template"
)

// EvaluateConditions applies a condition node's predicate set against the
// execution context. Comparison is case-insensitive on the stringified
// values. Malformed input never fails; it degrades to false per condition.
// An empty condition list under AND is vacuously true.
func EvaluateConditions(cfg models.ConditionConfig, flat, original map[string]any) bool {
	if cfg.Logic == models.LogicOr {
		for _, condition := range cfg.Conditions {
			if evaluateCondition(condition, flat, original) {
				return true
			}
		}

		return false
	}

	// AND is the default for unset or unknown logic values.
	for _, condition := range cfg.Conditions {
		if !evaluateCondition(condition, flat, original) {
			return false
		}
	}

	return true
}

func evaluateCondition(condition models.Condition, flat, original map[string]any) bool {
	name := strings.TrimSuffix(strings.TrimPrefix(condition.Variable, "{"), "}")

	var actual string
	if strings.Contains(name, ".") {
		if v, ok := resolveDottedVariable(original, name); ok {
			actual = template.Stringify(v)
		}
	} else {
		actual = template.Stringify(flat[name])
	}

	actual = strings.ToLower(actual)
	expected := strings.ToLower(condition.Value)

	switch condition.Operator {
	case models.OperatorEquals:
		return actual == expected
	case models.OperatorNotEquals:
		return actual != expected
	case models.OperatorContains:
		return strings.Contains(actual, expected)
	case models.OperatorNotContains:
		return !strings.Contains(actual, expected)
	case models.OperatorExists:
		return actual != "" && actual != "undefined" && actual != "null"
	default:
		// Unknown operators pass so a new editor version cannot wedge an
		// existing workflow.
		return true
	}
}

// resolveDottedVariable walks a dotted variable through the original nested
// context. The appointment segment additionally looks inside callData, since
// call events nest appointment details there.
func resolveDottedVariable(original map[string]any, name string) (any, bool) {
	var current any = original

	for _, segment := range strings.Split(name, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = node[segment]
		if !ok {
			if segment != "appointment" {
				return nil, false
			}

			callData, _ := node["callData"].(map[string]any)
			if callData == nil {
				return nil, false
			}

			current, ok = callData["appointment"]
			if !ok {
				return nil, false
			}
		}
	}

	return current, true
}
