package models

// ConditionOperator is the comparison applied by a single condition.
type ConditionOperator string

const (
	OperatorEquals      ConditionOperator = "equals"
	OperatorNotEquals   ConditionOperator = "not_equals"
	OperatorContains    ConditionOperator = "contains"
	OperatorNotContains ConditionOperator = "not_contains"
	OperatorExists      ConditionOperator = "exists"
)

// ConditionLogic combines the results of a condition list.
type ConditionLogic string

const (
	LogicAnd ConditionLogic = "AND"
	LogicOr  ConditionLogic = "OR"
)

// Condition is a single comparison against the execution context. Variable
// may be written with or without literal braces ({outcome} or outcome).
type Condition struct {
	Variable string            `json:"variable" mapstructure:"variable"`
	Operator ConditionOperator `json:"operator" mapstructure:"operator"`
	Value    string            `json:"value"    mapstructure:"value"`
}

// RouterBranch is one labeled branch of a router node. Its condition
// defaults to `{outcome} contains <value>` when variable/operator are unset.
type RouterBranch struct {
	ID        string    `json:"id,omitempty"    mapstructure:"id"`
	Label     string    `json:"label,omitempty" mapstructure:"label"`
	Condition Condition `json:"condition"       mapstructure:"condition"`
}
