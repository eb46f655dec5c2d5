// Package template implements variable interpolation for workflow node
// configuration: a flat projection of the execution context plus `{path}`
// placeholder expansion against it.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// unwrapValue peels the {value: ...} envelope that AI field extraction wraps
// around structured data entries. Anything else passes through untouched.
func unwrapValue(v any) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["value"]; ok {
			return inner
		}
	}

	return v
}

// Stringify renders a context value for substitution into a template.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(b)
	}
}

// isEmpty reports whether a value should be treated as unset when applying
// fill-if-absent semantics.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}

	if s, ok := v.(string); ok {
		return s == ""
	}

	return false
}

// mapAt returns m[key] as a map, or nil when absent or differently shaped.
func mapAt(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}

	child, _ := m[key].(map[string]any)

	return child
}
