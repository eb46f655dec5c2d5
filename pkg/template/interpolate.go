package template

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Interpolate expands every {key} placeholder in the template against the
// flattened view, falling back to dot-path lookups in the original nested
// context. A key that resolves nowhere keeps its literal {key} token, so a
// missing variable stays visible in the output instead of vanishing.
func Interpolate(tmpl string, flat, original map[string]any) string {
	if tmpl == "" || !strings.Contains(tmpl, "{") {
		return tmpl
	}

	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		key := token[1 : len(token)-1]

		if value, ok := resolveKey(key, flat, original); ok {
			return value
		}

		return token
	})
}

// HasUnresolved reports whether s still carries a {key} token, i.e. an
// interpolation left a placeholder in place because the key resolved nowhere.
func HasUnresolved(s string) bool {
	return placeholderPattern.MatchString(s)
}

// InterpolateMap expands each value of a string map, e.g. HTTP headers.
func InterpolateMap(values map[string]string, flat, original map[string]any) map[string]string {
	if values == nil {
		return nil
	}

	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = Interpolate(v, flat, original)
	}

	return out
}

func resolveKey(key string, flat, original map[string]any) (string, bool) {
	// Exact flat match first. A present-but-empty value still resolves; only
	// a missing key falls through to the path lookups below.
	if v, ok := flat[key]; ok {
		return Stringify(v), true
	}

	if strings.Contains(key, ".") {
		if v, ok := walkPath(original, strings.Split(key, ".")); ok {
			return Stringify(unwrapValue(v)), true
		}
	}

	if rest, ok := strings.CutPrefix(key, "structured_data."); ok {
		if v, ok := resolveStructuredData(rest, flat, original); ok {
			return v, true
		}
	}

	if rest, ok := strings.CutPrefix(key, "appointment."); ok {
		if v, ok := resolveAppointment(rest, original); ok {
			return v, true
		}
	}

	return "", false
}

// walkPath descends the nested context one segment at a time. The callData
// and appointment segments descend into those objects like any other key;
// the leaf is returned raw for the caller to unwrap or stringify.
func walkPath(m map[string]any, segments []string) (any, bool) {
	var current any = m

	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func resolveStructuredData(rest string, flat, original map[string]any) (string, bool) {
	sd := mapAt(flat, "structured_data")
	if sd == nil {
		sd = mapAt(original, "structured_data")
	}

	if sd == nil {
		sd = mapAt(mapAt(original, "callData"), "structured_data")
	}

	if sd == nil {
		return "", false
	}

	// Direct field lookup for single-segment paths.
	if !strings.Contains(rest, ".") {
		if v, ok := sd[rest]; ok {
			return Stringify(unwrapValue(v)), true
		}

		// The contact name may live under any of three keys depending on
		// which extraction prompt produced the payload.
		if rest == "name" {
			for _, alias := range []string{"Customer Name", "booking_name", "name"} {
				if v, ok := sd[alias]; ok {
					return Stringify(unwrapValue(v)), true
				}
			}
		}

		return "", false
	}

	if v, ok := walkPath(sd, strings.Split(rest, ".")); ok {
		return Stringify(unwrapValue(v)), true
	}

	return "", false
}

// resolveAppointment reads appointment fields from the top level or from
// callData, whichever exists, without value-envelope unwrapping.
func resolveAppointment(rest string, original map[string]any) (string, bool) {
	appt := mapAt(original, "appointment")
	if appt == nil {
		appt = mapAt(mapAt(original, "callData"), "appointment")
	}

	if appt == nil {
		return "", false
	}

	if v, ok := walkPath(appt, strings.Split(rest, ".")); ok {
		return Stringify(v), true
	}

	return "", false
}
