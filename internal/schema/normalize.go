// JSON Schema normalization for strict function calling.
//
// Information Hiding:
// - The structural rules strict mode imposes on JSON Schema
// - Which schema keywords carry nested subschemas

package schema

import "sort"

// Normalize returns a deep copy of a JSON Schema adjusted to satisfy
// strict-mode function calling: every object schema gets
// "additionalProperties": false and a "required" array listing every
// property. The input is never mutated, so callers can hand the same
// tool definition to providers with different strictness rules.
func Normalize(schema map[string]any) map[string]any {
	normalized, _ := normalizeValue(schema).(map[string]any)
	return normalized
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeObject(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func normalizeObject(schema map[string]any) map[string]any {
	out := make(map[string]any, len(schema)+2)
	for k, v := range schema {
		switch k {
		// Maps of named subschemas, not schemas themselves: recurse
		// into the values so the container is never mistaken for an
		// object schema.
		case "properties", "$defs", "definitions":
			if sub, ok := v.(map[string]any); ok {
				copied := make(map[string]any, len(sub))
				for name, propSchema := range sub {
					copied[name] = normalizeValue(propSchema)
				}
				out[k] = copied
				continue
			}
			out[k] = v
		default:
			out[k] = normalizeValue(v)
		}
	}

	if isObjectSchema(out) {
		out["additionalProperties"] = false
		out["required"] = propertyNames(out)
	}
	return out
}

func isObjectSchema(schema map[string]any) bool {
	if t, ok := schema["type"].(string); ok && t == "object" {
		return true
	}
	_, hasProps := schema["properties"]
	return hasProps
}

// propertyNames lists every property, sorted for stable output.
func propertyNames(schema map[string]any) []string {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return []string{}
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
