// Package schema rewrites arbitrary JSON-Schema fragments into the
// restricted dialect the upstream tool-calling protocol accepts.
package schema

import "strings"

const maxDepth = 10

// deletedKeys is the fixed set of keys dropped outright at every level.
var deletedKeys = map[string]bool{
	"$schema": true, "$id": true, "$ref": true,
	"minLength": true, "maxLength": true, "minimum": true, "maximum": true,
	"exclusiveMinimum": true, "exclusiveMaximum": true, "multipleOf": true,
	"minItems": true, "maxItems": true, "uniqueItems": true,
	"oneOf": true, "anyOf": true, "allOf": true, "not": true,
	"if": true, "then": true, "else": true,
	"$defs": true, "definitions": true,
	"minProperties": true, "maxProperties": true,
	"patternProperties": true, "propertyNames": true,
	"dependencies": true, "dependentSchemas": true, "dependentRequired": true,
	"default": true, "const": true, "examples": true, "deprecated": true,
	"readOnly": true, "writeOnly": true,
	"contentEncoding": true, "contentMediaType": true, "contentSchema": true,
	"strict": true,
}

var allowedFormats = map[string]bool{
	"date-time": true, "date": true, "time": true,
}

var allowedTypes = map[string]bool{
	"STRING": true, "NUMBER": true, "INTEGER": true,
	"BOOLEAN": true, "ARRAY": true, "OBJECT": true,
}

// Sanitize rewrites s into the restricted dialect. It never fails: unknown
// or malformed values coerce to safe defaults. Sanitize(Sanitize(s)) ==
// Sanitize(s) (idempotent, invariant I2).
func Sanitize(s map[string]any) map[string]any {
	return sanitize(s, 0)
}

func sanitize(s map[string]any, depth int) map[string]any {
	if s == nil {
		return defaultSchema()
	}
	if depth >= maxDepth {
		return defaultSchema()
	}

	out := make(map[string]any, len(s))

	typ := normalizeType(s["type"])
	out["type"] = typ

	if f, ok := s["format"].(string); ok && allowedFormats[f] {
		out["format"] = f
	}

	if ap, ok := s["additionalProperties"]; ok {
		if b, ok := ap.(bool); ok {
			out["additionalProperties"] = b
		} else {
			out["additionalProperties"] = false
		}
	}

	if props, ok := s["properties"]; ok {
		out["properties"] = sanitizeProperties(props, depth)
	}

	if items, ok := s["items"]; ok {
		switch v := items.(type) {
		case map[string]any:
			out["items"] = sanitize(v, depth+1)
		default:
			out["items"] = defaultSchema()
		}
	}

	for _, passthrough := range []string{"description", "enum", "required"} {
		if v, ok := s[passthrough]; ok {
			out[passthrough] = v
		}
	}

	if typ == "OBJECT" {
		if _, ok := out["properties"]; !ok {
			out["properties"] = map[string]any{}
		}
	}

	return out
}

func sanitizeProperties(props any, depth int) map[string]any {
	m, ok := props.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for name, v := range m {
		switch val := v.(type) {
		case string:
			// shorthand type name, e.g. "string" -> {type: STRING}
			out[name] = map[string]any{"type": normalizeType(val)}
		case map[string]any:
			out[name] = sanitize(val, depth+1)
		case nil:
			out[name] = defaultSchema()
		default:
			out[name] = defaultSchema()
		}
	}
	return out
}

func defaultSchema() map[string]any {
	return map[string]any{"type": "STRING"}
}

// normalizeType maps an arbitrary `type` value to the restricted enum.
// Missing, null, unknown, or union-list types collapse to STRING; a
// union-typed list collapses to its first non-null member.
func normalizeType(t any) string {
	switch v := t.(type) {
	case string:
		return coerceTypeName(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && !strings.EqualFold(s, "null") {
				return coerceTypeName(s)
			}
		}
		return "STRING"
	default:
		return "STRING"
	}
}

func coerceTypeName(s string) string {
	up := strings.ToUpper(strings.TrimSpace(s))
	if up == "NULL" || up == "" {
		return "STRING"
	}
	if allowedTypes[up] {
		return up
	}
	return "STRING"
}
