package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeDeletesCombinators(t *testing.T) {
	in := map[string]any{
		"type":   "object",
		"$schema": "http://json-schema.org/draft-07/schema#",
		"oneOf":  []any{map[string]any{"type": "string"}},
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "minLength": 3},
		},
	}
	out := Sanitize(in)
	assert.Equal(t, "OBJECT", out["type"])
	_, hasOneOf := out["oneOf"]
	assert.False(t, hasOneOf)
	_, hasSchema := out["$schema"]
	assert.False(t, hasSchema)
	props := out["properties"].(map[string]any)
	name := props["name"].(map[string]any)
	assert.Equal(t, "STRING", name["type"])
	_, hasMinLen := name["minLength"]
	assert.False(t, hasMinLen)
}

func TestSanitizeObjectAlwaysHasProperties(t *testing.T) {
	out := Sanitize(map[string]any{"type": "object"})
	props, ok := out["properties"]
	require.True(t, ok)
	assert.Equal(t, map[string]any{}, props)
}

func TestSanitizeUnknownTypeCollapsesToString(t *testing.T) {
	out := Sanitize(map[string]any{"type": "null"})
	assert.Equal(t, "STRING", out["type"])

	out = Sanitize(map[string]any{"type": []any{"null", "number"}})
	assert.Equal(t, "NUMBER", out["type"])
}

func TestSanitizeShorthandProperty(t *testing.T) {
	out := Sanitize(map[string]any{
		"type":       "object",
		"properties": map[string]any{"age": "integer"},
	})
	props := out["properties"].(map[string]any)
	age := props["age"].(map[string]any)
	assert.Equal(t, "INTEGER", age["type"])
}

func TestSanitizeIsIdempotent(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "format": "uuid"},
			},
		},
		"additionalProperties": "nope",
	}
	once := Sanitize(in)
	twice := Sanitize(once)
	assert.Equal(t, once, twice)
}

func TestSanitizeNilReturnsDefault(t *testing.T) {
	out := Sanitize(nil)
	assert.Equal(t, "STRING", out["type"])
}
