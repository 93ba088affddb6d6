package stream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyEmitterConcatenatesTextChunks(t *testing.T) {
	var buf bytes.Buffer
	e := NewLegacyEmitter(&buf, func() {}, "claude-sonnet-4-5")
	require.NoError(t, e.Feed(ResponsePart{Text: "hello "}))
	require.NoError(t, e.Feed(ResponsePart{Thought: true, Text: "reasoning, dropped"}))
	require.NoError(t, e.Feed(ResponsePart{Text: "world"}))
	require.NoError(t, e.Finish())

	out := buf.String()
	assert.Contains(t, out, `"text":"hello "`)
	assert.Contains(t, out, `"text":"world"`)
	assert.NotContains(t, out, "dropped")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "data: [DONE]"))
}
