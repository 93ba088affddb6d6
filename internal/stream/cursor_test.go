package stream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorEmitterFinishReasonToolCalls(t *testing.T) {
	var buf bytes.Buffer
	e := NewCursorEmitter(&buf, func() {}, "claude-sonnet-4-5")
	require.NoError(t, e.Feed(ResponsePart{FunctionCall: &ResponseFunctionCall{Name: "foo", ID: "1", Args: []byte(`{}`)}}))
	require.NoError(t, e.Finish())
	out := buf.String()
	assert.Contains(t, out, `"finish_reason":"tool_calls"`)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "data: [DONE]"))
}

func TestCursorEmitterPlainStopReason(t *testing.T) {
	var buf bytes.Buffer
	e := NewCursorEmitter(&buf, func() {}, "claude-sonnet-4-5")
	require.NoError(t, e.Feed(ResponsePart{Text: "hi"}))
	require.NoError(t, e.Finish())
	assert.Contains(t, buf.String(), `"finish_reason":"stop"`)
}
