package stream

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponsesEmitterSequenceIncreasesMonotonically(t *testing.T) {
	var buf bytes.Buffer
	e := NewResponsesEmitter(&buf, func() {}, "claude-sonnet-4-5")
	require.NoError(t, e.Created())
	require.NoError(t, e.Feed(ResponsePart{Text: "42"}))
	require.NoError(t, e.Finish())

	var sequences []int
	for _, line := range strings.Split(buf.String(), "\n") {
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var obj map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &obj))
		sequences = append(sequences, int(obj["sequence_number"].(float64)))
	}
	require.True(t, len(sequences) >= 6)
	for i := 1; i < len(sequences); i++ {
		assert.Greater(t, sequences[i], sequences[i-1])
	}
}

func TestResponsesEmitterFunctionCallClosesOpenMessage(t *testing.T) {
	var buf bytes.Buffer
	e := NewResponsesEmitter(&buf, func() {}, "claude-sonnet-4-5")
	require.NoError(t, e.Created())
	require.NoError(t, e.Feed(ResponsePart{Text: "partial"}))
	require.NoError(t, e.Feed(ResponsePart{FunctionCall: &ResponseFunctionCall{Name: "foo", Args: []byte(`{}`)}}))
	require.NoError(t, e.Finish())

	out := buf.String()
	assert.Contains(t, out, "response.output_item.done")
	assert.Contains(t, out, "function_call")
}
