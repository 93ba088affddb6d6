package legacy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

func TestToCanonicalStringPrompt(t *testing.T) {
	req := WireRequest{Model: "gpt-3.5-turbo-instruct", Prompt: json.RawMessage(`"say hi"`)}
	got := ToCanonical(req)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "say hi", got.Messages[0].Content.Text())
}

func TestToCanonicalListPromptJoinedByNewline(t *testing.T) {
	req := WireRequest{Model: "gpt-3.5-turbo-instruct", Prompt: json.RawMessage(`["a","b"]`)}
	got := ToCanonical(req)
	assert.Equal(t, "a\nb", got.Messages[0].Content.Text())
}

func TestFromCanonicalCollectsTextChoice(t *testing.T) {
	resp := &canonical.Response{
		Model: "claude-sonnet-4-5",
		Content: []canonical.Block{
			{Type: canonical.BlockText, Text: "hello "},
			{Type: canonical.BlockText, Text: "world"},
		},
		StopReason: canonical.StopEndTurn,
	}
	wire := FromCanonical(resp)
	assert.Equal(t, "text_completion", wire.Object)
	assert.Equal(t, "hello world", wire.Choices[0].Text)
	assert.Equal(t, "stop", wire.Choices[0].FinishReason)
}
