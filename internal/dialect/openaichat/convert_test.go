package openaichat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqwe/anyproxyai/internal/canonical"
	"github.com/loqwe/anyproxyai/internal/thinking"
)

func raw(v string) json.RawMessage { return json.RawMessage(v) }

func TestToCanonicalSystemConcatenation(t *testing.T) {
	req := WireRequest{
		Model: "gpt-4o",
		Messages: []WireMessage{
			{Role: "system", Content: raw(`"first"`)},
			{Role: "system", Content: raw(`"second"`)},
			{Role: "user", Content: raw(`"hi"`)},
		},
	}
	got := ToCanonical(req, thinking.NewStore())
	require.NotNil(t, got.System)
	assert.Equal(t, "first\nsecond", got.System.Text())
}

func TestToCanonicalToolResultsFlushBeforeNextNonTool(t *testing.T) {
	req := WireRequest{
		Model: "gpt-4o",
		Messages: []WireMessage{
			{Role: "user", Content: raw(`"do it"`)},
			{Role: "assistant", ToolCalls: []WireToolCall{{ID: "t1", Type: "function", Function: WireToolCallFn{Name: "foo", Arguments: `{"a":1}`}}}},
			{Role: "tool", ToolCallID: "t1", Content: raw(`"result"`)},
			{Role: "user", Content: raw(`"thanks"`)},
		},
	}
	got := ToCanonical(req, thinking.NewStore())
	require.Len(t, got.Messages, 3)
	assert.Equal(t, canonical.RoleUser, got.Messages[0].Role)
	assert.Equal(t, canonical.RoleAssistant, got.Messages[1].Role)
	assert.Equal(t, canonical.RoleUser, got.Messages[2].Role)
	require.Len(t, got.Messages[2].Content.Blocks, 1)
	assert.Equal(t, canonical.BlockToolResult, got.Messages[2].Content.Blocks[0].Type)
}

func TestToCanonicalReasoningContentBecomesThinkingBlock(t *testing.T) {
	store := thinking.NewStore()
	store.Put(repeatStr("sig-", 15))

	req := WireRequest{
		Model: "gpt-4o",
		Messages: []WireMessage{
			{Role: "user", Content: raw(`"hi"`)},
			{Role: "assistant", ReasoningContent: "because", Content: raw(`"answer"`)},
		},
	}
	got := ToCanonical(req, store)
	blocks := got.Messages[1].Content.Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, canonical.BlockThinking, blocks[0].Type)
	assert.Equal(t, "because", blocks[0].Thinking)
	sig, _ := store.Get()
	assert.Equal(t, sig, blocks[0].Signature)
	assert.Equal(t, canonical.BlockText, blocks[1].Type)
}

func TestToCanonicalToolCallBadArgumentsYieldEmptyObject(t *testing.T) {
	req := WireRequest{
		Model: "gpt-4o",
		Messages: []WireMessage{
			{Role: "user", Content: raw(`"hi"`)},
			{Role: "assistant", ToolCalls: []WireToolCall{{ID: "t1", Function: WireToolCallFn{Name: "foo", Arguments: "not json"}}}},
		},
	}
	got := ToCanonical(req, thinking.NewStore())
	blocks := got.Messages[1].Content.Blocks
	require.Len(t, blocks, 1)
	assert.JSONEq(t, "{}", string(blocks[0].Input))
}

func TestToCanonicalSentinelStringsTreatedAsAbsent(t *testing.T) {
	req := WireRequest{
		Model: "gpt-4o",
		Messages: []WireMessage{
			{Role: "system", Content: raw(`"undefined"`)},
			{Role: "user", Content: raw(`"[undefined]"`)},
		},
	}
	got := ToCanonical(req, thinking.NewStore())
	assert.Nil(t, got.System)
	require.Len(t, got.Messages, 1)
	assert.Empty(t, got.Messages[0].Content.Blocks)
}

func TestToCanonicalUserImagePart(t *testing.T) {
	req := WireRequest{
		Model: "gpt-4o",
		Messages: []WireMessage{
			{Role: "user", Content: raw(`[{"type":"text","text":"look"},{"type":"image_url","image_url":{"url":"data:image/png;base64,QUJD"}}]`)},
		},
	}
	got := ToCanonical(req, thinking.NewStore())
	blocks := got.Messages[0].Content.Blocks
	require.Len(t, blocks, 2)
	assert.Equal(t, canonical.BlockImage, blocks[1].Type)
	assert.Equal(t, "image/png", blocks[1].Source.MediaType)
	assert.Equal(t, "QUJD", blocks[1].Source.Data)
}

func TestToCanonicalMaxTokensDefaultsWhenMissing(t *testing.T) {
	req := WireRequest{Model: "gpt-4o", Messages: []WireMessage{{Role: "user", Content: raw(`"hi"`)}}}
	got := ToCanonical(req, thinking.NewStore())
	assert.Equal(t, canonical.DefaultMaxTokens, got.MaxTokens)
}

func TestFromCanonicalToolUseMapsFinishReason(t *testing.T) {
	resp := &canonical.Response{
		Model:      "claude-sonnet-4-5",
		StopReason: canonical.StopToolUse,
		Content: []canonical.Block{
			{Type: canonical.BlockThinking, Thinking: "because"},
			{Type: canonical.BlockToolUse, ID: "t1", Name: "foo", Input: raw(`{"a":1}`)},
		},
	}
	wire := FromCanonical(resp)
	assert.Equal(t, "tool_calls", wire.Choices[0].FinishReason)
	assert.Equal(t, "because", wire.Choices[0].Message.ReasoningContent)
	assert.Equal(t, "null", string(wire.Choices[0].Message.Content))
	require.Len(t, wire.Choices[0].Message.ToolCalls, 1)
}

func repeatStr(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
