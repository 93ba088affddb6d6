package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

func TestToCanonicalForcesUserRoleOnFunctionResponse(t *testing.T) {
	req := WireRequest{
		Contents: []WireContent{
			{Role: "model", Parts: []WirePart{{FunctionResponse: &WireFunctionResp{Name: "foo", ID: "1", Response: WireFunctionRespInner{Result: "ok"}}}}},
		},
	}
	got := ToCanonical(req, "gemini-2.5-flash")
	require.Len(t, got.Messages, 1)
	assert.Equal(t, canonical.RoleUser, got.Messages[0].Role)
}

func TestToCanonicalThinkingConfigDefaultBudget(t *testing.T) {
	req := WireRequest{
		Contents:         []WireContent{{Role: "user", Parts: []WirePart{{Text: "hi"}}}},
		GenerationConfig: &WireGenConfig{ThinkingConfig: &WireThinkingCfg{IncludeThoughts: true}},
	}
	got := ToCanonical(req, "gemini-3-pro")
	require.NotNil(t, got.Thinking)
	assert.Equal(t, "enabled", got.Thinking.Type)
	assert.Equal(t, defaultThinkingBudget, got.Thinking.BudgetTokens)
}

func TestToCanonicalGoogleSearchFlattensToWebSearch(t *testing.T) {
	req := WireRequest{
		Contents: []WireContent{{Role: "user", Parts: []WirePart{{Text: "hi"}}}},
		Tools:    []WireTool{{GoogleSearch: &WireGoogleSearch{}}},
	}
	got := ToCanonical(req, "gemini-2.5-flash")
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "web_search", got.Tools[0].Name)
}

func TestFromCanonicalUsageMetadata(t *testing.T) {
	resp := &canonical.Response{
		Model:      "gemini-2.5-flash",
		StopReason: canonical.StopMaxTokens,
		Content:    []canonical.Block{{Type: canonical.BlockText, Text: "hi"}},
		Usage:      canonical.Usage{InputTokens: 10, OutputTokens: 5, CacheReadTokens: 2},
	}
	wire := FromCanonical(resp)
	assert.Equal(t, "MAX_TOKENS", wire.Candidates[0].FinishReason)
	assert.Equal(t, 12, wire.UsageMetadata.PromptTokenCount)
	assert.Equal(t, 5, wire.UsageMetadata.CandidatesTokenCount)
	assert.Equal(t, 17, wire.UsageMetadata.TotalTokenCount)
	assert.Equal(t, 2, wire.UsageMetadata.CachedContentTokenCount)
}
