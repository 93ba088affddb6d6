package thinking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

func longSig(n int) string { return strings.Repeat("a", n) }

func TestStoreReplaceIffLonger(t *testing.T) {
	s := NewStore()
	s.Put(longSig(60))
	cur, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, longSig(60), cur)

	s.Put(longSig(10))
	cur, _ = s.Get()
	assert.Equal(t, longSig(60), cur, "shorter signature must not replace")

	s.Put(longSig(70))
	cur, _ = s.Get()
	assert.Equal(t, longSig(70), cur)
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(longSig(50), "some thought"))
	assert.False(t, IsValid(longSig(49), "some thought"))
	assert.True(t, IsValid("x", ""), "trailing signature carrier")
	assert.False(t, IsValid("", ""))
}

func TestFilterMessageRepairsFromStore(t *testing.T) {
	store := NewStore()
	store.Put(longSig(80))

	blocks := []canonical.Block{
		{Type: canonical.BlockThinking, Thinking: "short thought", Signature: "tiny"},
	}
	res := FilterMessage(blocks, store)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, longSig(80), res.Blocks[0].Signature)
	assert.False(t, res.Stripped)
}

func TestFilterMessageDowngradesWithoutRepair(t *testing.T) {
	store := NewStore()
	blocks := []canonical.Block{
		{Type: canonical.BlockThinking, Thinking: "short thought", Signature: "tiny"},
	}
	res := FilterMessage(blocks, store)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, canonical.BlockText, res.Blocks[0].Type)
	assert.Equal(t, "short thought", res.Blocks[0].Text)
	assert.True(t, res.Stripped)
}

func TestFilterMessageDropsEmptyInvalidThinking(t *testing.T) {
	store := NewStore()
	blocks := []canonical.Block{
		{Type: canonical.BlockThinking, Thinking: "", Signature: "tiny"},
		{Type: canonical.BlockText, Text: "hello"},
	}
	res := FilterMessage(blocks, store)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, "hello", res.Blocks[0].Text)
}

func TestFilterMessageEmptyContentSubstitutesEmptyText(t *testing.T) {
	store := NewStore()
	blocks := []canonical.Block{
		{Type: canonical.BlockThinking, Thinking: "", Signature: ""},
	}
	res := FilterMessage(blocks, store)
	require.Len(t, res.Blocks, 1)
	assert.Equal(t, canonical.BlockText, res.Blocks[0].Type)
	assert.Equal(t, "", res.Blocks[0].Text)
}

func TestCompatibilityGateDisablesOnToolUseWithoutThinking(t *testing.T) {
	req := &canonical.Request{
		Messages: []canonical.Message{
			{Role: canonical.RoleUser, Content: canonical.NewStringContent("hi")},
			{Role: canonical.RoleAssistant, Content: canonical.NewBlockContent([]canonical.Block{
				{Type: canonical.BlockToolUse, ID: "t1", Name: "foo"},
			})},
		},
	}
	assert.False(t, CompatibilityGate(req))
}

func TestCompatibilityGateAllowsWithThinking(t *testing.T) {
	req := &canonical.Request{
		Messages: []canonical.Message{
			{Role: canonical.RoleAssistant, Content: canonical.NewBlockContent([]canonical.Block{
				{Type: canonical.BlockThinking, Thinking: "x", Signature: longSig(60)},
				{Type: canonical.BlockToolUse, ID: "t1", Name: "foo"},
			})},
		},
	}
	assert.True(t, CompatibilityGate(req))
}

func TestSignatureAvailable(t *testing.T) {
	store := NewStore()
	req := &canonical.Request{Tools: []canonical.ToolSchema{{Name: "foo"}}}
	assert.False(t, SignatureAvailable(req, store))

	store.Put(longSig(60))
	assert.True(t, SignatureAvailable(req, store))
}
