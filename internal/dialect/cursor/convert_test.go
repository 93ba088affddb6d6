package cursor

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqwe/anyproxyai/internal/thinking"
)

func TestIsAnthropicShapedByHeader(t *testing.T) {
	h := http.Header{"Anthropic-Beta": []string{"tools-2024-04-04"}}
	assert.True(t, IsAnthropicShaped(h, []byte(`{"messages":[{"role":"user","content":"hi"}]}`)))
}

func TestIsAnthropicShapedByListContent(t *testing.T) {
	body := []byte(`{"messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`)
	assert.True(t, IsAnthropicShaped(http.Header{}, body))
}

func TestIsAnthropicShapedFalseForStringContent(t *testing.T) {
	body := []byte(`{"messages":[{"role":"user","content":"hi"}]}`)
	assert.False(t, IsAnthropicShaped(http.Header{}, body))
}

func TestToCanonicalRoutesOpenAIChat(t *testing.T) {
	body := []byte(`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`)
	got, err := ToCanonical(http.Header{}, body, thinking.NewStore())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", got.Model)
}

func TestToCanonicalRoutesAnthropic(t *testing.T) {
	body := []byte(`{"model":"claude-sonnet-4-5","messages":[{"role":"user","content":[{"type":"text","text":"hi"}]}]}`)
	got, err := ToCanonical(http.Header{}, body, thinking.NewStore())
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-5", got.Model)
}
