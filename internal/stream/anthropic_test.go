package stream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

func TestAnthropicEmitterMessageStartOnlyOnce(t *testing.T) {
	var buf bytes.Buffer
	e := NewAnthropicEmitter(&buf, func() {}, "claude-sonnet-4-5")
	require.NoError(t, e.EnsureStart(canonical.Usage{InputTokens: 1}))
	require.NoError(t, e.EnsureStart(canonical.Usage{InputTokens: 2}))
	assert.Equal(t, 2, strings.Count(buf.String(), "message_start"))
}

func TestAnthropicEmitterFullEventSequence(t *testing.T) {
	var buf bytes.Buffer
	e := NewAnthropicEmitter(&buf, func() {}, "claude-sonnet-4-5")
	require.NoError(t, e.EnsureStart(canonical.Usage{}))

	asm := NewAssembler()
	events := asm.Feed(ResponsePart{Text: "hi"})
	events = append(events, asm.Finish(canonical.Usage{OutputTokens: 1})...)
	for _, ev := range events {
		require.NoError(t, e.Render(ev))
	}

	out := buf.String()
	assert.Contains(t, out, "content_block_start")
	assert.Contains(t, out, "text_delta")
	assert.Contains(t, out, "message_stop")
}
