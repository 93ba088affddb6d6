package stream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiPassthroughInjectsModelVersion(t *testing.T) {
	body := `data: {"response":{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}}` + "\n\ndata: [DONE]\n\n"
	var buf bytes.Buffer
	g := NewGeminiPassthrough(&buf, func() {}, "gemini-2.5-flash")
	require.NoError(t, g.Run(strings.NewReader(body)))

	out := buf.String()
	assert.Contains(t, out, `"modelVersion":"gemini-2.5-flash"`)
	assert.Contains(t, out, "[DONE]")
}
