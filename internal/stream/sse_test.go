package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventReaderUnwrapsResponseEnvelope(t *testing.T) {
	body := `data: {"response":{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]},"responseId":"r1"}` + "\n\n"
	reader := NewEventReader(strings.NewReader(body))
	chunk, done, err := reader.Next()
	require.NoError(t, err)
	assert.False(t, done)
	require.Len(t, chunk.Candidates, 1)
	assert.Equal(t, "hi", chunk.Candidates[0].Content.Parts[0].Text)
}

func TestEventReaderAcceptsBareChunk(t *testing.T) {
	body := `data: {"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}` + "\n\n"
	reader := NewEventReader(strings.NewReader(body))
	chunk, done, err := reader.Next()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "hi", chunk.Candidates[0].Content.Parts[0].Text)
}

func TestEventReaderDropsMalformedLines(t *testing.T) {
	body := "data: not json at all\ndata: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"ok\"}]}}]}\n\n"
	reader := NewEventReader(strings.NewReader(body))
	chunk, done, err := reader.Next()
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, "ok", chunk.Candidates[0].Content.Parts[0].Text)
}

func TestEventReaderRecognizesDoneMarker(t *testing.T) {
	reader := NewEventReader(strings.NewReader("data: [DONE]\n\n"))
	_, done, err := reader.Next()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestEventReaderEOFIsDone(t *testing.T) {
	reader := NewEventReader(strings.NewReader(""))
	_, done, err := reader.Next()
	require.NoError(t, err)
	assert.True(t, done)
}
