package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

func TestAssemblerThinkingThenTextFlushesSignature(t *testing.T) {
	a := NewAssembler()
	var events []Event
	events = append(events, a.Feed(ResponsePart{Thought: true, Text: "because", ThoughtSignature: "sig-0123456789012345678901234567890123456789012345"})...)
	events = append(events, a.Feed(ResponsePart{Text: "answer"})...)
	events = append(events, a.Finish(canonical.Usage{})...)

	var kinds []EventKind
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	require.Contains(t, kinds, EventSignatureDelta)

	sigIdx, stopIdx := -1, -1
	for i, e := range events {
		if e.Kind == EventSignatureDelta {
			sigIdx = i
		}
		if e.Kind == EventBlockStop && e.Block == BlockThinking {
			stopIdx = i
		}
	}
	require.NotEqual(t, -1, sigIdx)
	require.NotEqual(t, -1, stopIdx)
	assert.Less(t, sigIdx, stopIdx)
}

func TestAssemblerTrailingSignatureCarrier(t *testing.T) {
	a := NewAssembler()
	events := a.Feed(ResponsePart{Text: "hello"})
	events = append(events, a.Feed(ResponsePart{Text: "", ThoughtSignature: "only-a-signature-with-no-text-payload-at-all-here"})...)

	foundEmptyThinking := false
	for i, e := range events {
		if e.Kind == EventBlockStart && e.Block == BlockThinking {
			// immediately followed by signature then stop
			require.Equal(t, EventSignatureDelta, events[i+1].Kind)
			require.Equal(t, EventBlockStop, events[i+2].Kind)
			foundEmptyThinking = true
		}
	}
	assert.True(t, foundEmptyThinking)
}

func TestAssemblerFunctionCallOpensAndClosesOwnBlock(t *testing.T) {
	a := NewAssembler()
	events := a.Feed(ResponsePart{FunctionCall: &ResponseFunctionCall{Name: "foo", ID: "1", Args: []byte(`{"a":1}`)}})
	require.Len(t, events, 3)
	assert.Equal(t, EventBlockStart, events[0].Kind)
	assert.Equal(t, EventInputJSONDelta, events[1].Kind)
	assert.Equal(t, EventBlockStop, events[2].Kind)
}

func TestAssemblerStopReasonToolUse(t *testing.T) {
	a := NewAssembler()
	a.Feed(ResponsePart{FunctionCall: &ResponseFunctionCall{Name: "foo"}})
	events := a.Finish(canonical.Usage{})
	last := events[len(events)-2]
	assert.Equal(t, canonical.StopToolUse, last.StopReason)
}

func TestAssemblerStopReasonMaxTokens(t *testing.T) {
	a := NewAssembler()
	a.Feed(ResponsePart{Text: "hi"})
	a.NoteFinishReason("MAX_TOKENS")
	events := a.Finish(canonical.Usage{})
	last := events[len(events)-2]
	assert.Equal(t, canonical.StopMaxTokens, last.StopReason)
}

func TestAssemblerNewBlockOnKindChangeIncrementsIndex(t *testing.T) {
	a := NewAssembler()
	textEvents := a.Feed(ResponsePart{Text: "hi"})
	thinkEvents := a.Feed(ResponsePart{Thought: true, Text: "hmm"})
	assert.NotEqual(t, textEvents[0].Index, thinkEvents[0].Index)
}
