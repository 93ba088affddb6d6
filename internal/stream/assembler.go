package stream

import (
	"encoding/json"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

// EventKind enumerates the assembler's output event variants.
type EventKind string

const (
	EventBlockStart     EventKind = "block_start"
	EventTextDelta      EventKind = "text_delta"
	EventThinkingDelta  EventKind = "thinking_delta"
	EventSignatureDelta EventKind = "signature_delta"
	EventInputJSONDelta EventKind = "input_json_delta"
	EventBlockStop      EventKind = "block_stop"
	EventMessageDelta   EventKind = "message_delta"
	EventMessageStop    EventKind = "message_stop"
)

// BlockKind enumerates the content-block variant a given event concerns.
type BlockKind string

const (
	BlockNone     BlockKind = "none"
	BlockText     BlockKind = "text"
	BlockThinking BlockKind = "thinking"
	BlockFunction BlockKind = "function"
)

// Event is one unit of the assembler's output: a single SSE-worthy
// occurrence, dialect-agnostic, that each streaming emitter renders into
// its own wire shape.
type Event struct {
	Kind  EventKind
	Index int
	Block BlockKind

	Text      string          // text_delta / thinking_delta payload
	Signature string          // signature_delta payload
	ToolID    string          // block_start(function) / input_json_delta
	ToolName  string          // block_start(function)
	Args      json.RawMessage // input_json_delta

	StopReason canonical.StopReason // message_delta
	Usage      canonical.Usage      // message_delta
}

// Assembler is the shared block-ordering state machine described in
// spec.md §4.5/§4.6: it turns a sequence of upstream response parts into a
// sequence of block-lifecycle events, enforcing thinking-first ordering,
// the single-function-call-per-block rule, and trailing-signature
// handling. The canonical (Anthropic) streaming emitter renders these
// events directly; the OpenAI-Chat emitter runs this as its inner stage;
// the non-streaming aggregator drains it to build a canonical.Response
// (invariant I10: aggregation equals draining-and-concatenating).
type Assembler struct {
	index           int
	kind            BlockKind
	pendingSig      string
	hadFunctionCall bool
	sawMaxTokens    bool
}

// NewAssembler constructs an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{kind: BlockNone}
}

// Feed processes one upstream part and returns the events it produces.
func (a *Assembler) Feed(part ResponsePart) []Event {
	switch {
	case part.FunctionCall != nil:
		return a.feedFunctionCall(part.FunctionCall)
	case part.Thought:
		return a.feedThinking(part)
	case part.Text == "" && part.ThoughtSignature != "":
		return a.feedTrailingSignature(part.ThoughtSignature)
	default:
		return a.feedText(part)
	}
}

func (a *Assembler) closeOpen() []Event {
	if a.kind == BlockNone {
		return nil
	}
	var events []Event
	if a.kind == BlockThinking && a.pendingSig != "" {
		events = append(events, Event{Kind: EventSignatureDelta, Index: a.index, Signature: a.pendingSig})
		a.pendingSig = ""
	}
	events = append(events, Event{Kind: EventBlockStop, Index: a.index, Block: a.kind})
	a.kind = BlockNone
	return events
}

func (a *Assembler) feedThinking(part ResponsePart) []Event {
	var events []Event
	if a.kind != BlockThinking {
		events = append(events, a.closeOpen()...)
		a.index++
		a.kind = BlockThinking
		events = append(events, Event{Kind: EventBlockStart, Index: a.index, Block: BlockThinking})
	}
	if part.Text != "" {
		events = append(events, Event{Kind: EventThinkingDelta, Index: a.index, Text: part.Text})
	}
	if part.ThoughtSignature != "" {
		a.pendingSig = part.ThoughtSignature
	}
	return events
}

func (a *Assembler) feedText(part ResponsePart) []Event {
	var events []Event
	if a.kind != BlockText {
		events = append(events, a.closeOpen()...)
		a.index++
		a.kind = BlockText
		events = append(events, Event{Kind: EventBlockStart, Index: a.index, Block: BlockText})
	}
	if part.Text != "" {
		events = append(events, Event{Kind: EventTextDelta, Index: a.index, Text: part.Text})
	}
	return events
}

func (a *Assembler) feedTrailingSignature(sig string) []Event {
	events := a.closeOpen()
	a.index++
	a.kind = BlockThinking
	events = append(events,
		Event{Kind: EventBlockStart, Index: a.index, Block: BlockThinking},
		Event{Kind: EventSignatureDelta, Index: a.index, Signature: sig},
		Event{Kind: EventBlockStop, Index: a.index, Block: BlockThinking},
	)
	a.kind = BlockNone
	return events
}

func (a *Assembler) feedFunctionCall(fc *ResponseFunctionCall) []Event {
	events := a.closeOpen()
	a.index++
	a.hadFunctionCall = true
	args := fc.Args
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	events = append(events,
		Event{Kind: EventBlockStart, Index: a.index, Block: BlockFunction, ToolID: fc.ID, ToolName: fc.Name},
		Event{Kind: EventInputJSONDelta, Index: a.index, Args: args},
		Event{Kind: EventBlockStop, Index: a.index, Block: BlockFunction},
	)
	a.kind = BlockNone
	return events
}

// NoteFinishReason records an upstream finishReason observed mid-stream;
// only MAX_TOKENS is significant to the final stop-reason computation.
func (a *Assembler) NoteFinishReason(reason string) {
	if reason == "MAX_TOKENS" {
		a.sawMaxTokens = true
	}
}

// Finish closes any open block and returns the terminal message_delta and
// message_stop events.
func (a *Assembler) Finish(usage canonical.Usage) []Event {
	events := a.closeOpen()
	events = append(events,
		Event{Kind: EventMessageDelta, StopReason: a.stopReason(), Usage: usage},
		Event{Kind: EventMessageStop},
	)
	return events
}

func (a *Assembler) stopReason() canonical.StopReason {
	switch {
	case a.hadFunctionCall:
		return canonical.StopToolUse
	case a.sawMaxTokens:
		return canonical.StopMaxTokens
	default:
		return canonical.StopEndTurn
	}
}
