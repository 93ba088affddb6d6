package stream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

// AnthropicEmitter renders assembler events as the canonical (Anthropic)
// SSE wire format directly onto w, flushing after every event so bytes
// reach the client as they arrive.
type AnthropicEmitter struct {
	w           io.Writer
	flush       func()
	model       string
	sentStart   bool
	blockTypeOf map[int]BlockKind
}

// NewAnthropicEmitter constructs an emitter writing model's identity into
// message_start.
func NewAnthropicEmitter(w io.Writer, flush func(), model string) *AnthropicEmitter {
	return &AnthropicEmitter{w: w, flush: flush, model: model, blockTypeOf: map[int]BlockKind{}}
}

func (e *AnthropicEmitter) write(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	e.flush()
	return nil
}

// EnsureStart emits message_start exactly once, using usage observed from
// the first chunk that carries it (cached tokens subtracted from prompt).
func (e *AnthropicEmitter) EnsureStart(usage canonical.Usage) error {
	if e.sentStart {
		return nil
	}
	e.sentStart = true
	return e.write("message_start", map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id":            "msg_stream",
			"type":          "message",
			"role":          "assistant",
			"model":         e.model,
			"content":       []any{},
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage":         usage,
		},
	})
}

// Render writes ev in the Anthropic SSE shape.
func (e *AnthropicEmitter) Render(ev Event) error {
	switch ev.Kind {
	case EventBlockStart:
		e.blockTypeOf[ev.Index] = ev.Block
		var block map[string]any
		switch ev.Block {
		case BlockText:
			block = map[string]any{"type": "text", "text": ""}
		case BlockThinking:
			block = map[string]any{"type": "thinking", "thinking": "", "signature": ""}
		case BlockFunction:
			block = map[string]any{"type": "tool_use", "id": ev.ToolID, "name": ev.ToolName, "input": map[string]any{}}
		}
		return e.write("content_block_start", map[string]any{
			"type": "content_block_start", "index": ev.Index, "content_block": block,
		})
	case EventTextDelta:
		return e.write("content_block_delta", map[string]any{
			"type": "content_block_delta", "index": ev.Index,
			"delta": map[string]any{"type": "text_delta", "text": ev.Text},
		})
	case EventThinkingDelta:
		return e.write("content_block_delta", map[string]any{
			"type": "content_block_delta", "index": ev.Index,
			"delta": map[string]any{"type": "thinking_delta", "thinking": ev.Text},
		})
	case EventSignatureDelta:
		return e.write("content_block_delta", map[string]any{
			"type": "content_block_delta", "index": ev.Index,
			"delta": map[string]any{"type": "signature_delta", "signature": ev.Signature},
		})
	case EventInputJSONDelta:
		return e.write("content_block_delta", map[string]any{
			"type": "content_block_delta", "index": ev.Index,
			"delta": map[string]any{"type": "input_json_delta", "partial_json": string(ev.Args)},
		})
	case EventBlockStop:
		return e.write("content_block_stop", map[string]any{"type": "content_block_stop", "index": ev.Index})
	case EventMessageDelta:
		return e.write("message_delta", map[string]any{
			"type":  "message_delta",
			"delta": map[string]any{"stop_reason": ev.StopReason, "stop_sequence": nil},
			"usage": ev.Usage,
		})
	case EventMessageStop:
		return e.write("message_stop", map[string]any{"type": "message_stop"})
	}
	return nil
}
