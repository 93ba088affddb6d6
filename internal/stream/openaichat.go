package stream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/loqwe/anyproxyai/internal/dialect/openaichat"
	"github.com/loqwe/anyproxyai/internal/thinking"
)

// OpenAIChatEmitter runs the canonical Assembler as its inner stage and
// translates each event into a single OpenAI Chat chunk. Signature deltas
// are not echoed to the client; they only update the signature store.
type OpenAIChatEmitter struct {
	w        io.Writer
	flush    func()
	model    string
	id       string
	sigStore *thinking.Store
	toolIdx  map[int]int
	nextTool int
}

// NewOpenAIChatEmitter constructs an emitter. sigStore is updated as
// signature_delta events are observed, per spec.md's cross-request carry.
func NewOpenAIChatEmitter(w io.Writer, flush func(), model string, sigStore *thinking.Store) *OpenAIChatEmitter {
	return &OpenAIChatEmitter{
		w: w, flush: flush, model: model, id: "chatcmpl-" + uuid.NewString(),
		sigStore: sigStore, toolIdx: map[int]int{},
	}
}

func (e *OpenAIChatEmitter) writeChunk(delta map[string]any, finishReason any) error {
	chunk := map[string]any{
		"id":      e.id,
		"object":  "chat.completion.chunk",
		"model":   e.model,
		"choices": []any{map[string]any{"index": 0, "delta": delta, "finish_reason": finishReason}},
	}
	data, err := json.Marshal(chunk)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "data: %s\n\n", data); err != nil {
		return err
	}
	e.flush()
	return nil
}

// Render translates one assembler event into zero or one OpenAI chunks.
func (e *OpenAIChatEmitter) Render(ev Event) error {
	switch ev.Kind {
	case EventBlockStart:
		if ev.Block == BlockFunction {
			idx := e.nextTool
			e.toolIdx[ev.Index] = idx
			e.nextTool++
			return e.writeChunk(map[string]any{
				"tool_calls": []any{map[string]any{
					"index": idx, "id": ev.ToolID, "type": "function",
					"function": map[string]any{"name": ev.ToolName, "arguments": ""},
				}},
			}, nil)
		}
		return nil
	case EventTextDelta:
		return e.writeChunk(map[string]any{"content": ev.Text}, nil)
	case EventThinkingDelta:
		return e.writeChunk(map[string]any{"reasoning_content": ev.Text}, nil)
	case EventSignatureDelta:
		e.sigStore.Put(ev.Signature)
		return nil
	case EventInputJSONDelta:
		idx := e.toolIdx[ev.Index]
		return e.writeChunk(map[string]any{
			"tool_calls": []any{map[string]any{
				"index": idx, "function": map[string]any{"arguments": string(ev.Args)},
			}},
		}, nil)
	case EventBlockStop:
		return nil
	case EventMessageDelta:
		return e.writeChunk(map[string]any{}, openaichat.MapFinishReason(ev.StopReason))
	case EventMessageStop:
		_, err := fmt.Fprint(e.w, "data: [DONE]\n\n")
		e.flush()
		return err
	}
	return nil
}

// RoleChunk emits the initial `delta.role=assistant` chunk OpenAI clients
// expect before any content.
func (e *OpenAIChatEmitter) RoleChunk() error {
	return e.writeChunk(map[string]any{"role": "assistant"}, nil)
}
