package stream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// CursorEmitter is a simplified OpenAI-Chat emitter that consumes upstream
// parts directly, atomically emitting one full tool-call chunk per
// functionCall rather than streaming partial JSON arguments.
type CursorEmitter struct {
	w               io.Writer
	flush           func()
	model           string
	id              string
	sentRole        bool
	hadFunctionCall bool
}

// NewCursorEmitter constructs an emitter for one request.
func NewCursorEmitter(w io.Writer, flush func(), model string) *CursorEmitter {
	return &CursorEmitter{w: w, flush: flush, model: model, id: "chatcmpl-" + uuid.NewString()}
}

func (e *CursorEmitter) writeChunk(delta map[string]any, finishReason any) error {
	chunk := map[string]any{
		"id": e.id, "object": "chat.completion.chunk", "model": e.model,
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

// RoleChunk emits the initial role preamble.
func (e *CursorEmitter) RoleChunk() error {
	e.sentRole = true
	return e.writeChunk(map[string]any{"role": "assistant"}, nil)
}

// Feed processes one upstream part.
func (e *CursorEmitter) Feed(part ResponsePart) error {
	if !e.sentRole {
		if err := e.RoleChunk(); err != nil {
			return err
		}
	}
	switch {
	case part.FunctionCall != nil:
		e.hadFunctionCall = true
		args := part.FunctionCall.Args
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		return e.writeChunk(map[string]any{
			"tool_calls": []any{map[string]any{
				"index": 0, "id": part.FunctionCall.ID, "type": "function",
				"function": map[string]any{"name": part.FunctionCall.Name, "arguments": string(args)},
			}},
		}, nil)
	case part.Thought:
		if part.Text == "" {
			return nil
		}
		return e.writeChunk(map[string]any{"reasoning_content": part.Text}, nil)
	default:
		if part.Text == "" {
			return nil
		}
		return e.writeChunk(map[string]any{"content": part.Text}, nil)
	}
}

// Finish emits the finish chunk and the terminator.
func (e *CursorEmitter) Finish() error {
	reason := "stop"
	if e.hadFunctionCall {
		reason = "tool_calls"
	}
	if err := e.writeChunk(map[string]any{}, reason); err != nil {
		return err
	}
	_, err := fmt.Fprint(e.w, "data: [DONE]\n\n")
	e.flush()
	return err
}
