package stream

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// LegacyEmitter streams upstream text parts as OpenAI Legacy Completions
// chunks. Thought parts are dropped — the legacy wire shape has no field to
// carry them.
type LegacyEmitter struct {
	w     io.Writer
	flush func()
	model string
	id    string
}

// NewLegacyEmitter constructs an emitter for one request.
func NewLegacyEmitter(w io.Writer, flush func(), model string) *LegacyEmitter {
	return &LegacyEmitter{w: w, flush: flush, model: model, id: "cmpl-" + uuid.NewString()}
}

func (e *LegacyEmitter) writeChunk(text string, finishReason any) error {
	chunk := map[string]any{
		"id": e.id, "object": "text_completion", "model": e.model,
		"choices": []any{map[string]any{"index": 0, "text": text, "finish_reason": finishReason}},
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

// Feed processes one upstream part, skipping thought text.
func (e *LegacyEmitter) Feed(part ResponsePart) error {
	if part.Thought || part.Text == "" {
		return nil
	}
	return e.writeChunk(part.Text, nil)
}

// Finish emits the finish chunk and the terminator.
func (e *LegacyEmitter) Finish() error {
	if err := e.writeChunk("", "stop"); err != nil {
		return err
	}
	_, err := fmt.Fprint(e.w, "data: [DONE]\n\n")
	e.flush()
	return err
}
