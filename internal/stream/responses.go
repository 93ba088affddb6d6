package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

const responsesSummaryMaxChars = 500

// ResponsesEmitter consumes upstream parts directly (no canonical
// intermediate) and emits the OpenAI Responses API's semantic event
// sequence with a strictly increasing sequence_number.
type ResponsesEmitter struct {
	w     io.Writer
	flush func()
	model string
	id    string
	seq   int

	openKind    string // "reasoning", "message", or ""
	reasoningID string
	messageID   string
	summary     strings.Builder

	outputIndex int
}

// NewResponsesEmitter constructs an emitter for one request.
func NewResponsesEmitter(w io.Writer, flush func(), model string) *ResponsesEmitter {
	return &ResponsesEmitter{w: w, flush: flush, model: model, id: "resp_" + uuid.NewString()}
}

func (e *ResponsesEmitter) emit(eventType string, fields map[string]any) error {
	e.seq++
	fields["type"] = eventType
	fields["sequence_number"] = e.seq
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return err
	}
	e.flush()
	return nil
}

// Created emits response.created.
func (e *ResponsesEmitter) Created() error {
	return e.emit("response.created", map[string]any{
		"response": map[string]any{"id": e.id, "object": "response", "model": e.model, "status": "in_progress"},
	})
}

func (e *ResponsesEmitter) closeReasoning() error {
	if e.openKind != "reasoning" {
		return nil
	}
	summary := e.summary.String()
	if len(summary) > responsesSummaryMaxChars {
		summary = strings.TrimSpace(summary[:responsesSummaryMaxChars]) + "…"
	}
	if err := e.emit("response.output_item.done", map[string]any{
		"output_index": e.outputIndex,
		"item": map[string]any{
			"id": e.reasoningID, "type": "reasoning", "status": "completed",
			"summary": []any{map[string]any{"type": "summary_text", "text": summary}},
		},
	}); err != nil {
		return err
	}
	e.summary.Reset()
	e.openKind = ""
	e.outputIndex++
	return nil
}

func (e *ResponsesEmitter) closeMessage() error {
	if e.openKind != "message" {
		return nil
	}
	if err := e.emit("response.content_part.done", map[string]any{
		"item_id": e.messageID, "output_index": e.outputIndex, "content_index": 0,
	}); err != nil {
		return err
	}
	if err := e.emit("response.output_item.done", map[string]any{
		"output_index": e.outputIndex,
		"item":         map[string]any{"id": e.messageID, "type": "message", "role": "assistant", "status": "completed"},
	}); err != nil {
		return err
	}
	e.openKind = ""
	e.outputIndex++
	return nil
}

// Feed processes one upstream part.
func (e *ResponsesEmitter) Feed(part ResponsePart) error {
	switch {
	case part.FunctionCall != nil:
		if err := e.closeReasoning(); err != nil {
			return err
		}
		if err := e.closeMessage(); err != nil {
			return err
		}
		callID := "call_" + uuid.NewString()
		args := part.FunctionCall.Args
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		if err := e.emit("response.output_item.added", map[string]any{
			"output_index": e.outputIndex,
			"item":         map[string]any{"id": callID, "type": "function_call", "name": part.FunctionCall.Name, "call_id": part.FunctionCall.ID},
		}); err != nil {
			return err
		}
		if err := e.emit("response.function_call_arguments.delta", map[string]any{
			"output_index": e.outputIndex, "delta": string(args),
		}); err != nil {
			return err
		}
		if err := e.emit("response.function_call_arguments.done", map[string]any{
			"output_index": e.outputIndex, "arguments": string(args),
		}); err != nil {
			return err
		}
		if err := e.emit("response.output_item.done", map[string]any{
			"output_index": e.outputIndex,
			"item":         map[string]any{"id": callID, "type": "function_call", "name": part.FunctionCall.Name, "call_id": part.FunctionCall.ID, "arguments": string(args), "status": "completed"},
		}); err != nil {
			return err
		}
		e.outputIndex++
		return nil

	case part.Thought:
		if e.openKind != "reasoning" {
			if err := e.closeMessage(); err != nil {
				return err
			}
			e.reasoningID = "rs_" + uuid.NewString()
			e.openKind = "reasoning"
			if err := e.emit("response.output_item.added", map[string]any{
				"output_index": e.outputIndex,
				"item":         map[string]any{"id": e.reasoningID, "type": "reasoning"},
			}); err != nil {
				return err
			}
		}
		e.summary.WriteString(part.Text)
		return nil

	default:
		if e.openKind == "reasoning" {
			if err := e.closeReasoning(); err != nil {
				return err
			}
		}
		if e.openKind != "message" {
			e.messageID = "msg_" + uuid.NewString()
			e.openKind = "message"
			if err := e.emit("response.output_item.added", map[string]any{
				"output_index": e.outputIndex,
				"item":         map[string]any{"id": e.messageID, "type": "message", "role": "assistant"},
			}); err != nil {
				return err
			}
			if err := e.emit("response.content_part.added", map[string]any{
				"item_id": e.messageID, "output_index": e.outputIndex, "content_index": 0,
				"part": map[string]any{"type": "output_text", "text": ""},
			}); err != nil {
				return err
			}
		}
		if part.Text == "" {
			return nil
		}
		if err := e.emit("response.output_text.delta", map[string]any{
			"item_id": e.messageID, "output_index": e.outputIndex, "content_index": 0, "delta": part.Text,
		}); err != nil {
			return err
		}
		return nil
	}
}

// Finish closes any open item and emits response.completed.
func (e *ResponsesEmitter) Finish() error {
	if e.openKind == "message" {
		if err := e.emit("response.output_text.done", map[string]any{
			"item_id": e.messageID, "output_index": e.outputIndex, "content_index": 0,
		}); err != nil {
			return err
		}
	}
	if err := e.closeReasoning(); err != nil {
		return err
	}
	if err := e.closeMessage(); err != nil {
		return err
	}
	return e.emit("response.completed", map[string]any{
		"response": map[string]any{"id": e.id, "object": "response", "model": e.model, "status": "completed"},
	})
}
