// Package legacy implements the OpenAI Legacy Completions dialect. It has
// no converters of its own beyond turning a bare prompt into a single user
// message: outbound translation and the actual dispatch are shared with
// openaichat through a pre-parsed canonical request, per the resolved
// open question about not re-dispatching through a mutated request object.
package legacy

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

// WireRequest mirrors the public /v1/completions request body.
type WireRequest struct {
	Model       string          `json:"model"`
	Prompt      json.RawMessage `json:"prompt"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

// WireResponse mirrors the non-streaming /v1/completions response.
type WireResponse struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Model   string         `json:"model"`
	Choices []WireChoice  `json:"choices"`
	Usage   WireUsage     `json:"usage"`
}

type WireChoice struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type WireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToCanonical turns the prompt (a string, or a list joined by newline) into
// a single canonical user message.
func ToCanonical(req WireRequest) *canonical.Request {
	prompt := decodePrompt(req.Prompt)

	out := &canonical.Request{
		Model:       req.Model,
		Messages:    []canonical.Message{{Role: canonical.RoleUser, Content: canonical.NewStringContent(prompt)}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
	}
	out.EnsureMaxTokens()
	return out
}

func decodePrompt(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "\n")
	}
	return ""
}

// FromCanonical collects all text content of a canonical response into the
// single `choices[0].text` field.
func FromCanonical(resp *canonical.Response) WireResponse {
	var text strings.Builder
	for _, b := range resp.Content {
		if b.Type == canonical.BlockText {
			text.WriteString(b.Text)
		}
	}
	return WireResponse{
		ID:     "cmpl-" + uuid.NewString(),
		Object: "text_completion",
		Model:  resp.Model,
		Choices: []WireChoice{{
			Index:        0,
			Text:         text.String(),
			FinishReason: finishReason(resp.StopReason),
		}},
		Usage: WireUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

func finishReason(r canonical.StopReason) string {
	if r == canonical.StopMaxTokens {
		return "length"
	}
	return "stop"
}
