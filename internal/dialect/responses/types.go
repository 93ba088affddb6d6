// Package responses implements the OpenAI Responses API dialect adapter.
package responses

import "encoding/json"

// WireRequest mirrors the public /v1/responses request body.
type WireRequest struct {
	Model        string          `json:"model"`
	Input        json.RawMessage `json:"input"`
	Instructions string          `json:"instructions,omitempty"`
	Stream       bool            `json:"stream,omitempty"`
	MaxOutputTokens int          `json:"max_output_tokens,omitempty"`
	Temperature  *float64        `json:"temperature,omitempty"`
	TopP         *float64        `json:"top_p,omitempty"`
	Tools        []WireTool      `json:"tools,omitempty"`
}

// WireItem is one element of a list-typed `input`, and also one element of
// the output `output[]` array this adapter produces.
type WireItem struct {
	Type      string            `json:"type"`
	Role      string            `json:"role,omitempty"`
	Content   []WireItemContent `json:"content,omitempty"`
	ID        string            `json:"id,omitempty"`
	CallID    string            `json:"call_id,omitempty"`
	Name      string            `json:"name,omitempty"`
	Arguments string            `json:"arguments,omitempty"`
	Output    string            `json:"output,omitempty"`
	Summary   []WireSummaryPart `json:"summary,omitempty"`
	Status    string            `json:"status,omitempty"`
}

type WireItemContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type WireSummaryPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type WireTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// WireResponse mirrors the non-streaming /v1/responses response.
type WireResponse struct {
	ID     string     `json:"id"`
	Object string     `json:"object"`
	Model  string     `json:"model"`
	Status string     `json:"status"`
	Output []WireItem `json:"output"`
	Usage  WireUsage  `json:"usage"`
}

type WireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

const summaryMaxChars = 500
