// Package anthropic implements the Anthropic Messages dialect adapter: the
// canonical request/response types already are Anthropic-shaped, so this
// adapter is mostly a thin (de)serialization boundary plus the invariant
// enforcement (adjacent-role merge, max_tokens default) common to every
// adapter.
package anthropic

import "github.com/loqwe/anyproxyai/internal/canonical"

// WireRequest mirrors the public /v1/messages request body.
type WireRequest struct {
	Model       string                  `json:"model"`
	Messages    []canonical.Message     `json:"messages"`
	System      *canonical.StringOrList `json:"system,omitempty"`
	MaxTokens   int                     `json:"max_tokens,omitempty"`
	Temperature *float64                `json:"temperature,omitempty"`
	TopP        *float64                `json:"top_p,omitempty"`
	Stream      bool                    `json:"stream,omitempty"`
	Thinking    *canonical.Thinking     `json:"thinking,omitempty"`
	Tools       []canonical.ToolSchema  `json:"tools,omitempty"`
}

// WireResponse mirrors the public /v1/messages non-streaming response body.
type WireResponse struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	Role         string             `json:"role"`
	Model        string             `json:"model"`
	Content      []canonical.Block  `json:"content"`
	StopReason   canonical.StopReason `json:"stop_reason"`
	StopSequence *string            `json:"stop_sequence"`
	Usage        canonical.Usage    `json:"usage"`
}
