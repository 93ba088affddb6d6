package anthropic

import (
	"github.com/google/uuid"

	"github.com/loqwe/anyproxyai/internal/canonical"
	"github.com/loqwe/anyproxyai/internal/schema"
)

// ToCanonical converts a parsed wire request into the canonical request.
func ToCanonical(req WireRequest) *canonical.Request {
	for i := range req.Tools {
		req.Tools[i].Parameters = schema.Sanitize(req.Tools[i].Parameters)
	}

	out := &canonical.Request{
		Model:       req.Model,
		Messages:    canonical.MergeAdjacentRoles(req.Messages),
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
		Thinking:    req.Thinking,
		Tools:       req.Tools,
	}
	out.EnsureMaxTokens()
	return out
}

// FromCanonical renders a canonical non-streaming response as the public
// wire response shape.
func FromCanonical(resp *canonical.Response) WireResponse {
	return WireResponse{
		ID:         "msg_" + uuid.NewString(),
		Type:       "message",
		Role:       "assistant",
		Model:      resp.Model,
		Content:    resp.Content,
		StopReason: resp.StopReason,
		Usage:      resp.Usage,
	}
}
