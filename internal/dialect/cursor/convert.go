// Package cursor implements the Cursor editor dialect, which is either
// Anthropic-shaped or OpenAI-Chat-shaped on the wire; this package only
// detects which and sanitizes Anthropic-shaped tool schemas in place,
// delegating actual translation to the anthropic and openaichat packages.
package cursor

import (
	"encoding/json"
	"net/http"

	"github.com/loqwe/anyproxyai/internal/canonical"
	"github.com/loqwe/anyproxyai/internal/dialect/anthropic"
	"github.com/loqwe/anyproxyai/internal/dialect/openaichat"
	"github.com/loqwe/anyproxyai/internal/schema"
	"github.com/loqwe/anyproxyai/internal/thinking"
)

// probeRequest is parsed once just to inspect the first message's content
// shape and decide which underlying dialect owns the body.
type probeRequest struct {
	Messages []struct {
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

// IsAnthropicShaped implements the detection rule: presence of an
// Anthropic-Beta header, or a list-typed `content` on the first message.
func IsAnthropicShaped(header http.Header, body []byte) bool {
	if header.Get("Anthropic-Beta") != "" {
		return true
	}
	var probe probeRequest
	if err := json.Unmarshal(body, &probe); err != nil || len(probe.Messages) == 0 {
		return false
	}
	first := probe.Messages[0].Content
	if len(first) == 0 {
		return false
	}
	return first[0] == '['
}

// ToCanonical dispatches to the detected underlying dialect.
func ToCanonical(header http.Header, body []byte, sigStore *thinking.Store) (*canonical.Request, error) {
	if IsAnthropicShaped(header, body) {
		var req anthropic.WireRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, err
		}
		for i := range req.Tools {
			req.Tools[i].Parameters = schema.Sanitize(req.Tools[i].Parameters)
		}
		return anthropic.ToCanonical(req), nil
	}

	var req openaichat.WireRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return openaichat.ToCanonical(req, sigStore), nil
}
