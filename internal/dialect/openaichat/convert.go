package openaichat

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/loqwe/anyproxyai/internal/canonical"
	"github.com/loqwe/anyproxyai/internal/schema"
	"github.com/loqwe/anyproxyai/internal/thinking"
)

// sentinelAbsent is the set of client-injected placeholder strings treated
// as "absent" everywhere a string value is read.
var sentinelAbsent = map[string]bool{
	"[undefined]": true, "undefined": true, "null": true, "[null]": true, "": true,
}

func present(s string) bool {
	return !sentinelAbsent[s]
}

// ToCanonical converts a parsed wire request into the canonical request.
// sigStore supplies the current global thinking signature used to backfill
// reasoning_content blocks that arrive without one of their own.
func ToCanonical(req WireRequest, sigStore *thinking.Store) *canonical.Request {
	var system strings.Builder
	var messages []canonical.Message
	var pendingToolResults []canonical.Block

	flushToolResults := func() {
		if len(pendingToolResults) == 0 {
			return
		}
		messages = append(messages, canonical.Message{
			Role:    canonical.RoleUser,
			Content: canonical.NewBlockContent(pendingToolResults),
		})
		pendingToolResults = nil
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system", "developer":
			text := decodeTextContent(m.Content)
			if present(text) {
				if system.Len() > 0 {
					system.WriteString("\n")
				}
				system.WriteString(text)
			}
		case "tool":
			text := decodeTextContent(m.Content)
			pendingToolResults = append(pendingToolResults, canonical.Block{
				Type:      canonical.BlockToolResult,
				ToolUseID: m.ToolCallID,
				Content:   canonical.NewStringContent(text),
			})
		case "assistant":
			flushToolResults()
			blocks := assistantBlocks(m, sigStore)
			messages = append(messages, canonical.Message{Role: canonical.RoleAssistant, Content: canonical.NewBlockContent(blocks)})
		default: // "user" and anything else
			flushToolResults()
			blocks := userBlocks(m.Content)
			messages = append(messages, canonical.Message{Role: canonical.RoleUser, Content: canonical.NewBlockContent(blocks)})
		}
	}
	flushToolResults()

	var sys *canonical.StringOrList
	if system.Len() > 0 {
		sys = canonical.NewStringContent(system.String())
	}

	out := &canonical.Request{
		Model:       req.Model,
		Messages:    canonical.MergeAdjacentRoles(messages),
		System:      sys,
		MaxTokens:   parseMaxTokens(req.MaxTokens),
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
		Tools:       toolsFromWire(req.Tools),
	}
	out.EnsureMaxTokens()
	return out
}

func parseMaxTokens(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return 0
}

func toolsFromWire(tools []WireTool) []canonical.ToolSchema {
	if len(tools) == 0 {
		return nil
	}
	out := make([]canonical.ToolSchema, 0, len(tools))
	for _, t := range tools {
		out = append(out, canonical.ToolSchema{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  schema.Sanitize(t.Function.Parameters),
		})
	}
	return out
}

// assistantBlocks builds the ordered [thinking?, text?, tool_use*] content
// list for one assistant message.
func assistantBlocks(m WireMessage, sigStore *thinking.Store) []canonical.Block {
	var blocks []canonical.Block

	if present(m.ReasoningContent) {
		sig, _ := sigStore.Get()
		blocks = append(blocks, canonical.Block{Type: canonical.BlockThinking, Thinking: m.ReasoningContent, Signature: sig})
	}

	if text := decodeTextContent(m.Content); present(text) {
		blocks = append(blocks, canonical.Block{Type: canonical.BlockText, Text: text})
	}

	for _, tc := range m.ToolCalls {
		args := tc.Function.Arguments
		if !json.Valid([]byte(args)) || args == "" {
			args = "{}"
		}
		blocks = append(blocks, canonical.Block{
			Type:  canonical.BlockToolUse,
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(args),
		})
	}

	return blocks
}

// userBlocks decodes a user message's content, which may be a bare string
// or a list of text/image_url parts.
func userBlocks(raw json.RawMessage) []canonical.Block {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if !present(s) {
			return nil
		}
		return []canonical.Block{{Type: canonical.BlockText, Text: s}}
	}

	var parts []WireContentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return nil
	}
	var blocks []canonical.Block
	for _, p := range parts {
		switch p.Type {
		case "text":
			if present(p.Text) {
				blocks = append(blocks, canonical.Block{Type: canonical.BlockText, Text: p.Text})
			}
		case "image_url":
			if p.ImageURL == nil {
				continue
			}
			mediaType, data := decodeDataURL(p.ImageURL.URL)
			if data != "" {
				blocks = append(blocks, canonical.Block{Type: canonical.BlockImage, Source: &canonical.ImageSource{
					Type: "base64", MediaType: mediaType, Data: data,
				}})
			}
		}
	}
	return blocks
}

func decodeTextContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []WireContentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		var out strings.Builder
		for _, p := range parts {
			if p.Type == "text" && present(p.Text) {
				if out.Len() > 0 {
					out.WriteString("\n")
				}
				out.WriteString(p.Text)
			}
		}
		return out.String()
	}
	return ""
}

// decodeDataURL splits a `data:<media-type>;base64,<data>` URL into its
// media type and payload. Non-data URLs return an empty data string.
func decodeDataURL(url string) (mediaType, data string) {
	const prefix = "data:"
	if !strings.HasPrefix(url, prefix) {
		return "", ""
	}
	rest := url[len(prefix):]
	semi := strings.Index(rest, ";base64,")
	if semi < 0 {
		return "", ""
	}
	return rest[:semi], rest[semi+len(";base64,"):]
}

// FromCanonical renders a canonical non-streaming response as the public
// wire response shape.
func FromCanonical(resp *canonical.Response) WireResponse {
	var reasoning strings.Builder
	var text strings.Builder
	var toolCalls []WireToolCall

	for _, b := range resp.Content {
		switch b.Type {
		case canonical.BlockThinking:
			reasoning.WriteString(b.Thinking)
		case canonical.BlockText:
			text.WriteString(b.Text)
		case canonical.BlockToolUse:
			args := b.Input
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			toolCalls = append(toolCalls, WireToolCall{
				ID:   b.ID,
				Type: "function",
				Function: WireToolCallFn{
					Name:      b.Name,
					Arguments: string(args),
				},
			})
		}
	}

	msg := WireMessage{Role: "assistant"}
	if reasoning.Len() > 0 {
		msg.ReasoningContent = reasoning.String()
	}
	if text.Len() > 0 {
		textStr := text.String()
		b, _ := json.Marshal(textStr)
		msg.Content = b
	} else {
		msg.Content = json.RawMessage("null")
	}
	msg.ToolCalls = toolCalls

	return WireResponse{
		Object: "chat.completion",
		Model:  resp.Model,
		Choices: []WireChoice{{
			Index:        0,
			Message:      msg,
			FinishReason: mapFinishReason(resp.StopReason),
		}},
		Usage: WireUsage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

// MapFinishReason maps a canonical stop reason to the OpenAI Chat
// finish_reason vocabulary. Exported for reuse by the streaming emitter.
func MapFinishReason(r canonical.StopReason) string { return mapFinishReason(r) }

func mapFinishReason(r canonical.StopReason) string {
	switch r {
	case canonical.StopToolUse:
		return "tool_calls"
	case canonical.StopMaxTokens:
		return "length"
	default:
		return "stop"
	}
}
