package responses

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/loqwe/anyproxyai/internal/canonical"
	"github.com/loqwe/anyproxyai/internal/schema"
)

// ToCanonical converts a parsed wire request into the canonical request.
// Input may be a bare string or a list of items.
func ToCanonical(req WireRequest) *canonical.Request {
	var messages []canonical.Message

	if text, ok := decodeStringInput(req.Input); ok {
		if text != "" {
			messages = append(messages, canonical.Message{Role: canonical.RoleUser, Content: canonical.NewStringContent(text)})
		}
	} else {
		var items []WireItem
		if err := json.Unmarshal(req.Input, &items); err == nil {
			messages = itemsToMessages(items)
		}
	}

	var system *canonical.StringOrList
	if req.Instructions != "" {
		system = canonical.NewStringContent(req.Instructions)
	}

	out := &canonical.Request{
		Model:       req.Model,
		Messages:    canonical.MergeAdjacentRoles(messages),
		System:      system,
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stream:      req.Stream,
		Tools:       toolsFromWire(req.Tools),
	}
	out.EnsureMaxTokens()
	return out
}

func decodeStringInput(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return "", false
}

func itemsToMessages(items []WireItem) []canonical.Message {
	var messages []canonical.Message
	for _, it := range items {
		switch it.Type {
		case "reasoning":
			continue
		case "function_call":
			var args json.RawMessage
			if it.Arguments != "" {
				if json.Valid([]byte(it.Arguments)) {
					args = json.RawMessage(it.Arguments)
				}
			}
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			messages = append(messages, canonical.Message{
				Role: canonical.RoleAssistant,
				Content: canonical.NewBlockContent([]canonical.Block{{
					Type: canonical.BlockToolUse, ID: it.CallID, Name: it.Name, Input: args,
				}}),
			})
		case "function_call_output":
			messages = append(messages, canonical.Message{
				Role: canonical.RoleUser,
				Content: canonical.NewBlockContent([]canonical.Block{{
					Type: canonical.BlockToolResult, ToolUseID: it.CallID, Content: canonical.NewStringContent(it.Output),
				}}),
			})
		case "message":
			messages = append(messages, messageItemToMessage(it))
		}
	}
	return messages
}

func messageItemToMessage(it WireItem) canonical.Message {
	role := canonical.RoleUser
	if it.Role == "assistant" {
		role = canonical.RoleAssistant
	}
	var blocks []canonical.Block
	for _, c := range it.Content {
		switch c.Type {
		case "input_text", "output_text":
			blocks = append(blocks, canonical.Block{Type: canonical.BlockText, Text: c.Text})
		case "input_image":
			// data URLs are not modeled on this item shape in practice; skip
		case "tool_result":
			blocks = append(blocks, canonical.Block{Type: canonical.BlockToolResult, Content: canonical.NewStringContent(c.Text)})
		}
	}
	return canonical.Message{Role: role, Content: canonical.NewBlockContent(blocks)}
}

func toolsFromWire(tools []WireTool) []canonical.ToolSchema {
	if len(tools) == 0 {
		return nil
	}
	out := make([]canonical.ToolSchema, 0, len(tools))
	for _, t := range tools {
		out = append(out, canonical.ToolSchema{Name: t.Name, Description: t.Description, Parameters: schema.Sanitize(t.Parameters)})
	}
	return out
}

// FromCanonical renders a canonical non-streaming response as the public
// Responses wire shape, preserving arrival order of reasoning/message/
// function_call items (resolved open question: do not reorder reasoning to
// output[0]).
func FromCanonical(resp *canonical.Response) WireResponse {
	var output []WireItem
	var textParts []WireItemContent

	flushMessage := func() {
		if len(textParts) == 0 {
			return
		}
		output = append(output, WireItem{Type: "message", Role: "assistant", Status: "completed", Content: textParts})
		textParts = nil
	}

	for _, b := range resp.Content {
		switch b.Type {
		case canonical.BlockThinking:
			flushMessage()
			output = append(output, WireItem{Type: "reasoning", Summary: []WireSummaryPart{{Type: "summary_text", Text: truncateSummary(b.Thinking)}}})
		case canonical.BlockText:
			textParts = append(textParts, WireItemContent{Type: "output_text", Text: b.Text})
		case canonical.BlockToolUse:
			flushMessage()
			args := string(b.Input)
			if args == "" {
				args = "{}"
			}
			output = append(output, WireItem{Type: "function_call", CallID: b.ID, Name: b.Name, Arguments: args, Status: "completed"})
		}
	}
	flushMessage()

	status := "completed"
	if resp.StopReason == canonical.StopMaxTokens {
		status = "incomplete"
	}

	return WireResponse{
		ID:     "resp_" + uuid.NewString(),
		Object: "response",
		Model:  resp.Model,
		Status: status,
		Output: output,
		Usage: WireUsage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}
}

func truncateSummary(s string) string {
	if len(s) <= summaryMaxChars {
		return s
	}
	return strings.TrimSpace(s[:summaryMaxChars]) + "…"
}
