package gemini

import (
	"encoding/json"
	"strings"

	"github.com/loqwe/anyproxyai/internal/canonical"
	"github.com/loqwe/anyproxyai/internal/schema"
)

// ToCanonical converts a parsed wire request into the canonical request.
// model is the path-derived model identifier (Gemini carries it in the URL,
// not the body).
func ToCanonical(req WireRequest, model string) *canonical.Request {
	var system *canonical.StringOrList
	if req.SystemInstruction != nil {
		var joined strings.Builder
		for _, p := range req.SystemInstruction.Parts {
			if p.Text == "" {
				continue
			}
			if joined.Len() > 0 {
				joined.WriteString("\n")
			}
			joined.WriteString(p.Text)
		}
		if joined.Len() > 0 {
			system = canonical.NewStringContent(joined.String())
		}
	}

	messages := make([]canonical.Message, 0, len(req.Contents))
	for _, c := range req.Contents {
		role := canonical.RoleUser
		if c.Role == "model" {
			role = canonical.RoleAssistant
		}
		blocks := make([]canonical.Block, 0, len(c.Parts))
		forceUser := false
		for _, p := range c.Parts {
			switch {
			case p.FunctionCall != nil:
				args, _ := json.Marshal(p.FunctionCall.Args)
				blocks = append(blocks, canonical.Block{
					Type:      canonical.BlockToolUse,
					ID:        p.FunctionCall.ID,
					Name:      p.FunctionCall.Name,
					Input:     args,
					Signature: p.ThoughtSignature,
				})
			case p.FunctionResponse != nil:
				forceUser = true
				blocks = append(blocks, canonical.Block{
					Type:      canonical.BlockToolResult,
					ToolUseID: p.FunctionResponse.ID,
					Content:   canonical.NewStringContent(p.FunctionResponse.Response.Result),
				})
			case p.InlineData != nil:
				blocks = append(blocks, canonical.Block{
					Type: canonical.BlockImage,
					Source: &canonical.ImageSource{
						Type: "base64", MediaType: p.InlineData.MimeType, Data: p.InlineData.Data,
					},
				})
			case p.Thought:
				blocks = append(blocks, canonical.Block{Type: canonical.BlockThinking, Thinking: p.Text, Signature: p.ThoughtSignature})
			default:
				blocks = append(blocks, canonical.Block{Type: canonical.BlockText, Text: p.Text})
			}
		}
		if forceUser {
			role = canonical.RoleUser
		}
		messages = append(messages, canonical.Message{Role: role, Content: canonical.NewBlockContent(blocks)})
	}

	out := &canonical.Request{
		Model:    model,
		Messages: canonical.MergeAdjacentRoles(messages),
		System:   system,
		Tools:    toolsFromWire(req.Tools),
	}

	if req.GenerationConfig != nil {
		out.MaxTokens = req.GenerationConfig.MaxOutputTokens
		out.Temperature = req.GenerationConfig.Temperature
		out.TopP = req.GenerationConfig.TopP
		if tc := req.GenerationConfig.ThinkingConfig; tc != nil && tc.IncludeThoughts {
			budget := tc.ThinkingBudget
			if budget <= 0 {
				budget = defaultThinkingBudget
			}
			out.Thinking = &canonical.Thinking{Type: "enabled", BudgetTokens: budget}
		}
	}
	out.EnsureMaxTokens()
	return out
}

func toolsFromWire(tools []WireTool) []canonical.ToolSchema {
	var out []canonical.ToolSchema
	for _, t := range tools {
		if t.GoogleSearch != nil {
			out = append(out, canonical.ToolSchema{Name: "web_search", Parameters: map[string]any{}})
			continue
		}
		for _, fd := range t.FunctionDeclarations {
			out = append(out, canonical.ToolSchema{Name: fd.Name, Description: fd.Description, Parameters: schema.Sanitize(fd.Parameters)})
		}
	}
	return out
}

// FromCanonical renders a canonical non-streaming response as the public
// Gemini wire response shape.
func FromCanonical(resp *canonical.Response) WireResponse {
	var parts []WirePart
	for _, b := range resp.Content {
		switch b.Type {
		case canonical.BlockThinking:
			parts = append(parts, WirePart{Text: b.Thinking, Thought: true, ThoughtSignature: b.Signature})
		case canonical.BlockText:
			parts = append(parts, WirePart{Text: b.Text})
		case canonical.BlockToolUse:
			var args map[string]any
			_ = json.Unmarshal(b.Input, &args)
			parts = append(parts, WirePart{FunctionCall: &WireFunctionCall{Name: b.Name, Args: args, ID: b.ID}})
		}
	}

	usage := resp.Usage
	u := WireUsage{
		PromptTokenCount:     usage.InputTokens + usage.CacheReadTokens,
		CandidatesTokenCount: usage.OutputTokens,
		TotalTokenCount:      usage.InputTokens + usage.CacheReadTokens + usage.OutputTokens,
	}
	if usage.CacheReadTokens > 0 {
		u.CachedContentTokenCount = usage.CacheReadTokens
	}

	return WireResponse{
		Candidates: []WireCandidate{{
			Content:      WireContent{Role: "model", Parts: parts},
			FinishReason: mapFinishReason(resp.StopReason),
			Index:        0,
		}},
		UsageMetadata: u,
		ModelVersion:  resp.Model,
	}
}

func mapFinishReason(r canonical.StopReason) string {
	switch r {
	case canonical.StopToolUse:
		return "TOOL_USE"
	case canonical.StopMaxTokens:
		return "MAX_TOKENS"
	default:
		return "STOP"
	}
}
