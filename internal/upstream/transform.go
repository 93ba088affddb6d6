package upstream

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/loqwe/anyproxyai/internal/canonical"
	"github.com/loqwe/anyproxyai/internal/schema"
	"github.com/loqwe/anyproxyai/internal/thinking"
)

// identityPreamble is the fixed, upstream-mandated system-prompt fragment.
// Verbatim text grounded on the Antigravity-specific reference material;
// the only hard requirement spec.md imposes is that it contains the
// substring "You are Antigravity".
const identityPreamble = `You are Antigravity, a powerful agentic AI coding assistant designed by the Google Deepmind team working on Advanced Agentic Coding. You are pair programming with a USER to solve their coding task. The task may require creating a new codebase, modifying or debugging an existing codebase, or simply answering a question.

Absolute paths only. Proactiveness is expected: once you have enough information to act, act, rather than asking the USER unnecessary clarifying questions.`

const identityMarker = "You are Antigravity"

// DefaultStopSequences is the fixed stop-sequence list always sent upstream.
var DefaultStopSequences = []string{"<|user|>", "<|endoftext|>", "<|end_of_turn|>", "[DONE]", "\n\nHuman:"}

const maxOutputTokens = 64000
const flashThinkingBudgetCap = 24576

// modelAliases is the longest-prefix alias table used by MapModel.
var modelAliases = []struct {
	prefix string
	target string
}{
	{"claude-3-5-sonnet", "claude-sonnet-4-5"},
	{"claude-opus-4", "claude-opus-4-5-thinking"},
	{"gpt-4", "claude-sonnet-4-5"},
	{"gpt-3.5", "gemini-2.5-flash"},
}

// SupportedModels is the fixed set treated as an exact-match identity hit.
var SupportedModels = map[string]bool{
	"claude-sonnet-4-5":        true,
	"claude-opus-4-5-thinking": true,
	"gemini-2.5-flash":         true,
	"gemini-3-pro":             true,
}

const fallbackModel = "claude-sonnet-4-5"

// MapModel implements spec.md §4.4's model-mapping lookup.
func MapModel(requested string) string {
	if SupportedModels[requested] {
		return requested
	}
	for _, a := range modelAliases {
		if strings.HasPrefix(requested, a.prefix) {
			return a.target
		}
	}
	if strings.HasPrefix(requested, "gemini-") || strings.HasPrefix(requested, "claude-") {
		return requested
	}
	return fallbackModel
}

// SupportsThinking implements spec.md §4.4's thinking-support predicate.
func SupportsThinking(model string) bool {
	lower := strings.ToLower(model)
	return strings.Contains(lower, "-thinking") ||
		strings.Contains(lower, "gemini-3-pro") ||
		strings.HasPrefix(lower, "claude-")
}

// IsGeminiFamily reports whether model is Gemini-family (eligible for the
// dummy signature) as opposed to Claude-family (which rejects it).
func IsGeminiFamily(model string) bool {
	return !strings.HasPrefix(strings.ToLower(model), "claude-")
}

// SessionID implements spec.md §4.4's deterministic/random session id rule.
func SessionID(req *canonical.Request) string {
	text, ok := req.FirstUserText()
	var n uint64
	if ok {
		sum := sha256.Sum256([]byte(text))
		n = binary.BigEndian.Uint64(sum[:8]) & 0x7fffffffffffffff
	} else {
		var buf [8]byte
		_, _ = rand.Read(buf[:])
		n = binary.BigEndian.Uint64(buf[:]) & 0x7fffffffffffffff
	}
	return "-" + itoa(n)
}

func itoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// ThinkingDecision is the outcome of deciding whether thinking is enabled
// for this request, and whether any thinking blocks had to be stripped.
type ThinkingDecision struct {
	Enabled  bool
	Gemini   bool
	Stripped bool
}

// DecideThinking implements spec.md §4.4's thinking-enablement rule. When
// the client's dialect never populated req.Thinking (its wire shape has no
// native thinking toggle), enableThinking — the server's own default —
// decides instead, so server config still turns thinking on for dialects
// like OpenAI Chat that have no equivalent request field.
func DecideThinking(req *canonical.Request, mappedModel string, store *thinking.Store, enableThinking bool) ThinkingDecision {
	d := ThinkingDecision{Gemini: IsGeminiFamily(mappedModel)}

	requested := enableThinking
	if req.Thinking != nil {
		requested = req.Thinking.Type == "enabled"
	}
	supported := SupportsThinking(mappedModel)
	gated := thinking.CompatibilityGate(req)

	sigOK := true
	if thinking.ContainsToolCalls(req) {
		sigOK = thinking.SignatureAvailable(req, store)
	}

	d.Enabled = requested && supported && gated && sigOK
	return d
}

// Transform turns a canonical request into the upstream envelope. project
// is the resolved (possibly lazily bootstrapped) project id.
func Transform(req *canonical.Request, project string, store *thinking.Store, thinkingBudgetDefault int, enableThinking bool) Envelope {
	mapped := MapModel(req.Model)
	decision := DecideThinking(req, mapped, store, enableThinking)

	contents, stripped := buildContents(req, mapped, decision, store)
	if stripped {
		decision.Enabled = false
		contents, _ = buildContents(req, mapped, decision, store)
	}

	sys := buildSystemInstruction(req)

	budget := thinkingBudgetDefault
	if req.Thinking != nil && req.Thinking.BudgetTokens > 0 {
		budget = req.Thinking.BudgetTokens
	}
	if strings.Contains(mapped, "gemini-2.5-flash") && budget > flashThinkingBudgetCap {
		budget = flashThinkingBudgetCap
	}

	gen := &GenerationConfig{
		MaxOutputTokens: maxOutputTokens,
		StopSequences:   append([]string(nil), DefaultStopSequences...),
		Temperature:     req.Temperature,
		TopP:            req.TopP,
	}
	if decision.Enabled {
		gen.ThinkingConfig = &ThinkingConfig{IncludeThoughts: true}
		if budget > 0 {
			gen.ThinkingConfig.ThinkingBudget = budget
		}
	}

	return Envelope{
		Project:     project,
		RequestID:   "agent-" + uuid.NewString(),
		UserAgent:   "antigravity/1.104.0 darwin/arm64",
		RequestType: "agent",
		Model:       mapped,
		Request: Payload{
			Contents:          contents,
			ToolConfig:        &ToolConfig{FunctionCallingConfig: FunctionCallingConfig{Mode: "VALIDATED"}},
			SessionID:         SessionID(req),
			SystemInstruction: sys,
			GenerationConfig:  gen,
			Tools:             buildTools(req.Tools),
		},
	}
}

func buildSystemInstruction(req *canonical.Request) *SystemInstruction {
	var parts []Part
	if req.System != nil {
		text := req.System.Text()
		if text != "" {
			parts = append(parts, Part{Text: text})
		}
	}
	hasIdentity := false
	for _, p := range parts {
		if strings.Contains(p.Text, identityMarker) {
			hasIdentity = true
			break
		}
	}
	if !hasIdentity {
		parts = append([]Part{{Text: identityPreamble}}, parts...)
	}
	return &SystemInstruction{Parts: parts}
}

// resolveSignature implements spec.md §4.4's priority-ordered signature
// resolution for a tool_use block's own thought_signature: block's own,
// then the store, then (Gemini-family only) the dummy sentinel. Thinking
// blocks go through thinking.FilterMessage instead (spec.md §4.2's
// Filtering procedure), which already applies the repair/downgrade/drop
// rule including the trailing-signature case this function doesn't know
// about.
func resolveSignature(blockSig string, store *thinking.Store, gemini bool) (sig string, ok bool) {
	if len(blockSig) >= thinking.MinSignatureLength {
		return blockSig, true
	}
	if stored, has := store.Get(); has && len(stored) >= thinking.MinSignatureLength {
		return stored, true
	}
	if gemini {
		return thinking.DummySignature, true
	}
	return "", false
}

// buildContents translates canonical messages into upstream contents,
// applying the thinking-placement and signature-resolution rules of
// spec.md §4.4. It returns whether any thinking block had to be stripped
// for lack of an available signature (forcing the caller to redo the pass
// with thinking disabled for the whole request).
func buildContents(req *canonical.Request, mappedModel string, decision ThinkingDecision, store *thinking.Store) ([]Content, bool) {
	contents := make([]Content, 0, len(req.Messages))
	strippedAny := false

	for _, m := range req.Messages {
		role := "user"
		if m.Role == canonical.RoleAssistant {
			role = "model"
		}
		blocks := toBlocks(m.Content)
		if m.Role == canonical.RoleAssistant {
			filtered := thinking.FilterMessage(blocks, store)
			blocks = filtered.Blocks
			if filtered.Stripped {
				strippedAny = true
			}
		}
		parts := make([]Part, 0, len(blocks))

		for i, b := range blocks {
			switch b.Type {
			case canonical.BlockThinking:
				// FilterMessage already validated/repaired b.Signature
				// (spec.md §4.2): every thinking block reaching here
				// carries a usable signature.
				if !decision.Enabled || i != 0 {
					text := b.Thinking
					parts = append(parts, Part{Text: text})
					continue
				}
				text := b.Thinking
				if text == "" {
					text = "..."
				}
				parts = append(parts, Part{Text: text, Thought: true, ThoughtSignature: b.Signature})
			case canonical.BlockText:
				parts = append(parts, Part{Text: b.Text})
			case canonical.BlockToolUse:
				sig := ""
				if decision.Enabled {
					if s, ok := resolveSignature(b.Signature, store, decision.Gemini); ok {
						sig = s
					} else {
						strippedAny = true
					}
				}
				parts = append(parts, Part{
					FunctionCall: &FunctionCall{
						Name: b.Name,
						Args: toolInput(b.Input),
						ID:   b.ID,
					},
					ThoughtSignature: sig,
				})
			case canonical.BlockToolResult:
				parts = append(parts, Part{
					FunctionResponse: &FunctionResponse{
						Name: b.ToolUseID,
						ID:   b.ToolUseID,
						Response: FunctionResponseInnerBody{
							Result: toolResultText(b),
						},
					},
				})
				role = "user"
			case canonical.BlockImage:
				if b.Source != nil {
					parts = append(parts, Part{InlineData: &InlineData{MimeType: b.Source.MediaType, Data: b.Source.Data}})
				}
			}
		}

		if role == "model" && decision.Enabled && decision.Gemini {
			parts = insertDummyThought(parts)
		}

		contents = append(contents, Content{Role: role, Parts: parts})
	}

	return contents, strippedAny
}

func insertDummyThought(parts []Part) []Part {
	if len(parts) == 0 {
		return parts
	}
	if parts[0].Thought {
		return parts
	}
	dummy := Part{Text: "Thinking…", Thought: true, ThoughtSignature: thinking.DummySignature}
	return append([]Part{dummy}, parts...)
}

func toolInput(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}

func toolResultText(b canonical.Block) string {
	if b.Content != nil {
		if b.Content.IsString {
			return b.Content.String
		}
		var out strings.Builder
		for i, part := range b.Content.Blocks {
			if part.Type != canonical.BlockText {
				continue
			}
			if i > 0 && out.Len() > 0 {
				out.WriteString("\n")
			}
			out.WriteString(part.Text)
		}
		return out.String()
	}
	if b.IsError {
		return "Tool execution failed."
	}
	return "Success."
}

func toBlocks(c *canonical.StringOrList) []canonical.Block {
	if c == nil {
		return nil
	}
	if c.IsString {
		if c.String == "" {
			return nil
		}
		return []canonical.Block{{Type: canonical.BlockText, Text: c.String}}
	}
	return c.Blocks
}

func buildTools(tools []canonical.ToolSchema) []Tool {
	if len(tools) == 0 {
		return nil
	}
	for _, t := range tools {
		if t.Name == "web_search" {
			return []Tool{{GoogleSearch: &GoogleSearch{EnhancedContent: GoogleSearchEnhancedContent{ImageSearch: GoogleSearchImageSearch{MaxResultCount: 5}}}}}
		}
	}
	decls := make([]FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema.Sanitize(t.Parameters),
		})
	}
	return []Tool{{FunctionDeclarations: decls}}
}
