// Package canonical defines the Anthropic-shaped intermediate representation
// that every dialect adapter translates to and from. No adapter produces or
// consumes any other adapter's wire types directly.
package canonical

import "encoding/json"

// Role is the canonical message role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType enumerates the canonical content-block variants.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockThinking   BlockType = "thinking"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
	BlockImage      BlockType = "image"
)

// ImageSource is the `source` object of an `image` block.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Block is one tagged-union content block. Only the fields relevant to Type
// are meaningful; the zero value of the others is ignored by adapters.
type Block struct {
	Type BlockType `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string        `json:"tool_use_id,omitempty"`
	Content   *StringOrList `json:"content,omitempty"`
	IsError   bool          `json:"is_error,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`
}

// StringOrList represents a field that may be a bare string or a list of
// content blocks on the wire. Exactly one of String/Blocks is populated;
// IsString reports which.
type StringOrList struct {
	IsString bool
	String   string
	Blocks   []Block
}

// NewStringContent builds a StringOrList carrying a bare string.
func NewStringContent(s string) *StringOrList {
	return &StringOrList{IsString: true, String: s}
}

// NewBlockContent builds a StringOrList carrying typed blocks.
func NewBlockContent(blocks []Block) *StringOrList {
	return &StringOrList{Blocks: blocks}
}

// Text concatenates every text-bearing block (text and thinking-as-downgraded
// text are both plain text blocks by the time this is called), or returns the
// bare string form.
func (s *StringOrList) Text() string {
	if s == nil {
		return ""
	}
	if s.IsString {
		return s.String
	}
	out := ""
	for _, b := range s.Blocks {
		if b.Type == BlockText {
			out += b.Text
		}
	}
	return out
}

func (s *StringOrList) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	if s.IsString {
		return json.Marshal(s.String)
	}
	return json.Marshal(s.Blocks)
}

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	trimmed := trimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*s = StringOrList{}
		return nil
	}
	if trimmed[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = StringOrList{IsString: true, String: str}
		return nil
	}
	var blocks []Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}
	*s = StringOrList{Blocks: blocks}
	return nil
}

func trimSpace(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isJSONSpace(b[start]) {
		start++
	}
	for end > start && isJSONSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Message is one canonical conversation turn.
type Message struct {
	Role    Role          `json:"role"`
	Content *StringOrList `json:"content"`
}

// Thinking carries the canonical request's thinking-mode request.
type Thinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens,omitempty"`
}

// ToolSchema is one canonical tool declaration; Parameters is a sanitized
// JSON-Schema object (see internal/schema).
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"input_schema"`
}

// Request is the canonical request all dialect adapters produce on inbound
// translation and consume on outbound translation.
type Request struct {
	Model       string        `json:"model"`
	Messages    []Message     `json:"messages"`
	System      *StringOrList `json:"system,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
	Thinking    *Thinking     `json:"thinking,omitempty"`
	Tools       []ToolSchema  `json:"tools,omitempty"`
}

// DefaultMaxTokens is applied whenever a client omits max_tokens.
const DefaultMaxTokens = 4096

// EnsureMaxTokens fills in the spec-mandated default.
func (r *Request) EnsureMaxTokens() {
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
}

// StopReason is the canonical response's termination reason.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopMaxTokens StopReason = "max_tokens"
	StopToolUse   StopReason = "tool_use"
)

// Usage mirrors the upstream usage accounting echoed back to clients.
type Usage struct {
	InputTokens      int `json:"input_tokens"`
	OutputTokens     int `json:"output_tokens"`
	CacheReadTokens  int `json:"cache_read_input_tokens,omitempty"`
	CacheWriteTokens int `json:"cache_creation_input_tokens,omitempty"`
}

// Response is the canonical non-streaming result assembled by C6 and
// translated by the adapter in use.
type Response struct {
	Model      string     `json:"model"`
	Content    []Block    `json:"content"`
	StopReason StopReason `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}

// LastAssistantMessage returns the last assistant message, if any.
func (r *Request) LastAssistantMessage() *Message {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleAssistant {
			return &r.Messages[i]
		}
	}
	return nil
}

// FirstUserText returns the first text found in the first user message,
// used to derive the deterministic session id.
func (r *Request) FirstUserText() (string, bool) {
	for _, m := range r.Messages {
		if m.Role != RoleUser || m.Content == nil {
			continue
		}
		if m.Content.IsString {
			if m.Content.String != "" {
				return m.Content.String, true
			}
			continue
		}
		for _, b := range m.Content.Blocks {
			if b.Type == BlockText && b.Text != "" {
				return b.Text, true
			}
		}
	}
	return "", false
}

// MergeAdjacentRoles merges consecutive same-role messages into one,
// promoting bare strings to a single text block during the merge. This
// enforces invariant I4: no canonical request leaving an adapter contains
// two adjacent messages with the same role.
func MergeAdjacentRoles(msgs []Message) []Message {
	if len(msgs) == 0 {
		return msgs
	}
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if len(out) > 0 && out[len(out)-1].Role == m.Role {
			prev := &out[len(out)-1]
			prevBlocks := toBlocks(prev.Content)
			curBlocks := toBlocks(m.Content)
			prev.Content = NewBlockContent(append(prevBlocks, curBlocks...))
			continue
		}
		out = append(out, m)
	}
	return out
}

func toBlocks(c *StringOrList) []Block {
	if c == nil {
		return nil
	}
	if c.IsString {
		if c.String == "" {
			return nil
		}
		return []Block{{Type: BlockText, Text: c.String}}
	}
	return append([]Block(nil), c.Blocks...)
}
