package thinking

import "github.com/loqwe/anyproxyai/internal/canonical"

// FilterResult reports the outcome of filtering one assistant message's
// content list.
type FilterResult struct {
	Blocks  []canonical.Block
	Stripped bool // a thinking block was downgraded or dropped for lack of a signature
}

// FilterMessage walks an assistant message's content list and applies the
// validation/repair rules of the thinking-block policy:
//
//   - a valid thinking block is kept, with any caching metadata stripped;
//   - an invalid block is repaired from the store when a long-enough
//     signature is available;
//   - otherwise it downgrades to text (non-empty thinking) or is dropped
//     (empty thinking);
//   - non-thinking blocks are kept as-is;
//   - if the content list empties out, a single empty text block is
//     substituted.
func FilterMessage(blocks []canonical.Block, store *Store) FilterResult {
	out := make([]canonical.Block, 0, len(blocks))
	stripped := false

	for _, b := range blocks {
		if b.Type != canonical.BlockThinking {
			out = append(out, b)
			continue
		}
		if IsValid(b.Signature, b.Thinking) {
			out = append(out, b)
			continue
		}
		if sig, ok := store.Get(); ok && len(sig) >= MinSignatureLength {
			repaired := b
			repaired.Signature = sig
			out = append(out, repaired)
			continue
		}
		stripped = true
		if b.Thinking != "" {
			out = append(out, canonical.Block{Type: canonical.BlockText, Text: b.Thinking})
		}
		// empty thinking with no repair available: drop entirely
	}

	if len(out) == 0 {
		out = append(out, canonical.Block{Type: canonical.BlockText, Text: ""})
	}

	return FilterResult{Blocks: out, Stripped: stripped}
}

// LastAssistantBlocksOf returns the content blocks of msg, normalized to a
// slice (a bare string becomes a single text block).
func LastAssistantBlocksOf(msg *canonical.Message) []canonical.Block {
	if msg == nil || msg.Content == nil {
		return nil
	}
	if msg.Content.IsString {
		if msg.Content.String == "" {
			return nil
		}
		return []canonical.Block{{Type: canonical.BlockText, Text: msg.Content.String}}
	}
	return msg.Content.Blocks
}

// HasToolUseWithoutThinking reports whether blocks contains a tool_use block
// but no thinking block — the condition under which the upstream rejects a
// thinking-enabled continuation ("final assistant message must start with
// thinking").
func HasToolUseWithoutThinking(blocks []canonical.Block) bool {
	hasToolUse, hasThinking := false, false
	for _, b := range blocks {
		switch b.Type {
		case canonical.BlockToolUse:
			hasToolUse = true
		case canonical.BlockThinking:
			hasThinking = true
		}
	}
	return hasToolUse && !hasThinking
}

// CompatibilityGate implements the compatibility-gating rule: thinking must
// be forcibly disabled for the next request when the most recent assistant
// message contains tool_use but no thinking block.
func CompatibilityGate(req *canonical.Request) bool {
	last := req.LastAssistantMessage()
	if last == nil {
		return true
	}
	return !HasToolUseWithoutThinking(LastAssistantBlocksOf(last))
}

// SignatureAvailable reports whether a request that carries tool calls may
// still enable thinking: some signature (global store, or any assistant
// message's thinking block) must be valid.
func SignatureAvailable(req *canonical.Request, store *Store) bool {
	if _, ok := store.Get(); ok {
		return true
	}
	for _, m := range req.Messages {
		if m.Role != canonical.RoleAssistant || m.Content == nil || m.Content.IsString {
			continue
		}
		for _, b := range m.Content.Blocks {
			if b.Type == canonical.BlockThinking && IsValid(b.Signature, b.Thinking) {
				return true
			}
		}
	}
	return false
}

// ContainsToolCalls reports whether req carries any tool declarations —
// used to decide whether the signature-availability check applies at all.
func ContainsToolCalls(req *canonical.Request) bool {
	return len(req.Tools) > 0
}
