package observability

import (
	"encoding/json"
	"fmt"
	"strings"
)

// sensitiveKeys are redacted wholesale wherever they appear in a logged
// request body: upstream auth material, plus thought_signature (spec.md
// §4.2's opaque continuation token, which is bearer-like even though it
// isn't a credential in the OAuth sense).
var sensitiveKeys = []string{
	"api_key", "apikey", "x-api-key", "authorization", "token",
	"refresh_token", "password", "secret", "bearer", "thought_signature", "thoughtsignature",
}

// maxInlineDataLen bounds how much of a base64 image payload (canonical
// BlockImage / Gemini inlineData "data" field) survives into a debug log
// line; anyproxyai's request bodies can embed multi-megabyte images that
// would otherwise drown the structured log.
const maxInlineDataLen = 64

// RedactJSON takes a JSON request body and returns a copy with sensitive
// values replaced by "[REDACTED]" and inline image payloads truncated, safe
// to attach to a debug log line.
func RedactJSON(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return raw
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	redacted := redactValue(v)
	b, err := json.Marshal(redacted)
	if err != nil {
		return raw
	}
	return b
}

func redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, vv := range val {
			switch {
			case isSensitiveKey(k):
				val[k] = "[REDACTED]"
			case isInlineDataKey(k):
				val[k] = truncateInlineData(vv)
			default:
				val[k] = redactValue(vv)
			}
		}
		return val
	case []any:
		for i := range val {
			val[i] = redactValue(val[i])
		}
		return val
	default:
		return v
	}
}

func isSensitiveKey(k string) bool {
	low := strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if low == s || strings.Contains(low, s) {
			return true
		}
	}
	return false
}

func isInlineDataKey(k string) bool {
	return strings.ToLower(k) == "data"
}

func truncateInlineData(v any) any {
	s, ok := v.(string)
	if !ok || len(s) <= maxInlineDataLen {
		return v
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:maxInlineDataLen], len(s))
}

