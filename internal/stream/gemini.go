package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// GeminiPassthrough re-emits the upstream SSE stream nearly verbatim: each
// event is unwrapped from its optional `{response:…}` envelope, stamped
// with `modelVersion`, and written straight through as `data: <json>`. No
// canonical translation occurs; this is deliberately the thinnest dialect.
type GeminiPassthrough struct {
	w     io.Writer
	flush func()
	model string
}

// NewGeminiPassthrough constructs a pass-through emitter.
func NewGeminiPassthrough(w io.Writer, flush func(), model string) *GeminiPassthrough {
	return &GeminiPassthrough{w: w, flush: flush, model: model}
}

// Run drains r line by line, re-emitting each upstream event.
func (g *GeminiPassthrough) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == doneMarker {
			if _, err := fmt.Fprint(g.w, "data: [DONE]\n\n"); err != nil {
				return err
			}
			g.flush()
			return nil
		}

		raw := []byte(payload)
		if wrapped := gjson.GetBytes(raw, "response"); wrapped.Exists() {
			raw = []byte(wrapped.Raw)
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			continue // malformed line: drop and keep reading
		}
		modelVersion, _ := json.Marshal(g.model)
		obj["modelVersion"] = modelVersion

		out, err := json.Marshal(obj)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(g.w, "data: %s\n\n", out); err != nil {
			return err
		}
		g.flush()
	}
	return scanner.Err()
}
