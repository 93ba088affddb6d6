package stream

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

const doneMarker = "[DONE]"

// EventReader iterates upstream SSE `data:` lines, tolerantly unwrapping
// the optional `{response:…, responseId:…}` envelope and decoding each
// payload into a Chunk. Malformed individual lines are silently dropped
// (spec-mandated): the stream continues rather than failing the request.
type EventReader struct {
	scanner *bufio.Scanner
}

// NewEventReader wraps r for line-oriented SSE consumption.
func NewEventReader(r io.Reader) *EventReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	return &EventReader{scanner: scanner}
}

// Next returns the next decoded chunk. done is true once the upstream
// terminator line is observed or the underlying reader is exhausted.
func (e *EventReader) Next() (chunk Chunk, done bool, err error) {
	for e.scanner.Scan() {
		line := strings.TrimSpace(e.scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		if payload == doneMarker {
			return Chunk{}, true, nil
		}

		raw := []byte(payload)
		if wrapped := gjson.GetBytes(raw, "response"); wrapped.Exists() {
			raw = []byte(wrapped.Raw)
		}

		var c Chunk
		if err := json.Unmarshal(raw, &c); err != nil {
			continue // malformed line: drop and keep reading
		}
		return c, false, nil
	}
	if err := e.scanner.Err(); err != nil {
		return Chunk{}, true, err
	}
	return Chunk{}, true, nil
}
