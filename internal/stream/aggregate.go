package stream

import (
	"io"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

// Aggregate implements the non-streaming aggregator (C6): it consumes the
// upstream SSE body in full, still parsed line-by-line, and returns one
// canonical response built from the same Assembler the streaming emitters
// drive (invariant I10: equivalent to draining the stream and concatenating
// block payloads).
func Aggregate(r io.Reader, model string) (*canonical.Response, error) {
	var events []Event
	if err := Drive(r, nil, func(ev Event) error {
		events = append(events, ev)
		return nil
	}); err != nil {
		return nil, err
	}

	blocks, stopReason, finalUsage := ReduceEvents(events)
	return &canonical.Response{
		Model:      model,
		Content:    blocks,
		StopReason: stopReason,
		Usage:      finalUsage,
	}, nil
}

// ReduceEvents folds an assembler event sequence back into the ordered
// content-block list plus the terminal stop reason and usage. Shared by the
// aggregator and by tests asserting streaming/non-streaming equivalence.
func ReduceEvents(events []Event) ([]canonical.Block, canonical.StopReason, canonical.Usage) {
	var blocks []canonical.Block
	index := map[int]int{} // assembler index -> position in blocks
	var stopReason canonical.StopReason
	var usage canonical.Usage

	blockFor := func(i int) *canonical.Block {
		pos, ok := index[i]
		if !ok {
			return nil
		}
		return &blocks[pos]
	}

	for _, e := range events {
		switch e.Kind {
		case EventBlockStart:
			var b canonical.Block
			switch e.Block {
			case BlockText:
				b.Type = canonical.BlockText
			case BlockThinking:
				b.Type = canonical.BlockThinking
			case BlockFunction:
				b.Type = canonical.BlockToolUse
				b.ID = e.ToolID
				b.Name = e.ToolName
			}
			blocks = append(blocks, b)
			index[e.Index] = len(blocks) - 1
		case EventTextDelta:
			if b := blockFor(e.Index); b != nil {
				b.Text += e.Text
			}
		case EventThinkingDelta:
			if b := blockFor(e.Index); b != nil {
				b.Thinking += e.Text
			}
		case EventSignatureDelta:
			if b := blockFor(e.Index); b != nil {
				b.Signature = e.Signature
			}
		case EventInputJSONDelta:
			if b := blockFor(e.Index); b != nil {
				b.Input = e.Args
			}
		case EventMessageDelta:
			stopReason = e.StopReason
			usage = e.Usage
		}
	}
	return blocks, stopReason, usage
}
