package stream

import (
	"io"

	"github.com/loqwe/anyproxyai/internal/canonical"
)

// Drive reads r to completion through a fresh Assembler, invoking onEvent
// for every event produced including the terminal message_delta/message_stop
// pair. It is the shared inner loop behind both the canonical (Anthropic)
// and OpenAI-Chat streaming emitters, and behind Aggregate — the single
// place block-ordering is decided, which is what makes streaming and
// non-streaming output equivalent by construction.
//
// If onStart is non-nil, it is called exactly once, before the first event
// reaches onEvent, with the usage metadata carried on the first chunk read
// (zero-value if the stream ends before any chunk arrives) — this is what
// lets a caller's message_start carry a real initial usage instead of a
// hardcoded zero value.
func Drive(r io.Reader, onStart func(canonical.Usage) error, onEvent func(Event) error) error {
	reader := NewEventReader(r)
	asm := NewAssembler()
	var usage canonical.Usage
	started := false

	start := func() error {
		if started || onStart == nil {
			started = true
			return nil
		}
		started = true
		return onStart(usage)
	}

	for {
		chunk, done, err := reader.Next()
		if err != nil {
			return err
		}
		if done {
			break
		}
		if chunk.UsageMetadata != nil {
			usage = canonical.Usage{
				InputTokens:     chunk.UsageMetadata.PromptTokenCount - chunk.UsageMetadata.CachedContentTokenCount,
				OutputTokens:    chunk.UsageMetadata.CandidatesTokenCount,
				CacheReadTokens: chunk.UsageMetadata.CachedContentTokenCount,
			}
		}
		if err := start(); err != nil {
			return err
		}
		for _, cand := range chunk.Candidates {
			for _, part := range cand.Content.Parts {
				for _, ev := range asm.Feed(part) {
					if err := onEvent(ev); err != nil {
						return err
					}
				}
			}
			if cand.FinishReason != "" {
				asm.NoteFinishReason(cand.FinishReason)
			}
		}
	}
	if err := start(); err != nil {
		return err
	}

	for _, ev := range asm.Finish(usage) {
		if err := onEvent(ev); err != nil {
			return err
		}
	}
	return nil
}
