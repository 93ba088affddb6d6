package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/loqwe/anyproxyai/internal/apierr"
	"github.com/loqwe/anyproxyai/internal/canonical"
	"github.com/loqwe/anyproxyai/internal/dialect/anthropic"
	"github.com/loqwe/anyproxyai/internal/dialect/cursor"
	"github.com/loqwe/anyproxyai/internal/dialect/gemini"
	"github.com/loqwe/anyproxyai/internal/dialect/legacy"
	"github.com/loqwe/anyproxyai/internal/dialect/openaichat"
	"github.com/loqwe/anyproxyai/internal/dialect/responses"
	"github.com/loqwe/anyproxyai/internal/observability"
	"github.com/loqwe/anyproxyai/internal/stream"
	"github.com/loqwe/anyproxyai/internal/upstream"
)

// serve runs the shared C4/C7 pipeline (transform, dispatch upstream) and
// then either drives streamFn against the live SSE body or aggregates it
// and hands the canonical response to aggFn, per spec.md §4.7's "always
// stream upstream, even for a non-streaming client" rule.
func (s *Server) serve(
	w http.ResponseWriter, r *http.Request,
	canonReq *canonical.Request, wantStream bool, errw errRenderer,
	streamFn func(body io.Reader, flush func()) error,
	aggFn func(resp *canonical.Response),
) {
	canonReq.EnsureMaxTokens()
	if ev := log.Debug(); ev.Enabled() {
		if raw, err := json.Marshal(canonReq); err == nil {
			ev.Str("model", canonReq.Model).Bool("stream", wantStream).
				RawJSON("request", observability.RedactJSON(raw)).Msg("dispatching to upstream")
		}
	}
	envelope := upstream.Transform(canonReq, "", s.sigStore, s.thinkBudget, s.enableThinking)

	body, err := s.client.Stream(r.Context(), envelope)
	if err != nil {
		writeUpstreamErr(w, errw, err)
		return
	}
	defer body.Close()

	if wantStream {
		flusher, ok := w.(http.Flusher)
		if !ok {
			errw(w, apierr.Upstream("response writer does not support streaming"))
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		if err := streamFn(body, flusher.Flush); err != nil {
			log.Warn().Err(err).Msg("client stream write failed, releasing upstream response")
		}
		return
	}

	resp, err := stream.Aggregate(body, canonReq.Model)
	if err != nil {
		writeUpstreamErr(w, errw, err)
		return
	}
	aggFn(resp)
}

func writeUpstreamErr(w http.ResponseWriter, errw errRenderer, err error) {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		errw(w, ae)
		return
	}
	errw(w, apierr.Upstream(err.Error()))
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// driveDirect feeds every upstream part straight into feed, with no
// canonical-assembler intermediate, for the dialects (Responses, Cursor,
// Legacy) that consume upstream parts directly per spec.md §4.5.
func driveDirect(r io.Reader, feed func(stream.ResponsePart) error) error {
	reader := stream.NewEventReader(r)
	for {
		chunk, done, err := reader.Next()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		for _, cand := range chunk.Candidates {
			for _, part := range cand.Content.Parts {
				if err := feed(part); err != nil {
					return err
				}
			}
		}
	}
}

func (s *Server) handleAnthropic(w http.ResponseWriter, r *http.Request) {
	var wire anthropic.WireRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		apierr.WriteAnthropic(w, apierr.Invalid("invalid request body: "+err.Error()))
		return
	}
	canonReq := anthropic.ToCanonical(wire)
	s.serve(w, r, canonReq, wire.Stream, apierr.WriteAnthropic,
		func(body io.Reader, flush func()) error {
			emitter := stream.NewAnthropicEmitter(w, flush, canonReq.Model)
			return stream.Drive(body, emitter.EnsureStart, emitter.Render)
		},
		func(resp *canonical.Response) {
			respondJSON(w, http.StatusOK, anthropic.FromCanonical(resp))
		},
	)
}

func (s *Server) handleOpenAIChat(w http.ResponseWriter, r *http.Request) {
	var wire openaichat.WireRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		apierr.WriteOpenAI(w, apierr.Invalid("invalid request body: "+err.Error()))
		return
	}
	canonReq := openaichat.ToCanonical(wire, s.sigStore)
	s.serve(w, r, canonReq, wire.Stream, apierr.WriteOpenAI,
		func(body io.Reader, flush func()) error {
			emitter := stream.NewOpenAIChatEmitter(w, flush, canonReq.Model, s.sigStore)
			if err := emitter.RoleChunk(); err != nil {
				return err
			}
			return stream.Drive(body, nil, emitter.Render)
		},
		func(resp *canonical.Response) {
			respondJSON(w, http.StatusOK, openaichat.FromCanonical(resp))
		},
	)
}

func (s *Server) handleLegacy(w http.ResponseWriter, r *http.Request) {
	var wire legacy.WireRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		apierr.WriteOpenAI(w, apierr.Invalid("invalid request body: "+err.Error()))
		return
	}
	canonReq := legacy.ToCanonical(wire)
	s.serve(w, r, canonReq, wire.Stream, apierr.WriteOpenAI,
		func(body io.Reader, flush func()) error {
			emitter := stream.NewLegacyEmitter(w, flush, canonReq.Model)
			if err := driveDirect(body, emitter.Feed); err != nil {
				return err
			}
			return emitter.Finish()
		},
		func(resp *canonical.Response) {
			respondJSON(w, http.StatusOK, legacy.FromCanonical(resp))
		},
	)
}

func (s *Server) handleResponses(w http.ResponseWriter, r *http.Request) {
	var wire responses.WireRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		apierr.WriteOpenAI(w, apierr.Invalid("invalid request body: "+err.Error()))
		return
	}
	canonReq := responses.ToCanonical(wire)
	s.serve(w, r, canonReq, wire.Stream, apierr.WriteOpenAI,
		func(body io.Reader, flush func()) error {
			emitter := stream.NewResponsesEmitter(w, flush, canonReq.Model)
			if err := emitter.Created(); err != nil {
				return err
			}
			if err := driveDirect(body, emitter.Feed); err != nil {
				return err
			}
			return emitter.Finish()
		},
		func(resp *canonical.Response) {
			respondJSON(w, http.StatusOK, responses.FromCanonical(resp))
		},
	)
}

func (s *Server) handleCursor(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apierr.WriteOpenAI(w, apierr.Invalid("failed to read request body: "+err.Error()))
		return
	}
	canonReq, err := cursor.ToCanonical(r.Header, body, s.sigStore)
	if err != nil {
		apierr.WriteOpenAI(w, apierr.Invalid("invalid request body: "+err.Error()))
		return
	}
	var probe struct {
		Stream bool `json:"stream"`
	}
	_ = json.Unmarshal(body, &probe)

	s.serve(w, r, canonReq, probe.Stream, apierr.WriteOpenAI,
		func(reader io.Reader, flush func()) error {
			emitter := stream.NewCursorEmitter(w, flush, canonReq.Model)
			if err := driveDirect(reader, emitter.Feed); err != nil {
				return err
			}
			return emitter.Finish()
		},
		func(resp *canonical.Response) {
			respondJSON(w, http.StatusOK, openaichat.FromCanonical(resp))
		},
	)
}

func (s *Server) handleGeminiGenerate(w http.ResponseWriter, r *http.Request) {
	rest := r.PathValue("rest")
	model, action, ok := strings.Cut(rest, ":")
	if !ok {
		apierr.WriteGemini(w, apierr.Invalid("missing :action suffix"))
		return
	}
	var wire gemini.WireRequest
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		apierr.WriteGemini(w, apierr.Invalid("invalid request body: "+err.Error()))
		return
	}
	canonReq := gemini.ToCanonical(wire, model)
	wantStream := action == "streamGenerateContent"

	s.serve(w, r, canonReq, wantStream, apierr.WriteGemini,
		func(body io.Reader, flush func()) error {
			g := stream.NewGeminiPassthrough(w, flush, model)
			return g.Run(body)
		},
		func(resp *canonical.Response) {
			respondJSON(w, http.StatusOK, gemini.FromCanonical(resp))
		},
	)
}
