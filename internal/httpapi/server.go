// Package httpapi implements the router and auth gate (C8): it maps every
// client-facing path to its dialect handler and enforces the single static
// API key across the three header conventions client SDKs actually send.
package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/loqwe/anyproxyai/internal/apierr"
	"github.com/loqwe/anyproxyai/internal/config"
	"github.com/loqwe/anyproxyai/internal/observability"
	"github.com/loqwe/anyproxyai/internal/thinking"
	"github.com/loqwe/anyproxyai/internal/upstream"
)

// Server is the HTTP entry point: a plain net/http.ServeMux routing table
// wrapping the six dialect handlers plus the static metadata endpoints.
type Server struct {
	mux            *http.ServeMux
	client         *upstream.Client
	sigStore       *thinking.Store
	apiKey         string
	thinkBudget    int
	enableThinking bool
}

// NewServer wires a Server against the upstream client and the process-wide
// thinking-signature store.
func NewServer(cfg config.Config, client *upstream.Client, sigStore *thinking.Store) *Server {
	s := &Server{
		mux:            http.NewServeMux(),
		client:         client,
		sigStore:       sigStore,
		apiKey:         cfg.APIKey,
		thinkBudget:    cfg.ThinkingBudget,
		enableThinking: cfg.EnableThinking,
	}
	s.registerRoutes()
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// errRenderer writes an *apierr.Error in one dialect's error shape.
type errRenderer func(http.ResponseWriter, *apierr.Error)

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /v1/messages", s.gate("anthropic", s.handleAnthropic, apierr.WriteAnthropic))
	s.mux.HandleFunc("POST /v1/chat/completions", s.gate("openai-chat", s.handleOpenAIChat, apierr.WriteOpenAI))
	s.mux.HandleFunc("POST /v1/completions", s.gate("legacy", s.handleLegacy, apierr.WriteOpenAI))
	// Per the router table, /v1/responses is aliased straight to the
	// OpenAI-Chat handler; only /cursor2/v1/responses exercises the actual
	// Responses-API adapter.
	s.mux.HandleFunc("POST /v1/responses", s.gate("openai-chat", s.handleOpenAIChat, apierr.WriteOpenAI))
	s.mux.HandleFunc("POST /cursor/v1/chat/completions", s.gate("cursor", s.handleCursor, apierr.WriteOpenAI))
	s.mux.HandleFunc("POST /cursor2/v1/responses", s.gate("responses", s.handleResponses, apierr.WriteOpenAI))
	s.mux.HandleFunc("POST /v1beta/models/{rest...}", s.gate("gemini", s.handleGeminiGenerate, apierr.WriteGemini))

	s.mux.HandleFunc("GET /v1/models", s.gate("meta", s.handleListModels, apierr.WriteOpenAI))
	s.mux.HandleFunc("GET /v1beta/models", s.gate("meta", s.handleListModelsGemini, apierr.WriteGemini))
	s.mux.HandleFunc("GET /v1beta/models/{model}", s.gate("meta", s.handleGetModelGemini, apierr.WriteGemini))
	s.mux.HandleFunc("GET /health", s.gate("meta", s.handleHealth, apierr.WriteOpenAI))
}

// gate wraps next with the three-header auth check, writing a 401 in errw's
// shape on mismatch, and logs one structured start/end line per request.
func (s *Server) gate(dialect string, next http.HandlerFunc, errw errRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		if !s.authorized(r) {
			errw(rec, apierr.Auth("invalid or missing API key"))
			observability.RequestLog{
				Method: r.Method, Path: r.URL.Path, Dialect: dialect,
				Status: rec.status, Duration: time.Since(start), Rejected: true,
			}.Emit()
			return
		}
		next(rec, r)
		observability.RequestLog{
			Method: r.Method, Path: r.URL.Path, Dialect: dialect,
			Status: rec.status, Duration: time.Since(start),
		}.Emit()
	}
}

// statusRecorder captures the status code a handler wrote, for logging.
// Streaming handlers call WriteHeader once before the SSE body; aggregated
// ones call it once via respondJSON — either way the first call wins, same
// as the real http.ResponseWriter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// authorized checks the configured static key against any of the three
// header conventions. An empty configured key disables the gate entirely
// (local/dev use).
func (s *Server) authorized(r *http.Request) bool {
	if s.apiKey == "" {
		return true
	}
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && bearer == s.apiKey {
		return true
	}
	if r.Header.Get("x-api-key") == s.apiKey {
		return true
	}
	if r.Header.Get("x-goog-api-key") == s.apiKey {
		return true
	}
	return false
}
