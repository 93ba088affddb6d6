package httpapi

import (
	"net/http"

	"github.com/loqwe/anyproxyai/internal/apierr"
)

// modelInfo is the static metadata entry for one supported model.
type modelInfo struct {
	ID              string `json:"id"`
	ContextWindow   int    `json:"context_window"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

// staticModels mirrors upstream.SupportedModels: the fixed, compiled-in set
// of model identifiers this proxy accepts as an exact-match identity hit.
var staticModels = []modelInfo{
	{ID: "claude-sonnet-4-5", ContextWindow: 128000, MaxOutputTokens: 8192},
	{ID: "claude-opus-4-5-thinking", ContextWindow: 128000, MaxOutputTokens: 8192},
	{ID: "gemini-2.5-flash", ContextWindow: 128000, MaxOutputTokens: 8192},
	{ID: "gemini-3-pro", ContextWindow: 128000, MaxOutputTokens: 8192},
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	data := make([]map[string]any, 0, len(staticModels))
	for _, m := range staticModels {
		data = append(data, map[string]any{
			"id": m.ID, "object": "model", "owned_by": "anyproxyai",
			"context_window": m.ContextWindow, "max_output_tokens": m.MaxOutputTokens,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"object": "list", "data": data})
}

func (s *Server) handleListModelsGemini(w http.ResponseWriter, r *http.Request) {
	models := make([]map[string]any, 0, len(staticModels))
	for _, m := range staticModels {
		models = append(models, map[string]any{
			"name": "models/" + m.ID, "inputTokenLimit": m.ContextWindow, "outputTokenLimit": m.MaxOutputTokens,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleGetModelGemini(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("model")
	for _, m := range staticModels {
		if m.ID == id {
			respondJSON(w, http.StatusOK, map[string]any{
				"name": "models/" + m.ID, "inputTokenLimit": m.ContextWindow, "outputTokenLimit": m.MaxOutputTokens,
			})
			return
		}
	}
	apierr.WriteGemini(w, apierr.New(apierr.InvalidRequest, http.StatusNotFound, "model not found: "+id))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
