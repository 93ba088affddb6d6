package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqwe/anyproxyai/internal/config"
	"github.com/loqwe/anyproxyai/internal/thinking"
	"github.com/loqwe/anyproxyai/internal/upstream"
)

func newTestServer(apiKey string) *Server {
	limiter := upstream.NewRateLimiter(10, time.Minute, 0)
	client := upstream.NewClient("refresh-token", "project-id", limiter)
	cfg := config.Config{APIKey: apiKey}
	return NewServer(cfg, client, thinking.NewStore())
}

func TestHealthEndpointOKWithoutAuthWhenKeyUnset(t *testing.T) {
	srv := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGateRejectsMissingKey(t *testing.T) {
	srv := newTestServer("secret")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication_error")
}

func TestAuthGateAcceptsBearerHeader(t *testing.T) {
	srv := newTestServer("secret")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGateAcceptsXAPIKeyHeader(t *testing.T) {
	srv := newTestServer("secret")
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("x-api-key", "secret")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthGateAcceptsGoogleAPIKeyHeader(t *testing.T) {
	srv := newTestServer("secret")
	req := httptest.NewRequest(http.MethodGet, "/v1beta/models", nil)
	req.Header.Set("x-goog-api-key", "secret")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetModelGeminiNotFound(t *testing.T) {
	srv := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/v1beta/models/does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetModelGeminiFound(t *testing.T) {
	srv := newTestServer("")
	req := httptest.NewRequest(http.MethodGet, "/v1beta/models/claude-sonnet-4-5", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
