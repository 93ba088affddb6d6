package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/loqwe/anyproxyai/internal/apierr"
)

const requestTimeout = 120 * time.Second

// Client is the upstream client (C7): OAuth2 token refresh, rotating
// endpoint pool, rate limiter, and SSE line iteration against the private
// v1internal protocol.
type Client struct {
	http     *http.Client
	tokens   *TokenCache
	pool     *EndpointPool
	limiter  *RateLimiter
	bootOnce singleflight.Group

	mu        sync.Mutex
	projectID string
}

// NewClient wires the upstream client's shared HTTP transport with
// tracing (otelhttp) and the ambient stack's components.
func NewClient(refreshToken, projectID string, limiter *RateLimiter) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport)
	return &Client{
		http:      &http.Client{Transport: transport, Timeout: requestTimeout},
		tokens:    NewTokenCache(refreshToken),
		pool:      NewEndpointPool(),
		limiter:   limiter,
		projectID: projectID,
	}
}

// projectOrBootstrap returns the configured project id, lazily bootstrapping
// it via loadCodeAssist on first use if none was configured.
func (c *Client) projectOrBootstrap(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.projectID != "" {
		p := c.projectID
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	v, err, _ := c.bootOnce.Do("bootstrap", func() (any, error) {
		return c.loadCodeAssist(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) loadCodeAssist(ctx context.Context) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	body := []byte(`{"metadata":{"ideType":"ANTIGRAVITY"}}`)

	var lastErr error
	for _, base := range c.pool.Candidates() {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1internal:loadCodeAssist", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.http.Do(req)
		if err != nil {
			c.pool.MarkUnavailable(base)
			lastErr = err
			continue
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 400 {
			c.pool.MarkUnavailable(base)
			lastErr = fmt.Errorf("loadCodeAssist: upstream status %d", resp.StatusCode)
			continue
		}

		var parsed struct {
			CloudaicompanionProject string `json:"cloudaicompanionProject"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			lastErr = err
			continue
		}

		c.mu.Lock()
		c.projectID = parsed.CloudaicompanionProject
		c.mu.Unlock()
		return parsed.CloudaicompanionProject, nil
	}
	if lastErr == nil {
		lastErr = errors.New("loadCodeAssist: no endpoints available")
	}
	return "", lastErr
}

// Stream dispatches envelope upstream and returns the live response body
// for SSE consumption by the caller. The caller must Close() the returned
// body. Always requests alt=sse, even for clients that asked for a
// non-streaming reply (spec.md §4.7's "always stream").
func (c *Client) Stream(ctx context.Context, envelope Envelope) (io.ReadCloser, error) {
	project, err := c.projectOrBootstrap(ctx)
	if err != nil {
		return nil, apierr.Upstream("oauth/project bootstrap failed: " + err.Error())
	}
	envelope.Project = project

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, apierr.Invalid("failed to encode upstream request: " + err.Error())
	}

	var lastErr error
	for _, base := range c.pool.Candidates() {
		c.limiter.Acquire()

		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, apierr.Upstream("oauth refresh failed: " + err.Error())
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			base+"/v1internal:streamGenerateContent?alt=sse", bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("User-Agent", "antigravity/1.104.0 darwin/arm64")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.http.Do(req)
		if err != nil {
			log.Warn().Err(err).Str("base", base).Msg("upstream request failed, trying next endpoint")
			c.pool.MarkUnavailable(base)
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			log.Warn().Str("base", base).Msg("upstream returned 429, cooling down and retrying")
			c.pool.MarkUnavailable(base)
			lastErr = fmt.Errorf("upstream 429: %s", truncate(string(body)))
			time.Sleep(5 * time.Second)
			continue
		}
		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, apierr.New(apierr.APIError, resp.StatusCode, "upstream error: "+truncate(string(body)))
		}

		return resp.Body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no upstream endpoints available")
	}
	return nil, apierr.Upstream(lastErr.Error())
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 500 {
		return s[:500]
	}
	return s
}
