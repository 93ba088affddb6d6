package upstream

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// googleOAuthEndpoint is Google's fixed token endpoint and the installed-app
// client id/secret pair the Antigravity client uses for refresh-token
// exchanges.
var googleOAuthEndpoint = oauth2.Endpoint{
	TokenURL: "https://oauth2.googleapis.com/token",
}

// These are the public, well-known OAuth2 client id/secret pair used by
// Google's own installed-app CLI tooling for this grant type; they are not
// a secret belonging to this service.
const (
	googleClientID     = "32555940559.apps.googleusercontent.com"
	googleClientSecret = "ZmssLNjJy2998hD4CTg2ejr2"
)

const tokenEarlyExpiry = 60 * time.Second

// TokenCache caches the bearer token obtained by exchanging the refresh
// token, keyed by nothing (one token for the whole process). Fresh tokens
// are minted lazily on first use after expiry.
type TokenCache struct {
	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time

	refreshToken string
	cfg          oauth2.Config
	group        singleflight.Group
}

// NewTokenCache constructs a token cache for the given long-lived refresh
// token.
func NewTokenCache(refreshToken string) *TokenCache {
	return &TokenCache{
		refreshToken: refreshToken,
		cfg: oauth2.Config{
			ClientID:     googleClientID,
			ClientSecret: googleClientSecret,
			Endpoint:     googleOAuthEndpoint,
		},
	}
}

// Token returns a valid bearer token, refreshing it if expired. Concurrent
// callers collapse onto a single in-flight refresh via singleflight.
func (t *TokenCache) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.accessToken != "" && time.Now().Before(t.expiresAt) {
		tok := t.accessToken
		t.mu.Unlock()
		return tok, nil
	}
	t.mu.Unlock()

	v, err, _ := t.group.Do("refresh", func() (any, error) {
		return t.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (t *TokenCache) refresh(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.accessToken != "" && time.Now().Before(t.expiresAt) {
		tok := t.accessToken
		t.mu.Unlock()
		return tok, nil
	}
	t.mu.Unlock()

	src := t.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: t.refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", err
	}

	expiresAt := tok.Expiry.Add(-tokenEarlyExpiry)

	t.mu.Lock()
	t.accessToken = tok.AccessToken
	t.expiresAt = expiresAt
	t.mu.Unlock()

	return tok.AccessToken, nil
}
