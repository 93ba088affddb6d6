package upstream

import (
	"sync"
	"time"
)

// BaseURLs is the fixed ordered list of three base URLs, in order of
// preference: sandbox, daily, prod.
var BaseURLs = []string{
	"https://cloudcode-pa-sandbox.googleapis.com",
	"https://daily-cloudcode-pa.googleapis.com",
	"https://cloudcode-pa.googleapis.com",
}

const cooldownDuration = 5 * time.Minute

// EndpointPool tracks a per-URL "unavailable until" instant.
type EndpointPool struct {
	mu       sync.Mutex
	cooldown map[string]time.Time
}

// NewEndpointPool constructs a pool over the fixed base URL list.
func NewEndpointPool() *EndpointPool {
	return &EndpointPool{cooldown: make(map[string]time.Time)}
}

// Candidates returns the base URLs in try order: those whose cooldown has
// passed first, falling back to the full list if all are cooling.
func (p *EndpointPool) Candidates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	available := make([]string, 0, len(BaseURLs))
	for _, u := range BaseURLs {
		if until, ok := p.cooldown[u]; !ok || now.After(until) {
			available = append(available, u)
		}
	}
	if len(available) == 0 {
		return append([]string(nil), BaseURLs...)
	}
	return available
}

// MarkUnavailable sets url's cooldown to now + 5 minutes.
func (p *EndpointPool) MarkUnavailable(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cooldown[url] = time.Now().Add(cooldownDuration)
}
