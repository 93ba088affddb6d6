package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointPoolAllAvailableInitially(t *testing.T) {
	p := NewEndpointPool()
	assert.Equal(t, BaseURLs, p.Candidates())
}

func TestEndpointPoolMarkUnavailableRemovesFromCandidates(t *testing.T) {
	p := NewEndpointPool()
	p.MarkUnavailable(BaseURLs[0])

	candidates := p.Candidates()
	assert.NotContains(t, candidates, BaseURLs[0])
	assert.Len(t, candidates, len(BaseURLs)-1)
}

func TestEndpointPoolFallsBackToFullListWhenAllCooling(t *testing.T) {
	p := NewEndpointPool()
	for _, u := range BaseURLs {
		p.MarkUnavailable(u)
	}
	assert.Equal(t, BaseURLs, p.Candidates())
}
