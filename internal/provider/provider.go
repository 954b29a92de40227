// Package provider defines the search provider interface and the adapters
// that bind external search APIs to it.
package provider

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/resilience"
)

// SearchProvider is a single external search backend.
type SearchProvider interface {
	// Name returns the provider identifier used for health tracking and
	// result attribution.
	Name() string
	// Tier returns the provider's cost tier.
	Tier() model.CostTier
	// CostPerQuery returns the flat USD cost of one search call.
	CostPerQuery() float64
	// Timeout returns the per-call deadline the cascade applies.
	Timeout() time.Duration
	// Search executes the query and returns raw results. Errors are
	// classified: rate-limit errors satisfy resilience.IsRateLimited,
	// retryable upstream failures satisfy resilience.IsTransient.
	Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error)
}

// Registry manages the configured search providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]SearchProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]SearchProvider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p SearchProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) SearchProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// All returns every registered provider.
func (r *Registry) All() []SearchProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SearchProvider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// classifyStatus converts an upstream HTTP status into the engine's error
// taxonomy: 429 becomes a rate-limit error, retryable server failures become
// transient errors, anything else passes through unchanged.
func classifyStatus(code int, err error) error {
	switch {
	case code == http.StatusTooManyRequests:
		return resilience.NewRateLimitError(err)
	case resilience.IsTransientHTTPStatus(code):
		return resilience.NewTransientError(err, code)
	default:
		return err
	}
}

// rankScore assigns a position-decayed raw relevance score to the i-th
// result a provider returned. First result 1.0, decaying 0.05 per position,
// floored at 0.1.
func rankScore(i int) float64 {
	s := 1.0 - 0.05*float64(i)
	if s < 0.1 {
		return 0.1
	}
	return s
}
