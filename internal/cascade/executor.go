// Package cascade executes a single search query against the provider chain,
// cheapest available provider first, falling back on failure.
package cascade

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/research-engine/internal/health"
	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/provider"
	"github.com/sells-group/research-engine/internal/resilience"
)

// ResultCache is the best-effort cache the executor consults before touching
// any provider.
type ResultCache interface {
	Get(ctx context.Context, query string) ([]model.SearchResult, bool)
	Put(ctx context.Context, query string, results []model.SearchResult)
}

// Result is the outcome of one cascade execution.
type Result struct {
	Results       []model.SearchResult
	ProvidersUsed []string
	// TiersUsed holds the cost tier of each successful provider call, in
	// call order, so the caller's ledger can charge per tier.
	TiersUsed []model.CostTier
	CostUSD   float64
	FromCache bool
	// Exhausted is set when every attempted provider failed and no results
	// were accumulated. Zero results is a valid, degraded outcome, not an
	// error.
	Exhausted bool
}

// Executor runs queries through the provider fallback chain.
type Executor struct {
	providers []provider.SearchProvider
	tracker   *health.Tracker
	cache     ResultCache
}

// NewExecutor creates a cascade executor over the given providers.
func NewExecutor(providers []provider.SearchProvider, tracker *health.Tracker, cache ResultCache) *Executor {
	return &Executor{
		providers: providers,
		tracker:   tracker,
		cache:     cache,
	}
}

// ProviderTiers returns the cost tiers of the configured providers.
func (e *Executor) ProviderTiers() []model.CostTier {
	tiers := make([]model.CostTier, 0, len(e.providers))
	for _, p := range e.providers {
		tiers = append(tiers, p.Tier())
	}
	return tiers
}

// Execute runs the query through the cascade. It never returns an error for
// provider failures; a fully failed cascade yields an empty Result with
// Exhausted set.
//
// Cost policy lives entirely in the health tracker's ordering: free providers
// are tried before paid ones because they sort first, not because the
// executor special-cases them.
func (e *Executor) Execute(ctx context.Context, query model.SearchQuery, minResults, maxProviders int) Result {
	if cached, ok := e.cache.Get(ctx, query.Text); ok {
		zap.L().Debug("cascade: cache hit",
			zap.String("query", query.Text),
			zap.Int("results", len(cached)),
		)
		return Result{Results: cached, FromCache: true}
	}

	ordered := health.OrderedByPreference(e.tracker, e.providers)

	var out Result
	attempted := 0
	for _, p := range ordered {
		if ctx.Err() != nil {
			break
		}
		if maxProviders > 0 && attempted >= maxProviders {
			break
		}
		if !e.tracker.Acquire(p.Name()) {
			continue
		}
		attempted++

		callCtx, cancel := context.WithTimeout(ctx, p.Timeout())
		results, err := p.Search(callCtx, query)
		cancel()

		if err != nil {
			kind := health.FailureTransient
			if resilience.IsRateLimited(err) {
				kind = health.FailureRateLimit
			}
			e.tracker.RecordFailure(p.Name(), kind)
			zap.L().Warn("cascade: provider failed",
				zap.String("provider", p.Name()),
				zap.String("query", query.Text),
				zap.Error(err),
			)
			continue
		}

		e.tracker.RecordSuccess(p.Name())
		out.Results = append(out.Results, results...)
		out.ProvidersUsed = append(out.ProvidersUsed, p.Name())
		out.TiersUsed = append(out.TiersUsed, p.Tier())
		out.CostUSD += p.CostPerQuery()

		if len(out.Results) >= minResults {
			break
		}
	}

	if len(out.Results) > 0 {
		e.cache.Put(ctx, query.Text, out.Results)
	}
	// Exhausted means no provider produced a response at all; a provider
	// succeeding with zero results is a valid empty outcome.
	out.Exhausted = len(out.ProvidersUsed) == 0

	zap.L().Debug("cascade: executed",
		zap.String("query", query.Text),
		zap.Int("results", len(out.Results)),
		zap.Strings("providers", out.ProvidersUsed),
		zap.Float64("cost_usd", out.CostUSD),
	)
	return out
}
