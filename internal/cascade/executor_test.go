package cascade

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-engine/internal/health"
	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/provider"
	"github.com/sells-group/research-engine/internal/resilience"
)

// fakeProvider is a scriptable SearchProvider.
type fakeProvider struct {
	name    string
	tier    model.CostTier
	cost    float64
	results []model.SearchResult
	err     error
	calls   int
}

func (f *fakeProvider) Name() string           { return f.name }
func (f *fakeProvider) Tier() model.CostTier   { return f.tier }
func (f *fakeProvider) CostPerQuery() float64  { return f.cost }
func (f *fakeProvider) Timeout() time.Duration { return time.Second }

func (f *fakeProvider) Search(_ context.Context, _ model.SearchQuery) ([]model.SearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeCache is an in-memory ResultCache.
type fakeCache struct {
	entries map[string][]model.SearchResult
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]model.SearchResult)}
}

func (c *fakeCache) Get(_ context.Context, query string) ([]model.SearchResult, bool) {
	r, ok := c.entries[query]
	return r, ok
}

func (c *fakeCache) Put(_ context.Context, query string, results []model.SearchResult) {
	c.puts++
	c.entries[query] = results
}

func nResults(n int, prefix string) []model.SearchResult {
	out := make([]model.SearchResult, n)
	for i := range out {
		out[i] = model.SearchResult{URL: "https://" + prefix + ".example.com", Title: prefix}
	}
	return out
}

func newTestExecutor(providers ...provider.SearchProvider) (*Executor, *health.Tracker, *fakeCache) {
	tracker := health.NewTracker(health.DefaultConfig())
	cache := newFakeCache()
	return NewExecutor(providers, tracker, cache), tracker, cache
}

func TestExecute_CacheHitCostsNothing(t *testing.T) {
	t.Parallel()

	paid := &fakeProvider{name: "perplexity", tier: model.TierPremium, cost: 0.03, results: nResults(3, "p")}
	exec, _, cache := newTestExecutor(paid)
	cache.entries["acme corp"] = nResults(5, "cached")

	got := exec.Execute(context.Background(), model.SearchQuery{Text: "acme corp"}, 8, 0)

	assert.True(t, got.FromCache)
	assert.Zero(t, got.CostUSD)
	assert.Len(t, got.Results, 5)
	assert.Empty(t, got.ProvidersUsed)
	assert.Zero(t, paid.calls, "cache hit must not touch any provider")
}

func TestExecute_CheapestProviderFirst(t *testing.T) {
	t.Parallel()

	free := &fakeProvider{name: "google", tier: model.TierFree, results: nResults(8, "free")}
	paid := &fakeProvider{name: "perplexity", tier: model.TierPremium, cost: 0.03, results: nResults(8, "paid")}
	exec, _, _ := newTestExecutor(paid, free)

	got := exec.Execute(context.Background(), model.SearchQuery{Text: "acme"}, 8, 0)

	assert.Equal(t, []string{"google"}, got.ProvidersUsed)
	assert.Zero(t, got.CostUSD)
	assert.Zero(t, paid.calls, "premium provider untouched when free satisfies minResults")
}

func TestExecute_FallbackOnFailure(t *testing.T) {
	t.Parallel()

	free := &fakeProvider{name: "google", tier: model.TierFree, err: resilience.NewTransientError(assert.AnError, 503)}
	cheap := &fakeProvider{name: "jina", tier: model.TierCheap, cost: 0.005, results: nResults(8, "jina")}
	exec, _, _ := newTestExecutor(free, cheap)

	got := exec.Execute(context.Background(), model.SearchQuery{Text: "acme"}, 8, 0)

	assert.Equal(t, []string{"jina"}, got.ProvidersUsed)
	assert.InDelta(t, 0.005, got.CostUSD, 1e-9)
	assert.False(t, got.Exhausted)
	assert.Equal(t, 1, free.calls)
}

func TestExecute_AccumulatesUntilMinResults(t *testing.T) {
	t.Parallel()

	free := &fakeProvider{name: "google", tier: model.TierFree, results: nResults(3, "free")}
	cheap := &fakeProvider{name: "jina", tier: model.TierCheap, cost: 0.005, results: nResults(5, "jina")}
	premium := &fakeProvider{name: "perplexity", tier: model.TierPremium, cost: 0.03, results: nResults(5, "p")}
	exec, _, _ := newTestExecutor(free, cheap, premium)

	got := exec.Execute(context.Background(), model.SearchQuery{Text: "acme"}, 8, 0)

	assert.Equal(t, []string{"google", "jina"}, got.ProvidersUsed)
	assert.Len(t, got.Results, 8)
	assert.InDelta(t, 0.005, got.CostUSD, 1e-9)
	assert.Zero(t, premium.calls)
}

func TestExecute_SkipsOpenCircuit(t *testing.T) {
	t.Parallel()

	free := &fakeProvider{name: "google", tier: model.TierFree, results: nResults(8, "free")}
	cheap := &fakeProvider{name: "jina", tier: model.TierCheap, cost: 0.005, results: nResults(8, "jina")}
	exec, tracker, _ := newTestExecutor(free, cheap)

	tracker.RecordFailure("google", health.FailureRateLimit)

	got := exec.Execute(context.Background(), model.SearchQuery{Text: "acme"}, 8, 0)

	assert.Equal(t, []string{"jina"}, got.ProvidersUsed)
	assert.Zero(t, free.calls)
}

func TestExecute_RateLimitOpensCircuit(t *testing.T) {
	t.Parallel()

	free := &fakeProvider{name: "google", tier: model.TierFree, err: resilience.NewRateLimitError(assert.AnError)}
	cheap := &fakeProvider{name: "jina", tier: model.TierCheap, cost: 0.005, results: nResults(8, "jina")}
	exec, tracker, _ := newTestExecutor(free, cheap)

	_ = exec.Execute(context.Background(), model.SearchQuery{Text: "acme"}, 8, 0)

	assert.Equal(t, health.CircuitOpen, tracker.State("google"),
		"one rate-limit failure opens the circuit immediately")
}

func TestExecute_MaxProvidersCap(t *testing.T) {
	t.Parallel()

	a := &fakeProvider{name: "google", tier: model.TierFree, err: resilience.NewTransientError(assert.AnError, 500)}
	b := &fakeProvider{name: "jina", tier: model.TierCheap, err: resilience.NewTransientError(assert.AnError, 500)}
	c := &fakeProvider{name: "firecrawl", tier: model.TierStandard, results: nResults(8, "fc")}
	exec, _, _ := newTestExecutor(a, b, c)

	got := exec.Execute(context.Background(), model.SearchQuery{Text: "acme"}, 8, 2)

	assert.True(t, got.Exhausted, "cap reached before any provider responded")
	assert.Zero(t, c.calls)
}

func TestExecute_Exhausted(t *testing.T) {
	t.Parallel()

	a := &fakeProvider{name: "google", tier: model.TierFree, err: resilience.NewTransientError(assert.AnError, 502)}
	b := &fakeProvider{name: "jina", tier: model.TierCheap, err: resilience.NewTransientError(assert.AnError, 503)}
	exec, _, cache := newTestExecutor(a, b)

	got := exec.Execute(context.Background(), model.SearchQuery{Text: "acme"}, 8, 0)

	assert.True(t, got.Exhausted)
	assert.Empty(t, got.Results)
	assert.Zero(t, got.CostUSD)
	assert.Zero(t, cache.puts, "nothing cached on a fully failed cascade")
}

func TestExecute_EmptySuccessIsNotExhausted(t *testing.T) {
	t.Parallel()

	free := &fakeProvider{name: "google", tier: model.TierFree, results: nil}
	exec, _, cache := newTestExecutor(free)

	got := exec.Execute(context.Background(), model.SearchQuery{Text: "obscure llc"}, 8, 0)

	assert.False(t, got.Exhausted, "a provider answering with zero results is a valid outcome")
	assert.Equal(t, []string{"google"}, got.ProvidersUsed)
	assert.Zero(t, cache.puts, "empty result sets are not cached")
}

func TestExecute_PopulatesCache(t *testing.T) {
	t.Parallel()

	free := &fakeProvider{name: "google", tier: model.TierFree, results: nResults(8, "free")}
	exec, _, cache := newTestExecutor(free)

	_ = exec.Execute(context.Background(), model.SearchQuery{Text: "acme"}, 8, 0)

	cached, ok := cache.Get(context.Background(), "acme")
	require.True(t, ok)
	assert.Len(t, cached, 8)
}

func TestExecute_CanceledContext(t *testing.T) {
	t.Parallel()

	free := &fakeProvider{name: "google", tier: model.TierFree, results: nResults(8, "free")}
	exec, _, _ := newTestExecutor(free)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := exec.Execute(ctx, model.SearchQuery{Text: "acme"}, 8, 0)

	assert.True(t, got.Exhausted)
	assert.Zero(t, free.calls)
}

func TestExecute_CostAccounting(t *testing.T) {
	t.Parallel()

	a := &fakeProvider{name: "jina", tier: model.TierCheap, cost: 0.005, results: nResults(2, "a")}
	b := &fakeProvider{name: "firecrawl", tier: model.TierStandard, cost: 0.01, results: nResults(2, "b")}
	c := &fakeProvider{name: "perplexity", tier: model.TierPremium, cost: 0.03, results: nResults(2, "c")}
	exec, _, _ := newTestExecutor(a, b, c)

	got := exec.Execute(context.Background(), model.SearchQuery{Text: "acme"}, 6, 0)

	assert.InDelta(t, 0.045, got.CostUSD, 1e-9, "every successful paid call is charged")
	assert.Equal(t, []model.CostTier{model.TierCheap, model.TierStandard, model.TierPremium}, got.TiersUsed,
		"tiers are reported in call order for per-tier ledger charging")
	assert.Len(t, got.Results, 6)
}

func TestProviderTiers(t *testing.T) {
	t.Parallel()

	exec, _, _ := newTestExecutor(
		&fakeProvider{name: "google", tier: model.TierFree},
		&fakeProvider{name: "perplexity", tier: model.TierPremium},
	)

	assert.Equal(t, []model.CostTier{model.TierFree, model.TierPremium}, exec.ProviderTiers())
}
