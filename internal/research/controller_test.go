package research

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-engine/internal/cascade"
	"github.com/sells-group/research-engine/internal/cost"
	"github.com/sells-group/research-engine/internal/coverage"
	"github.com/sells-group/research-engine/internal/gate"
	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/schema"
	"github.com/sells-group/research-engine/internal/scorer"
)

// fakeSearcher returns a fixed cascade result for every query.
type fakeSearcher struct {
	mu        sync.Mutex
	results   []model.SearchResult
	tiersUsed []model.CostTier
	exhausted bool
	tiers     []model.CostTier
	calls     int
}

func (f *fakeSearcher) Execute(_ context.Context, _ model.SearchQuery, _, _ int) cascade.Result {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return cascade.Result{Results: f.results, TiersUsed: f.tiersUsed, Exhausted: f.exhausted}
}

func (f *fakeSearcher) ProviderTiers() []model.CostTier { return f.tiers }

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeGenerator yields scripted queries.
type fakeGenerator struct {
	initial    []model.SearchQuery
	initialErr error
	gaps       []model.SearchQuery
	gapCalls   int
}

func (f *fakeGenerator) Initial(_ context.Context, _ model.Company) ([]model.SearchQuery, error) {
	return f.initial, f.initialErr
}

func (f *fakeGenerator) ForGaps(_ context.Context, _ model.Company, _ []model.Gap, _ int) ([]model.SearchQuery, error) {
	f.gapCalls++
	return f.gaps, nil
}

// fakeExtractor yields scripted facts.
type fakeExtractor struct {
	facts   []model.ExtractedFact
	costUSD float64
	err     error
	calls   int
}

func (f *fakeExtractor) Extract(_ context.Context, _ model.Company, _ []model.SourceRecord) ([]model.ExtractedFact, float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.costUSD, f.err
	}
	return f.facts, f.costUSD, nil
}

func singleFieldSchema() schema.Schema {
	return schema.Schema{Fields: []schema.Field{
		{Name: "legal_name", Category: model.CategoryCorporate},
	}}
}

func newTestController(t *testing.T, searcher Searcher, gen *fakeGenerator, ext *fakeExtractor, opts Options) *Controller {
	t.Helper()

	g, err := gate.New(gate.DefaultCategoryWeights(), gate.DefaultQualityThreshold)
	require.NoError(t, err)

	c, err := NewController(
		searcher,
		scorer.NewConsolidator(),
		coverage.NewChecker(singleFieldSchema()),
		g,
		gen,
		ext,
		cost.NewLedger(cost.DefaultRates()),
		nil,
		opts,
	)
	require.NoError(t, err)
	return c
}

func TestRun_StopsWhenQualityMet(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		results: []model.SearchResult{{URL: "https://sec.gov/filing", Title: "10-K", Score: 1.0}},
		tiers:   []model.CostTier{model.TierFree},
	}
	gen := &fakeGenerator{initial: []model.SearchQuery{{Text: "acme corp"}}}
	ext := &fakeExtractor{facts: []model.ExtractedFact{
		{Field: "legal_name", Value: "Acme Corporation", SourceURLs: []string{"https://sec.gov/filing"}},
	}}

	c := newTestController(t, searcher, gen, ext, DefaultOptions())
	final, err := c.Run(context.Background(), model.Company{Name: "Acme Corp"})

	require.NoError(t, err)
	assert.Equal(t, model.DecisionStopQualityMet, final.Decision)
	assert.Equal(t, 1, final.Iterations)
	assert.Zero(t, gen.gapCalls, "no gap queries after a terminal decision")
	require.Len(t, final.Facts, 1)
	assert.InDelta(t, 100.0, final.Report.Composite, 1e-9)
}

func TestRun_StopsAtIterationCap(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		results: []model.SearchResult{{URL: "https://random-blog.net/post", Score: 0.5}},
		tiers:   []model.CostTier{model.TierFree},
	}
	gen := &fakeGenerator{
		initial: []model.SearchQuery{{Text: "acme corp"}},
		gaps:    []model.SearchQuery{{Text: "acme corp legal name"}},
	}
	ext := &fakeExtractor{} // never covers the required field

	opts := DefaultOptions()
	opts.MaxIterations = 2
	c := newTestController(t, searcher, gen, ext, opts)

	final, err := c.Run(context.Background(), model.Company{Name: "Acme Corp"})

	require.NoError(t, err)
	assert.Equal(t, model.DecisionStopIterationCap, final.Decision)
	assert.Equal(t, 2, final.Iterations)
	assert.Equal(t, 1, gen.gapCalls)
	assert.Len(t, final.Report.Gaps, 1)
}

func TestRun_StopsAtCostCap(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		results: []model.SearchResult{{URL: "https://random-blog.net/post", Score: 0.5}},
		tiers:   []model.CostTier{model.TierPremium},
	}
	gen := &fakeGenerator{initial: []model.SearchQuery{{Text: "acme corp"}}}
	ext := &fakeExtractor{}

	opts := DefaultOptions()
	opts.BudgetUSD = 0.01 // one premium gap query projects at 0.03
	c := newTestController(t, searcher, gen, ext, opts)

	final, err := c.Run(context.Background(), model.Company{Name: "Acme Corp"})

	require.NoError(t, err)
	assert.Equal(t, model.DecisionStopCostCap, final.Decision)
	assert.Equal(t, 1, final.Iterations)
}

func TestRun_BudgetGuardSkipsDispatch(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{tiers: []model.CostTier{model.TierFree}}
	gen := &fakeGenerator{
		initial: []model.SearchQuery{{Text: "acme corp"}},
		gaps:    []model.SearchQuery{{Text: "acme corp legal name"}},
	}
	ext := &fakeExtractor{}

	opts := DefaultOptions()
	opts.BudgetUSD = 0
	opts.MaxIterations = 2
	c := newTestController(t, searcher, gen, ext, opts)

	final, err := c.Run(context.Background(), model.Company{Name: "Acme Corp"})

	require.NoError(t, err)
	assert.Zero(t, searcher.callCount(), "zero budget dispatches nothing")
	assert.Equal(t, model.DecisionStopIterationCap, final.Decision)
	assert.Zero(t, final.TotalCostUSD)
}

func TestRun_ExtractionFailureKeepsPreviousFacts(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		results: []model.SearchResult{{URL: "https://random-blog.net/post", Score: 0.5}},
		tiers:   []model.CostTier{model.TierFree},
	}
	gen := &fakeGenerator{
		initial: []model.SearchQuery{{Text: "acme corp"}},
		gaps:    []model.SearchQuery{{Text: "acme corp legal name"}},
	}
	ext := &fakeExtractor{err: assert.AnError, costUSD: 0.02}

	opts := DefaultOptions()
	opts.MaxIterations = 2
	c := newTestController(t, searcher, gen, ext, opts)

	final, err := c.Run(context.Background(), model.Company{Name: "Acme Corp"})

	require.NoError(t, err, "extraction failure degrades, never aborts")
	assert.Equal(t, model.DecisionStopIterationCap, final.Decision)
	assert.Empty(t, final.Facts)
	assert.InDelta(t, 0.04, final.TotalCostUSD, 1e-9, "extraction spend is charged even on failure")
}

func TestRun_SearchCostIsAccumulated(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		results:   []model.SearchResult{{URL: "https://sec.gov/filing", Score: 1.0}},
		tiersUsed: []model.CostTier{model.TierStandard},
		tiers:     []model.CostTier{model.TierStandard},
	}
	gen := &fakeGenerator{initial: []model.SearchQuery{{Text: "a"}, {Text: "b"}, {Text: "c"}}}
	ext := &fakeExtractor{facts: []model.ExtractedFact{
		{Field: "legal_name", Value: "Acme", SourceURLs: []string{"https://sec.gov/filing"}},
	}, costUSD: 0.05}

	c := newTestController(t, searcher, gen, ext, DefaultOptions())
	final, err := c.Run(context.Background(), model.Company{Name: "Acme Corp"})

	require.NoError(t, err)
	assert.Equal(t, 3, searcher.callCount())
	// Three standard-tier queries at 0.01 plus 0.05 extraction.
	assert.InDelta(t, 0.08, final.TotalCostUSD, 1e-9)
	assert.InDelta(t, 0.03, final.CostByTier[model.TierStandard], 1e-9)
	assert.Equal(t, 3, final.SearchQueries)
}

func TestRun_ProviderExhaustionStillCompletes(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{exhausted: true, tiers: []model.CostTier{model.TierFree}}
	gen := &fakeGenerator{initial: []model.SearchQuery{{Text: "acme corp"}}}
	ext := &fakeExtractor{}

	opts := DefaultOptions()
	opts.MaxIterations = 1
	c := newTestController(t, searcher, gen, ext, opts)

	final, err := c.Run(context.Background(), model.Company{Name: "Acme Corp"})

	require.NoError(t, err, "an exhausted cascade degrades, never aborts")
	assert.Equal(t, model.DecisionStopIterationCap, final.Decision)
	assert.Empty(t, final.Sources)
	assert.Zero(t, final.Report.Composite)
	assert.Zero(t, final.TotalCostUSD)
	assert.Equal(t, 1, final.Iterations)
}

func TestRun_RequiresCompanyName(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{tiers: []model.CostTier{model.TierFree}}
	c := newTestController(t, searcher, &fakeGenerator{}, &fakeExtractor{}, DefaultOptions())

	_, err := c.Run(context.Background(), model.Company{Name: "   "})
	assert.Error(t, err)
}

func TestRun_NormalizesCompany(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{
		results: []model.SearchResult{{URL: "https://sec.gov/filing", Title: "10-K", Score: 1.0}},
		tiers:   []model.CostTier{model.TierFree},
	}
	gen := &fakeGenerator{initial: []model.SearchQuery{{Text: "acme corp"}}}
	ext := &fakeExtractor{facts: []model.ExtractedFact{
		{Field: "legal_name", Value: "Acme Corporation", SourceURLs: []string{"https://sec.gov/filing"}},
	}}

	c := newTestController(t, searcher, gen, ext, DefaultOptions())
	final, err := c.Run(context.Background(), model.Company{
		Name:   "  Acme Corp  ",
		Domain: "https://acme.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", final.Company.Name)
	assert.Equal(t, "acme.com", final.Company.Domain, "scheme is stripped before query generation")
}

func TestRun_InitialGenerationFailure(t *testing.T) {
	t.Parallel()

	searcher := &fakeSearcher{tiers: []model.CostTier{model.TierFree}}
	gen := &fakeGenerator{initialErr: assert.AnError}
	c := newTestController(t, searcher, gen, &fakeExtractor{}, DefaultOptions())

	_, err := c.Run(context.Background(), model.Company{Name: "Acme Corp"})
	assert.Error(t, err)
}

func TestNewController_Validation(t *testing.T) {
	t.Parallel()

	g, err := gate.New(gate.DefaultCategoryWeights(), gate.DefaultQualityThreshold)
	require.NoError(t, err)
	checker := coverage.NewChecker(singleFieldSchema())
	ledger := cost.NewLedger(cost.DefaultRates())
	searcher := &fakeSearcher{tiers: []model.CostTier{model.TierFree}}

	t.Run("nil searcher", func(t *testing.T) {
		t.Parallel()
		_, err := NewController(nil, scorer.NewConsolidator(), checker, g,
			&fakeGenerator{}, &fakeExtractor{}, ledger, nil, DefaultOptions())
		assert.Error(t, err)
	})

	t.Run("no providers", func(t *testing.T) {
		t.Parallel()
		_, err := NewController(&fakeSearcher{}, scorer.NewConsolidator(), checker, g,
			&fakeGenerator{}, &fakeExtractor{}, ledger, nil, DefaultOptions())
		assert.Error(t, err)
	})

	t.Run("nil extractor", func(t *testing.T) {
		t.Parallel()
		_, err := NewController(searcher, scorer.NewConsolidator(), checker, g,
			&fakeGenerator{}, nil, ledger, nil, DefaultOptions())
		assert.Error(t, err)
	})

	t.Run("zero iterations", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.MaxIterations = 0
		_, err := NewController(searcher, scorer.NewConsolidator(), checker, g,
			&fakeGenerator{}, &fakeExtractor{}, ledger, nil, opts)
		assert.Error(t, err)
	})

	t.Run("negative budget", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.BudgetUSD = -0.5
		_, err := NewController(searcher, scorer.NewConsolidator(), checker, g,
			&fakeGenerator{}, &fakeExtractor{}, ledger, nil, opts)
		assert.Error(t, err)
	})
}
