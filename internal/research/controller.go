// Package research drives the iterative search loop: dispatch queries,
// consolidate results, extract facts, assess coverage, and gate.
package research

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/research-engine/internal/cascade"
	"github.com/sells-group/research-engine/internal/cost"
	"github.com/sells-group/research-engine/internal/coverage"
	"github.com/sells-group/research-engine/internal/extract"
	"github.com/sells-group/research-engine/internal/gate"
	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/scorer"
	"github.com/sells-group/research-engine/internal/store"
)

// Searcher executes one query through the provider cascade.
type Searcher interface {
	Execute(ctx context.Context, query model.SearchQuery, minResults, maxProviders int) cascade.Result
	// ProviderTiers returns the cost tiers of the configured providers, for
	// next-iteration cost projection.
	ProviderTiers() []model.CostTier
}

// Options bound a research run.
type Options struct {
	MaxIterations int
	BudgetUSD     float64
	Concurrency   int
	MinResults    int // per-query result target for the cascade
	MaxProviders  int // per-query provider attempt cap; 0 means all
	TopGaps       int // gap-filling queries target at most this many gaps
}

// DefaultOptions returns the standard run bounds.
func DefaultOptions() Options {
	return Options{
		MaxIterations: 3,
		BudgetUSD:     1.00,
		Concurrency:   5,
		MinResults:    8,
		MaxProviders:  0,
		TopGaps:       5,
	}
}

func (o *Options) validate() error {
	if o.MaxIterations < 1 {
		return eris.Errorf("research: max iterations %d, want >= 1", o.MaxIterations)
	}
	if o.BudgetUSD < 0 {
		return eris.Errorf("research: negative budget %.4f", o.BudgetUSD)
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	if o.MinResults <= 0 {
		o.MinResults = 8
	}
	if o.TopGaps <= 0 {
		o.TopGaps = 5
	}
	return nil
}

// Controller owns the iteration loop and its state.
type Controller struct {
	searcher     Searcher
	consolidator *scorer.Consolidator
	checker      *coverage.Checker
	gate         *gate.Gate
	generator    extract.Generator
	extractor    extract.Extractor
	ledger       *cost.Ledger
	store        store.Store // optional; persistence is best-effort
	opts         Options
}

// NewController validates the collaborators and builds a controller.
func NewController(
	searcher Searcher,
	consolidator *scorer.Consolidator,
	checker *coverage.Checker,
	g *gate.Gate,
	generator extract.Generator,
	extractor extract.Extractor,
	ledger *cost.Ledger,
	st store.Store,
	opts Options,
) (*Controller, error) {
	if searcher == nil {
		return nil, eris.New("research: nil searcher")
	}
	if len(searcher.ProviderTiers()) == 0 {
		return nil, eris.New("research: no search providers configured")
	}
	if generator == nil || extractor == nil {
		return nil, eris.New("research: nil generator or extractor")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Controller{
		searcher:     searcher,
		consolidator: consolidator,
		checker:      checker,
		gate:         g,
		generator:    generator,
		extractor:    extractor,
		ledger:       ledger,
		store:        st,
		opts:         opts,
	}, nil
}

// Run researches one company to a terminal decision. It always returns a
// FinalResult when the inputs validate; degraded outcomes (provider
// exhaustion, extraction failure, empty results) surface through the result's
// report and decision, not through the error.
func (c *Controller) Run(ctx context.Context, company model.Company) (*model.FinalResult, error) {
	company = company.Normalize()
	if company.Name == "" {
		return nil, eris.New("research: company name required")
	}

	run := c.beginRun(ctx, company)

	queries, err := c.generator.Initial(ctx, company)
	if err != nil {
		c.finishRun(ctx, run, nil, model.RunStatusFailed)
		return nil, eris.Wrap(err, "research: initial query generation")
	}

	zap.L().Info("research: starting run",
		zap.String("company", company.Name),
		zap.Int("initial_queries", len(queries)),
		zap.Int("max_iterations", c.opts.MaxIterations),
		zap.Float64("budget_usd", c.opts.BudgetUSD),
	)

	state := model.IterationState{Max: c.opts.MaxIterations}
	var (
		allResults []model.SearchResult
		records    []model.SourceRecord
		facts      []model.ExtractedFact
		report     model.QualityReport
		decision   model.Decision
	)

	for {
		state.Current++

		newResults := c.dispatch(ctx, queries)
		allResults = append(allResults, newResults...)

		// Re-extraction only pays off when this iteration surfaced new
		// material.
		if len(newResults) > 0 || state.Current == 1 {
			records = c.consolidator.Consolidate(allResults)

			extracted, extractCost, err := c.extractor.Extract(ctx, company, records)
			c.ledger.Add(extractCost)
			if err != nil {
				zap.L().Warn("research: extraction failed, keeping previous facts",
					zap.String("company", company.Name),
					zap.Int("iteration", state.Current),
					zap.Error(err),
				)
			} else {
				facts = extracted
			}
		}

		cov := c.checker.Assess(facts, records)
		report = c.gate.Evaluate(cov, state.Current)
		state.SpentUSD = c.ledger.Spent()
		state.Reports = append(state.Reports, report)

		nextGapCount := min(c.opts.TopGaps, len(report.Gaps))
		projected := c.ledger.ProjectIteration(nextGapCount, c.searcher.ProviderTiers())
		decision = c.gate.Decide(report, state, projected, c.opts.BudgetUSD)
		gate.LogDecision(report, decision, state.SpentUSD)

		if decision.Terminal() {
			state.Done = true
			break
		}

		gapQueries, err := c.generator.ForGaps(ctx, company, report.Gaps[:nextGapCount], state.Current+1)
		if err != nil {
			zap.L().Warn("research: gap query generation failed",
				zap.String("company", company.Name),
				zap.Error(err),
			)
			gapQueries = nil
		}
		queries = gapQueries
	}

	final := &model.FinalResult{
		Company:       company,
		Sources:       records,
		Facts:         facts,
		Report:        report,
		Iterations:    state.Current,
		Decision:      decision,
		TotalCostUSD:  c.ledger.Spent(),
		CostByTier:    c.ledger.ByTier(),
		SearchQueries: c.ledger.Queries(),
	}
	c.finishRun(ctx, run, final, model.RunStatusComplete)

	zap.L().Info("research: run finished",
		zap.String("company", company.Name),
		zap.Int("iterations", final.Iterations),
		zap.String("decision", string(final.Decision)),
		zap.Float64("composite", final.Report.Composite),
		zap.Float64("total_cost_usd", final.TotalCostUSD),
	)
	return final, nil
}

// dispatch runs the iteration's queries concurrently through the cascade,
// bounded by the concurrency limit. The budget guard stops new dispatches
// once spend crosses the budget; in-flight queries finish. Results come back
// flattened in query order so downstream consolidation is deterministic.
func (c *Controller) dispatch(ctx context.Context, queries []model.SearchQuery) []model.SearchResult {
	if len(queries) == 0 {
		return nil
	}

	perQuery := make([][]model.SearchResult, len(queries))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for i, q := range queries {
		if c.ledger.Spent() >= c.opts.BudgetUSD {
			zap.L().Warn("research: budget reached, skipping remaining queries",
				zap.Float64("spent_usd", c.ledger.Spent()),
				zap.Int("skipped", len(queries)-i),
			)
			break
		}
		g.Go(func() error {
			res := c.searcher.Execute(gctx, q, c.opts.MinResults, c.opts.MaxProviders)
			for _, tier := range res.TiersUsed {
				c.ledger.Charge(tier)
			}
			mu.Lock()
			perQuery[i] = res.Results
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var out []model.SearchResult
	for _, rs := range perQuery {
		out = append(out, rs...)
	}
	return out
}

// beginRun creates the persisted run row, best-effort.
func (c *Controller) beginRun(ctx context.Context, company model.Company) *model.Run {
	if c.store == nil {
		return nil
	}
	run, err := c.store.CreateRun(ctx, company)
	if err != nil {
		zap.L().Warn("research: create run failed, continuing unpersisted",
			zap.String("company", company.Name),
			zap.Error(err),
		)
		return nil
	}
	if err := c.store.UpdateRunStatus(ctx, run.ID, model.RunStatusSearching); err != nil {
		zap.L().Warn("research: update run status failed", zap.Error(err))
	}
	return run
}

// finishRun records the outcome, best-effort.
func (c *Controller) finishRun(ctx context.Context, run *model.Run, result *model.FinalResult, status model.RunStatus) {
	if c.store == nil || run == nil {
		return
	}
	if result != nil {
		if err := c.store.UpdateRunResult(ctx, run.ID, result); err != nil {
			zap.L().Warn("research: persist result failed", zap.Error(err))
		}
	}
	if err := c.store.UpdateRunStatus(ctx, run.ID, status); err != nil {
		zap.L().Warn("research: update run status failed", zap.Error(err))
	}
}
