package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-engine/internal/cache"
	"github.com/sells-group/research-engine/internal/cascade"
	"github.com/sells-group/research-engine/internal/cost"
	"github.com/sells-group/research-engine/internal/coverage"
	"github.com/sells-group/research-engine/internal/extract"
	"github.com/sells-group/research-engine/internal/gate"
	"github.com/sells-group/research-engine/internal/health"
	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/provider"
	"github.com/sells-group/research-engine/internal/research"
	"github.com/sells-group/research-engine/internal/schema"
	"github.com/sells-group/research-engine/internal/scorer"
	"github.com/sells-group/research-engine/internal/store"
	anthropicpkg "github.com/sells-group/research-engine/pkg/anthropic"
	"github.com/sells-group/research-engine/pkg/firecrawl"
	"github.com/sells-group/research-engine/pkg/google"
	"github.com/sells-group/research-engine/pkg/jina"
	"github.com/sells-group/research-engine/pkg/perplexity"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "research.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// engine bundles the long-lived collaborators shared across research runs.
// Each run gets its own ledger and controller; the health tracker and cache
// carry state between runs on purpose.
type engine struct {
	st        store.Store
	executor  *cascade.Executor
	checker   *coverage.Checker
	gate      *gate.Gate
	generator extract.Generator
	extractor extract.Extractor
	rates     cost.TierRates
	opts      research.Options
}

func initEngine(ctx context.Context) (*engine, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	rates := cost.TierRates{
		Free:     cfg.Pricing.Free,
		Cheap:    cfg.Pricing.Cheap,
		Standard: cfg.Pricing.Standard,
		Premium:  cfg.Pricing.Premium,
	}

	registry := buildProviders(rates)
	if registry.Len() == 0 {
		st.Close()
		return nil, eris.New("no search providers configured; set at least one API key")
	}

	tracker := health.NewTracker(health.Config{
		FailureThreshold: cfg.Health.FailureThreshold,
		BaseBackoff:      time.Duration(cfg.Health.BaseBackoffSecs) * time.Second,
		MaxBackoff:       time.Duration(cfg.Health.MaxBackoffSecs) * time.Second,
	})
	resultCache := cache.New(st, time.Duration(cfg.Cache.TTLDays)*24*time.Hour)
	executor := cascade.NewExecutor(registry.All(), tracker, resultCache)

	sch := schema.Default()
	if cfg.Schema.Path != "" {
		sch, err = schema.LoadFile(cfg.Schema.Path)
		if err != nil {
			st.Close()
			return nil, err
		}
	}

	g, err := gate.New(gate.DefaultCategoryWeights(), cfg.Research.QualityThreshold)
	if err != nil {
		st.Close()
		return nil, err
	}

	var (
		generator extract.Generator = extract.NewTemplateGenerator()
		extractor extract.Extractor = noExtractor{}
	)
	if cfg.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		generator = extract.NewLLMGenerator(client, cfg.Anthropic.GeneratorModel)
		extractor = extract.NewLLMExtractor(client, cfg.Anthropic.ExtractorModel, sch)
	} else {
		zap.L().Warn("anthropic key missing; facts will not be extracted and coverage stays at zero")
	}

	return &engine{
		st:        st,
		executor:  executor,
		checker:   coverage.NewChecker(sch),
		gate:      g,
		generator: generator,
		extractor: extractor,
		rates:     rates,
		opts: research.Options{
			MaxIterations: cfg.Research.MaxIterations,
			BudgetUSD:     cfg.Research.BudgetUSD,
			Concurrency:   cfg.Research.Concurrency,
			MinResults:    cfg.Research.MinResults,
			MaxProviders:  cfg.Research.MaxProviders,
			TopGaps:       cfg.Research.TopGaps,
		},
	}, nil
}

func (e *engine) Close() {
	if err := e.st.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

// runCompany researches one company with a fresh cost ledger.
func (e *engine) runCompany(ctx context.Context, company model.Company) (*model.FinalResult, error) {
	ctrl, err := research.NewController(
		e.executor,
		scorer.NewConsolidator(),
		e.checker,
		e.gate,
		e.generator,
		e.extractor,
		cost.NewLedger(e.rates),
		e.st,
		e.opts,
	)
	if err != nil {
		return nil, err
	}
	return ctrl.Run(ctx, company)
}

// buildProviders registers every provider with a configured key, each behind
// its client-side throttle.
func buildProviders(rates cost.TierRates) *provider.Registry {
	reg := provider.NewRegistry()

	if cfg.Google.Key != "" && cfg.Google.EngineID != "" {
		client := google.NewClient(cfg.Google.Key, cfg.Google.EngineID)
		reg.Register(provider.Throttle(provider.NewGoogle(client, rates.Free), cfg.Google.RPS))
	}
	if cfg.Jina.Key != "" {
		client := jina.NewClient(cfg.Jina.Key, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
		reg.Register(provider.Throttle(provider.NewJina(client, rates.Cheap), cfg.Jina.RPS))
	}
	if cfg.Firecrawl.Key != "" {
		client := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		reg.Register(provider.Throttle(provider.NewFirecrawl(client, rates.Standard), cfg.Firecrawl.RPS))
	}
	if cfg.Perplexity.Key != "" {
		client := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		reg.Register(provider.Throttle(provider.NewPerplexity(client, rates.Premium), cfg.Perplexity.RPS))
	}

	names := make([]string, 0, reg.Len())
	for _, p := range reg.All() {
		names = append(names, p.Name())
	}
	zap.L().Info("providers configured", zap.Strings("providers", names))
	return reg
}

// noExtractor is the fallback when no LLM is configured: zero facts, zero cost.
type noExtractor struct{}

func (noExtractor) Extract(context.Context, model.Company, []model.SourceRecord) ([]model.ExtractedFact, float64, error) {
	return nil, 0, nil
}
