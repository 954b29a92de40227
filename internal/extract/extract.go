// Package extract holds the research loop's two LLM collaborators: query
// generation and fact extraction.
package extract

import (
	"context"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/internal/resilience"
)

// Generator produces search queries: an initial set covering every category,
// and narrower gap-filling sets on later iterations.
type Generator interface {
	Initial(ctx context.Context, company model.Company) ([]model.SearchQuery, error)
	ForGaps(ctx context.Context, company model.Company, gaps []model.Gap, iteration int) ([]model.SearchQuery, error)
}

// Extractor pulls structured facts out of consolidated source records.
// The returned cost is the extraction's own LLM spend in USD.
type Extractor interface {
	Extract(ctx context.Context, company model.Company, sources []model.SourceRecord) ([]model.ExtractedFact, float64, error)
}

// retryConfig is the retry policy for Anthropic calls: transient failures
// are retried with backoff, rate limits and malformed requests are not.
func retryConfig(operation string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("anthropic", operation)
	return cfg
}
