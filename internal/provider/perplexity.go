package provider

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-engine/internal/model"
	"github.com/sells-group/research-engine/pkg/perplexity"
)

// PerplexityProvider adapts the Perplexity sonar API to the SearchProvider
// interface. The model's answer text is discarded; only the consulted web
// sources (search_results) feed the cascade.
type PerplexityProvider struct {
	client  perplexity.Client
	cost    float64
	timeout time.Duration
	nowFunc func() time.Time
}

// NewPerplexity creates a Perplexity search provider.
func NewPerplexity(client perplexity.Client, costPerQuery float64) *PerplexityProvider {
	return &PerplexityProvider{
		client:  client,
		cost:    costPerQuery,
		timeout: 60 * time.Second,
		nowFunc: time.Now,
	}
}

func (p *PerplexityProvider) Name() string           { return "perplexity" }
func (p *PerplexityProvider) Tier() model.CostTier   { return model.TierPremium }
func (p *PerplexityProvider) CostPerQuery() float64  { return p.cost }
func (p *PerplexityProvider) Timeout() time.Duration { return p.timeout }

func (p *PerplexityProvider) Search(ctx context.Context, query model.SearchQuery) ([]model.SearchResult, error) {
	resp, err := p.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "user", Content: query.Text},
		},
	})
	if err != nil {
		var se *perplexity.StatusError
		if errors.As(err, &se) {
			return nil, classifyStatus(se.Code, se)
		}
		return nil, eris.Wrap(err, "provider: perplexity search")
	}

	now := p.nowFunc()
	results := make([]model.SearchResult, 0, len(resp.SearchResults))
	for i, item := range resp.SearchResults {
		r := model.SearchResult{
			URL:       item.URL,
			Title:     item.Title,
			Snippet:   item.Snippet,
			Score:     rankScore(i),
			Provider:  p.Name(),
			Query:     query.Text,
			FetchedAt: now,
		}
		if item.Date != "" {
			if t, err := time.Parse("2006-01-02", item.Date); err == nil {
				r.PublishedAt = &t
			}
		}
		results = append(results, r)
	}
	return results, nil
}
